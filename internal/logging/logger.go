// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

const redacted = "REDACTED"

// sensitiveParams are query keys that carry credentials, compared case-insensitively.
var sensitiveParams = map[string]struct{}{
	"token":                {},
	"access_token":         {},
	"api_key":              {},
	"apikey":               {},
	"key":                  {},
	"sig":                  {},
	"signature":            {},
	"x-amz-signature":      {},
	"x-amz-credential":     {},
	"x-amz-security-token": {},
	"x-goog-signature":     {},
	"x-goog-credential":    {},
}

// URL is a zap field holding rawURL with credential-bearing query values masked.
func URL(key, rawURL string) zap.Field {
	return zap.String(key, RedactURL(rawURL))
}

// RedactURL masks user info and credential-bearing query values. Input that
// does not parse is returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		u.User = url.User(redacted)
	}
	if u.RawQuery == "" {
		return u.String()
	}
	query := u.Query()
	for name := range query {
		if _, ok := sensitiveParams[strings.ToLower(name)]; ok {
			query.Set(name, redacted)
		}
	}
	u.RawQuery = query.Encode()
	return u.String()
}
