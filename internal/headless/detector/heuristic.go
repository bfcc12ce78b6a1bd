// Package detector flags HTML pages whose content is likely rendered by client-side script.
package detector

import (
	"bytes"
	"strings"

	"github.com/einantonio/pdf-text-api/internal/extract"
)

// DefaultMinBodyBytes is the body size below which a script-heavy page counts as a shell.
const DefaultMinBodyBytes = 2048

// Heuristic implements a handful of rule-based checks.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = DefaultMinBodyBytes
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
	[]byte("ng-version"),
	[]byte("__nuxt"),
}

// LooksScriptRendered reports whether a static scrape of content is likely to miss
// most of the page text. Error responses are never flagged; a zero status is
// treated as unknown and checked.
func (h *Heuristic) LooksScriptRendered(content extract.FetchedContent) bool {
	if content.StatusCode != 0 && (content.StatusCode < 200 || content.StatusCode > 299) {
		return false
	}
	body := content.Body
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Unterminated tag covers the rest.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		end := total
		if relativeEnd := strings.Index(lower[contentStart:], closeTag); relativeEnd != -1 {
			end = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += end - start
		searchPos = end
	}

	return scriptCoverage*100/total >= 25
}
