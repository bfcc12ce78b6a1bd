package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/extract"
	"github.com/einantonio/pdf-text-api/internal/logging"
)

const maxRequestBytes = 1 << 20

const (
	missingURLMessage  = "No URL provided"
	invalidURLMessage  = "url must be an absolute http(s) URL"
	invalidJSONMessage = "invalid JSON body"
)

type urlRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

type errorResponse struct {
	Error string     `json:"error"`
	Debug *debugInfo `json:"debug,omitempty"`
}

type debugInfo struct {
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type pdfInfo struct {
	Pages   int    `json:"pages"`
	Version string `json:"version"`
}

type pdfResponse struct {
	Text string  `json:"text"`
	Info pdfInfo `json:"info"`
}

type fileResponse struct {
	Text string         `json:"text"`
	Info map[string]any `json:"info"`
}

type jobTextResponse struct {
	Source   extract.Source `json:"source"`
	Text     string         `json:"text"`
	JobTitle string         `json:"job_title,omitempty"`
}

type crawlResponse struct {
	Source   extract.Source `json:"source"`
	Text     string         `json:"text"`
	JobTitle string         `json:"job_title"`
}

func (s *Server) extractPDF(w http.ResponseWriter, r *http.Request) {
	url, ok := s.readURL(w, r)
	if !ok {
		return
	}
	res, err := s.docs.ExtractPDF(r.Context(), url)
	if err != nil {
		s.writeFailure(w, r, err, pdfRouteStatus)
		return
	}
	s.writeJSON(w, http.StatusOK, pdfResponse{
		Text: res.Text,
		Info: pdfInfo{Pages: res.Stats[extract.StatPages], Version: res.Version},
	})
}

func (s *Server) extractFile(w http.ResponseWriter, r *http.Request) {
	url, ok := s.readURL(w, r)
	if !ok {
		return
	}
	res, err := s.docs.ExtractFile(r.Context(), url)
	if err != nil {
		s.writeFailure(w, r, err, fileRouteStatus)
		return
	}
	info := map[string]any{
		"type":   res.Format,
		"length": res.Length,
	}
	for name, value := range res.Stats {
		info[name] = value
	}
	s.writeJSON(w, http.StatusOK, fileResponse{Text: res.Text, Info: info})
}

func (s *Server) extractJobText(w http.ResponseWriter, r *http.Request) {
	url, ok := s.readURL(w, r)
	if !ok {
		return
	}
	res, err := s.jobs.ExtractJobText(r.Context(), url)
	if err != nil {
		s.writeFailure(w, r, err, defaultStatus)
		return
	}
	out := jobTextResponse{Source: res.Source, Text: res.Text}
	if res.Source == extract.SourceCrawlService {
		out.JobTitle = res.Title
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) extractWithCrawl(w http.ResponseWriter, r *http.Request) {
	url, ok := s.readURL(w, r)
	if !ok {
		return
	}
	res, err := s.jobs.ExtractWithCrawl(r.Context(), url)
	if err != nil {
		s.writeFailure(w, r, err, defaultStatus)
		return
	}
	s.writeJSON(w, http.StatusOK, crawlResponse{Source: res.Source, Text: res.Text, JobTitle: res.Title})
}

// readURL decodes and validates the {"url": ...} body. On failure it writes the
// 400 response and returns false.
func (s *Server) readURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	url, err := s.decodeURL(r)
	if err != nil {
		s.writeFailure(w, r, err, defaultStatus)
		return "", false
	}
	return url, true
}

// decodeURL returns KindMissingInput for an empty body or blank url and
// KindInvalidInput for malformed JSON or a url that is not absolute http(s).
func (s *Server) decodeURL(r *http.Request) (string, error) {
	var req urlRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", extract.NewError(extract.KindInvalidInput, invalidJSONMessage, nil)
	}
	req.URL = strings.TrimSpace(req.URL)

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			return "", extract.NewError(extract.KindMissingInput, missingURLMessage, nil)
		}
		return "", extract.NewError(extract.KindInvalidInput, invalidURLMessage, nil)
	}
	return req.URL, nil
}

// statusFunc maps a pipeline error to an HTTP status for one route.
type statusFunc func(e *extract.Error) int

func defaultStatus(e *extract.Error) int {
	switch e.Kind {
	case extract.KindMissingInput, extract.KindInvalidInput, extract.KindUnsupportedFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// pdfRouteStatus keeps parse failures on /extract-pdf as server errors.
func pdfRouteStatus(e *extract.Error) int {
	return defaultStatus(e)
}

// fileRouteStatus reports a malformed PDF as a client error and a malformed DOCX as a server error.
func fileRouteStatus(e *extract.Error) int {
	if e.Kind == extract.KindMalformedDocument && e.Format == extract.FormatPDF {
		return http.StatusBadRequest
	}
	return defaultStatus(e)
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, status statusFunc) {
	var extractErr *extract.Error
	if !errors.As(err, &extractErr) {
		extractErr = extract.NewError(extract.KindUpstream, err.Error(), nil)
	}
	code := status(extractErr)
	resp := errorResponse{Error: extractErr.Error()}
	if extractErr.Kind == extract.KindUnsupportedFormat {
		resp.Debug = &debugInfo{ContentType: extractErr.ContentType, URL: extractErr.URL}
	}

	fields := []zap.Field{
		zap.String("request_id", RequestID(r.Context())),
		zap.String("kind", string(extractErr.Kind)),
		zap.Int("status", code),
		zap.Error(err),
	}
	if extractErr.URL != "" {
		fields = append(fields, logging.URL("url", extractErr.URL))
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("extraction failed", fields...)
	} else {
		s.logger.Info("extraction rejected", fields...)
	}
	s.writeJSON(w, code, resp)
}
