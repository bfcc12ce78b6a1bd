package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/extract"
	"github.com/einantonio/pdf-text-api/internal/logging"
	"github.com/einantonio/pdf-text-api/internal/metrics"
)

// Service runs the document pipeline: fetch, classify, extract.
type Service struct {
	fetcher   extract.Fetcher
	extractor *Extractor
	logger    *zap.Logger
}

// NewService wires a Service.
func NewService(fetcher extract.Fetcher, extractor *Extractor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewExtractor(logger)
	}
	return &Service{fetcher: fetcher, extractor: extractor, logger: logger}
}

// ExtractFile fetches url and extracts text from whichever supported format it holds.
func (s *Service) ExtractFile(ctx context.Context, url string) (extract.ExtractionResult, error) {
	content, err := s.fetch(ctx, url)
	if err != nil {
		metrics.ObserveDocument("unknown", string(extract.KindOf(err)))
		return extract.ExtractionResult{}, err
	}
	format := Classify(content)
	res, err := s.extractor.Extract(content)
	s.observe(url, format, err)
	if err != nil {
		return extract.ExtractionResult{}, fmt.Errorf("extract %s: %w", format, err)
	}
	return res, nil
}

// ExtractPDF fetches url and parses it as a PDF regardless of declared type.
func (s *Service) ExtractPDF(ctx context.Context, url string) (extract.ExtractionResult, error) {
	content, err := s.fetch(ctx, url)
	if err != nil {
		metrics.ObserveDocument(string(extract.FormatPDF), string(extract.KindOf(err)))
		return extract.ExtractionResult{}, err
	}
	res, err := s.extractor.ExtractPDF(content.Body)
	s.observe(url, extract.FormatPDF, err)
	if err != nil {
		return extract.ExtractionResult{}, fmt.Errorf("extract pdf: %w", err)
	}
	return res, nil
}

func (s *Service) fetch(ctx context.Context, url string) (extract.FetchedContent, error) {
	if url == "" {
		return extract.FetchedContent{}, extract.NewError(extract.KindMissingInput, "No URL provided", nil)
	}
	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return extract.FetchedContent{}, err
	}
	// Classification keys off the requested URL, not a redirect target.
	content.SourceURL = url
	return content, nil
}

func (s *Service) observe(url string, format extract.Format, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(extract.KindOf(err))
		s.logger.Warn("document extraction failed",
			logging.URL("url", url),
			zap.String("format", string(format)),
			zap.Error(err),
		)
	}
	metrics.ObserveDocument(string(format), outcome)
}
