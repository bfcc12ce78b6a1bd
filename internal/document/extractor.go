package document

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/einantonio/pdf-text-api/internal/extract"
)

// Extractor turns classified document bytes into an ExtractionResult.
type Extractor struct {
	logger       *zap.Logger
	docxPrimary  docxStrategy
	docxFallback docxStrategy
}

// NewExtractor builds an Extractor with the rich DOCX strategy first and the
// paragraph-concatenation strategy as fallback.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		logger:       logger,
		docxPrimary:  extractDOCXRich,
		docxFallback: extractDOCXParagraphs,
	}
}

// Extract classifies content and dispatches to the matching format extractor.
func (e *Extractor) Extract(content extract.FetchedContent) (extract.ExtractionResult, error) {
	switch Classify(content) {
	case extract.FormatPDF:
		return e.ExtractPDF(content.Body)
	case extract.FormatDOCX:
		return e.ExtractDOCX(content.Body)
	default:
		return extract.ExtractionResult{}, &extract.Error{
			Kind:        extract.KindUnsupportedFormat,
			Message:     "Unsupported file type",
			Format:      extract.FormatUnsupported,
			ContentType: content.ContentType,
			URL:         content.SourceURL,
		}
	}
}

// ExtractPDF returns the text of all pages with the "pages" stat and header version.
func (e *Extractor) ExtractPDF(body []byte) (extract.ExtractionResult, error) {
	parsed, err := parsePDF(body)
	if err != nil {
		malformed := extract.NewError(extract.KindMalformedDocument, "invalid pdf", err)
		malformed.Format = extract.FormatPDF
		return extract.ExtractionResult{}, malformed
	}
	res := extract.NewExtractionResult(parsed.text, extract.FormatPDF, map[string]int{
		extract.StatPages: parsed.pages,
	})
	res.Version = parsed.version
	return res, nil
}

// ExtractDOCX runs the primary strategy and, if it fails, the fallback on the same bytes.
func (e *Extractor) ExtractDOCX(body []byte) (extract.ExtractionResult, error) {
	text, err := e.docxPrimary(body)
	if err != nil {
		e.logger.Info("docx primary extraction failed; using paragraph fallback", zap.Error(err))
		text, err = e.docxFallback(body)
		if err != nil {
			malformed := extract.NewError(
				extract.KindMalformedDocument,
				"invalid docx",
				fmt.Errorf("fallback extraction: %w", err),
			)
			malformed.Format = extract.FormatDOCX
			return extract.ExtractionResult{}, malformed
		}
	}
	res := extract.NewExtractionResult(text, extract.FormatDOCX, nil)
	res.Stats[extract.StatWords] = extract.WordCount(res.Text)
	return res, nil
}
