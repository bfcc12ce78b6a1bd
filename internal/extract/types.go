// Package extract defines the data model shared by the document and job-posting pipelines.
package extract

import "unicode/utf8"

// MaxJobTextChars caps job-posting text on both the static and crawl-service paths.
const MaxJobTextChars = 10000

// UnspecifiedTitle is returned when no job title can be resolved.
const UnspecifiedTitle = "unspecified"

// FetchedContent is the raw payload retrieved for a URL.
type FetchedContent struct {
	Body        []byte
	ContentType string
	SourceURL   string
	StatusCode  int
}

// Format is the detected document format.
type Format string

// Detected document formats.
const (
	FormatPDF         Format = "pdf"
	FormatDOCX        Format = "docx"
	FormatUnsupported Format = "unsupported"
)

// Stat names reported alongside extracted text.
const (
	StatPages = "pages"
	StatWords = "words"
)

// ExtractionResult holds text extracted from an office document.
type ExtractionResult struct {
	Text    string
	Format  Format
	Stats   map[string]int
	Length  int
	Version string
}

// NewExtractionResult trims text and derives Length from it.
func NewExtractionResult(text string, format Format, stats map[string]int) ExtractionResult {
	text = TrimSpace(text)
	if stats == nil {
		stats = map[string]int{}
	}
	return ExtractionResult{
		Text:   text,
		Format: format,
		Stats:  stats,
		Length: utf8.RuneCountInString(text),
	}
}

// Source identifies which path produced a job posting's text.
type Source string

// Job posting sources, named by their wire values.
const (
	SourceCrawlService Source = "apify"
	SourceStaticScrape Source = "beautifulsoup"
)

// JobPostingResult is the outcome of the job-posting pipeline.
type JobPostingResult struct {
	Source Source
	Text   string
	Title  string
}
