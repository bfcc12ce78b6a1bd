// Package document detects office document formats and extracts their text.
package document

import (
	"archive/zip"
	"bytes"
	"net/url"
	"strings"

	"github.com/einantonio/pdf-text-api/internal/extract"
)

// MIME tokens matched against the declared content type.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

const docxMainPart = "word/document.xml"

// Classify decides the format of fetched content. The first matching rule wins:
// PDF by content type or ".pdf" suffix, then DOCX by content type, ".docx" suffix,
// or a zip container holding word/document.xml.
func Classify(content extract.FetchedContent) extract.Format {
	contentType := strings.ToLower(content.ContentType)
	path := urlPath(content.SourceURL)

	if strings.Contains(contentType, MIMEPDF) || strings.HasSuffix(path, ".pdf") {
		return extract.FormatPDF
	}
	if strings.Contains(contentType, MIMEDOCX) || strings.HasSuffix(path, ".docx") || IsDOCXArchive(content.Body) {
		return extract.FormatDOCX
	}
	return extract.FormatUnsupported
}

// IsDOCXArchive reports whether body is a zip archive containing word/document.xml.
// Corrupt or non-zip input is reported as false.
func IsDOCXArchive(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return false
	}
	for _, f := range reader.File {
		if f.Name == docxMainPart {
			return true
		}
	}
	return false
}

// urlPath returns the lowercased path of rawURL without query or fragment.
func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		raw := rawURL
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			raw = raw[:i]
		}
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Path)
}
