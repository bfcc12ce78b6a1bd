package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const unknownVersion = "unknown"

type pdfText struct {
	text    string
	pages   int
	version string
}

// parsePDF extracts the text of every page and the page count with a single reader.
// The parser panics on some hostile inputs, so panics are converted to errors.
func parsePDF(body []byte) (out pdfText, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = pdfText{}
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return pdfText{}, fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return pdfText{}, fmt.Errorf("page %d text: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return pdfText{
		text:    b.String(),
		pages:   pages,
		version: pdfVersion(body),
	}, nil
}

// pdfVersion reads the header version as "PDF 1.x".
func pdfVersion(body []byte) string {
	const marker = "%PDF-"
	if !bytes.HasPrefix(body, []byte(marker)) {
		return unknownVersion
	}
	rest := body[len(marker):]
	end := bytes.IndexAny(rest, "\r\n \t%")
	if end < 0 {
		end = len(rest)
	}
	if end == 0 || end > 8 {
		return unknownVersion
	}
	return "PDF " + string(rest[:end])
}
