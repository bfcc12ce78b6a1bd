package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

// docxStrategy turns the bytes of a .docx file into text.
type docxStrategy func(body []byte) (string, error)

var errNoMainPart = errors.New("word/document.xml not found")

// readMainPart returns the raw WordprocessingML of the main document part.
func readMainPart(body []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	for _, file := range reader.File {
		if file.Name != docxMainPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", docxMainPart, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", docxMainPart, err)
		}
		return content, nil
	}
	return nil, errNoMainPart
}

// extractDOCXRich walks the document token stream and keeps run structure:
// tabs and line breaks inside paragraphs, one line per table row with cells
// separated by tabs, while skipping deleted text and field codes.
// Paragraphs inside a cell are joined with a space.
// The decoder is strict, so malformed XML is an error.
func extractDOCXRich(body []byte) (string, error) {
	content, err := readMainPart(body)
	if err != nil {
		return "", err
	}

	decoder := xml.NewDecoder(bytes.NewReader(content))
	var (
		b         strings.Builder
		para      strings.Builder
		inText    bool
		sawBody   bool
		skipDepth int
		// rows holds the cell count of each open table row, innermost last.
		rows      []int
		cellStart int
	)
	flushParagraph := func() {
		line := strings.TrimRight(para.String(), " \t")
		para.Reset()
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", docxMainPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipDepth > 0 {
				skipDepth++
				continue
			}
			switch t.Name.Local {
			case "body":
				sawBody = true
			case "delText", "instrText":
				skipDepth = 1
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			case "tr":
				rows = append(rows, 0)
			case "tc":
				if n := len(rows); n > 0 {
					if rows[n-1] > 0 {
						para.WriteString("\t")
					}
					rows[n-1]++
				}
				cellStart = para.Len()
			case "p":
				if len(rows) > 0 && para.Len() > cellStart {
					para.WriteString(" ")
				}
			}
		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(rows) == 0 {
					flushParagraph()
				}
			case "tr":
				if len(rows) > 0 {
					rows = rows[:len(rows)-1]
				}
				if len(rows) == 0 {
					flushParagraph()
				}
			}
		case xml.CharData:
			if inText && skipDepth == 0 {
				para.Write(t)
			}
		}
	}

	if !sawBody {
		return "", errors.New("document body not found")
	}
	if para.Len() > 0 {
		flushParagraph()
	}
	return b.String(), nil
}

var (
	paragraphPattern = regexp.MustCompile(`(?s)<w:p(?:\s[^>/]*)?>(.*?)</w:p>`)
	textRunPattern   = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
)

// extractDOCXParagraphs concatenates the text runs of each paragraph, one paragraph per line.
// It matches markup loosely and tolerates XML the strict decoder rejects.
func extractDOCXParagraphs(body []byte) (string, error) {
	content, err := readMainPart(body)
	if err != nil {
		return "", err
	}

	paragraphs := paragraphPattern.FindAllSubmatch(content, -1)
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		var line strings.Builder
		for _, run := range textRunPattern.FindAllSubmatch(p[1], -1) {
			line.WriteString(html.UnescapeString(string(run[1])))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"), nil
}
