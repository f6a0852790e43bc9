package retrieval

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns one source file into a title and raw text. Extraction
// is the external collaborator of ingestion: chunking and embedding never
// look at the file format.
type TextExtractor interface {
	Supports(path string) bool
	Extract(path string) (title string, text string, err error)
}

// PlainTextExtractor handles .txt and .md sources. The title is the first
// markdown heading if one exists, otherwise the file name.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

func (e *PlainTextExtractor) Extract(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	text := string(data)
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			break
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
	}
	return title, text, nil
}

// PDFExtractor pulls plain text out of PDF sources, reading at most
// maxPages pages per document.
type PDFExtractor struct {
	maxPages int
}

func NewPDFExtractor(maxPages int) *PDFExtractor {
	if maxPages <= 0 {
		maxPages = 50
	}
	return &PDFExtractor{maxPages: maxPages}
}

func (e *PDFExtractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (e *PDFExtractor) Extract(path string) (string, string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages > e.maxPages {
		pages = e.maxPages
	}

	var buf bytes.Buffer
	for pageNum := 1; pageNum <= pages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", "", fmt.Errorf("failed to read pdf page %d of %s: %w", pageNum, path, err)
		}
		buf.WriteString(content)
		buf.WriteString("\n")
	}

	title := strings.TrimSuffix(filepath.Base(path), ".pdf")
	return title, buf.String(), nil
}
