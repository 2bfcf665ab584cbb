package turn

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"chatdesk/internal/models"
)

// PageReader returns the plain text of every page, in order.
type PageReader func(data []byte) ([]string, error)

// DocumentExtractor pulls text out of PDF files page by page.
type DocumentExtractor struct {
	pages PageReader
}

func NewDocumentExtractor() DocumentExtractor {
	return DocumentExtractor{pages: readPDFPages}
}

// NewDocumentExtractorWith uses a custom page reader.
func NewDocumentExtractorWith(pages PageReader) DocumentExtractor {
	return DocumentExtractor{pages: pages}
}

func (d DocumentExtractor) Extract(file UploadedFile) (Extraction, error) {
	read := d.pages
	if read == nil {
		read = readPDFPages
	}
	pages, err := read(file.Data)
	if err != nil {
		return Extraction{}, err
	}

	blocks := make([]string, 0, len(pages))
	for i, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("--- Page %d of %s ---\n%s", i+1, file.Name, text))
	}

	var content string
	if len(blocks) == 0 {
		content = NoTextMarker(file.Name)
	} else {
		content = fmt.Sprintf("--- Content from PDF file: %s ---\n", file.Name) + strings.Join(blocks, "\n\n")
	}
	return Extraction{Part: models.TextPart{Text: content}}, nil
}

// NoTextMarker is the content sent for a PDF without any extractable text.
func NoTextMarker(name string) string {
	return fmt.Sprintf("--- No text could be extracted from PDF file: %s ---", name)
}

func readPDFPages(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
