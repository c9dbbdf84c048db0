// Package parser extracts plain text pages from source documents.
// PDFs are read page-by-page (numbering starts at 1); txt and md files
// are treated as a single page.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

// Extractor implements ports.DocumentExtractor for .pdf, .txt and .md.
type Extractor struct{}

// NewExtractor creates the extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract dispatches on the file extension. Unsupported or unreadable
// files wrap ports.ErrIngestion.
func (e *Extractor) Extract(ctx context.Context, path string) ([]entities.Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		return extractText(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ports.ErrIngestion, filepath.Ext(path))
	}
}

// SupportedExtensions returns the handled file extensions.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".md"}
}

// extractPDF reads text page-by-page. Pages whose extracted text is
// blank are skipped entirely, they produce no chunks.
func extractPDF(path string) ([]entities.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf %s: %v", ports.ErrIngestion, filepath.Base(path), err)
	}
	defer f.Close()

	var pages []entities.Page
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: reading pdf page %d of %s: %v", ports.ErrIngestion, num, filepath.Base(path), err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, entities.Page{Number: num, Text: text})
	}
	return pages, nil
}

func extractText(path string) ([]entities.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ports.ErrIngestion, filepath.Base(path), err)
	}
	return []entities.Page{{Number: 1, Text: string(content)}}, nil
}
