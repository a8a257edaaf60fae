package pagestore

import (
	"fmt"
	"os"
	"path/filepath"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/primer/internal/catalog"
)

// PDFPageCount returns the number of pages in a PDF.
func PDFPageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// CheckResult compares the page files against the source PDF.
type CheckResult struct {
	PDFPages     int   `json:"pdf_pages" yaml:"pdf_pages"`
	TextPages    int   `json:"text_pages" yaml:"text_pages"`
	MaxPage      int   `json:"max_page" yaml:"max_page"`
	MissingPages []int `json:"missing_pages,omitempty" yaml:"missing_pages,omitempty"`
}

// OK reports whether every PDF page has a text file.
func (c CheckResult) OK() bool {
	return c.PDFPages == c.TextPages && c.MaxPage == c.PDFPages && len(c.MissingPages) == 0
}

// Check compares the store with the PDF it was produced from.
func Check(s *Store, pdfPath string) (CheckResult, error) {
	count, err := PDFPageCount(pdfPath)
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{
		PDFPages:     count,
		TextPages:    s.Len(),
		MaxPage:      s.MaxPhysicalPage(),
		MissingPages: s.Missing(),
	}, nil
}

// ExtractPDFText writes one text file per PDF page into dir using the PDF's
// text layer. Pages without a text layer produce empty files so the page
// numbering stays aligned with the PDF.
func ExtractPDFText(pdfPath, dir string, format catalog.PageKeyFormat, ext string) (int, error) {
	if ext == "" {
		ext = DefaultExt
	}
	f, reader, err := pdflib.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create text directory: %w", err)
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		var text string
		page := reader.Page(i)
		if !page.V.IsNull() {
			if t, err := page.GetPlainText(nil); err == nil {
				text = t
			}
		}
		name := format.Key(i) + ext
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			return i - 1, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return numPages, nil
}
