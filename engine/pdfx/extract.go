package pdfx

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ExtractPages reads a PDF file and returns one plain-text string per page,
// in page order, realizing pdf_retriever.py's `read_pages`/`PdfImport.extract_text`
// contract ("a list of texts... corresponding to the page order").
func ExtractPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfx: open %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdfx: extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
