// Package textconv extracts plain text from document formats so the ingest
// pipeline only ever sees decoded text.
package textconv

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF reads a PDF file and returns its plain text, pages concatenated
// in order.
func ExtractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %q: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d of %q: %w", i, path, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}
