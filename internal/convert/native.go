// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeConverter extracts the embedded text layer with a pure-Go parser.
// Scanned image-only PDFs carry no text layer and fail conversion here;
// OCR is out of scope (R2.3).
type NativeConverter struct{}

// Convert reads the text layer of every page, skipping pages that cannot
// be decoded, and joins the pages with blank lines.
func (NativeConverter) Convert(pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	fonts := make(map[string]*pdf.Font)
	var pages []string

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}

		text, pageErr := p.GetPlainText(fonts)
		if pageErr != nil {
			// A single undecodable page loses that page, not the document.
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("no text layer extracted from %s", pdfPath)
	}
	return strings.Join(pages, "\n\n") + "\n", nil
}
