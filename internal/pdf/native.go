// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeExtractor parses PDFs in-process with the ledongthuc/pdf reader.
// It needs no external binary, which keeps `textwave convert` working on
// machines without poppler installed.
type NativeExtractor struct{}

// Extract reads every page, cleans it, and joins the result.
func (n *NativeExtractor) Extract(path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)

	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		raw, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page is not fatal; the rest of the
			// document still converts.
			continue
		}
		pages = append(pages, CleanPage(raw))
	}

	text := joinPages(pages)
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("no extractable text in %s", path)
	}
	return text, total, nil
}
