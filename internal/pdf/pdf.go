// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf extracts readable text from PDF files with pluggable
// backends. The native backend parses the PDF in-process; the pdftotext
// backend shells out to the poppler CLI.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kc9wwh/textwave/pkg/types"
)

// Extractor pulls the full text out of a PDF. Different backends
// (native parser, pdftotext) implement this interface.
type Extractor interface {
	// Extract reads the PDF at path and returns the cleaned full text
	// and the page count.
	Extract(path string) (text string, pages int, err error)
}

// New returns the extractor for the configured backend.
func New(backend types.PDFBackend) (Extractor, error) {
	switch backend {
	case types.BackendNative:
		return &NativeExtractor{}, nil
	case types.BackendPdftotext:
		return NewPdftotextExtractor("pdftotext"), nil
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", backend)
	}
}

// pageNumberLine matches lines that contain nothing but a page number,
// optionally prefixed with "page". These are layout artifacts that read
// terribly aloud.
var pageNumberLine = regexp.MustCompile(`(?i)^\s*(page\s*)?\d+\s*$`)

// CleanPage normalizes one page of raw extracted text: page-number-only
// lines are dropped and the remaining lines are joined with single
// spaces.
func CleanPage(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if pageNumberLine.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

// joinPages concatenates cleaned page texts with a trailing space per
// page so sentences never fuse across page breaks.
func joinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteByte(' ')
	}
	return b.String()
}
