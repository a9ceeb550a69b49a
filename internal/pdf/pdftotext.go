// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// executor abstracts command execution for testing.
type executor interface {
	RunPiped(name string, args []string, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) RunPiped(name string, args []string, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return err
	}
	return nil
}

// PdftotextExtractor shells out to the poppler pdftotext CLI, writing
// the text to stdout. Pages arrive separated by form feeds.
type PdftotextExtractor struct {
	bin  string
	exec executor
}

// NewPdftotextExtractor creates an extractor using the given pdftotext
// binary name or path.
func NewPdftotextExtractor(bin string) *PdftotextExtractor {
	return &PdftotextExtractor{bin: bin, exec: &osExecutor{}}
}

// Extract runs pdftotext and cleans each form-feed-separated page.
func (p *PdftotextExtractor) Extract(path string) (string, int, error) {
	var out bytes.Buffer
	args := []string{"-enc", "UTF-8", path, "-"}
	if err := p.exec.RunPiped(p.bin, args, &out); err != nil {
		return "", 0, fmt.Errorf("running %s on %s: %w", p.bin, path, err)
	}

	rawPages := strings.Split(out.String(), "\f")
	pages := make([]string, 0, len(rawPages))
	count := 0
	for _, raw := range rawPages {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		count++
		pages = append(pages, CleanPage(raw))
	}

	text := joinPages(pages)
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("no extractable text in %s", path)
	}
	return text, count, nil
}
