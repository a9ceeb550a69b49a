// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// readSize is the fragment size for streaming reads from the child
// process.
const readSize = 32 * 1024

// EdgeSynth synthesizes speech by running the edge-tts CLI and
// streaming the MP3 bytes it writes to stdout. Context cancellation
// kills the child process.
type EdgeSynth struct {
	bin string
}

// NewEdgeSynth creates a synthesizer using the given edge-tts binary
// name or path.
func NewEdgeSynth(bin string) *EdgeSynth {
	if bin == "" {
		bin = "edge-tts"
	}
	return &EdgeSynth{bin: bin}
}

// Synthesize starts edge-tts for one chunk of text and streams its
// output. Errors from the process carry the tail of stderr and are
// classified before delivery.
func (e *EdgeSynth) Synthesize(ctx context.Context, text, voice string) (<-chan []byte, <-chan error) {
	data := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(data)
		defer close(errs)

		args := []string{"--text", text, "--voice", voice, "--write-media", "/dev/stdout"}
		cmd := exec.CommandContext(ctx, e.bin, args...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			errs <- fmt.Errorf("attaching to %s: %w", e.bin, err)
			return
		}
		if err := cmd.Start(); err != nil {
			errs <- fmt.Errorf("starting %s: %w", e.bin, err)
			return
		}

		buf := make([]byte, readSize)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 {
				fragment := make([]byte, n)
				copy(fragment, buf[:n])
				select {
				case data <- fragment:
				case <-ctx.Done():
					cmd.Process.Kill()
					cmd.Wait()
					errs <- ctx.Err()
					return
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				cmd.Wait()
				errs <- fmt.Errorf("reading %s output: %w", e.bin, readErr)
				return
			}
		}

		if err := cmd.Wait(); err != nil {
			detail := strings.TrimSpace(stderr.String())
			if detail != "" {
				err = fmt.Errorf("%s: %w: %s", e.bin, err, tail(detail))
			} else {
				err = fmt.Errorf("%s: %w", e.bin, err)
			}
			errs <- ClassifyError(err)
		}
	}()

	return data, errs
}

// tail trims multi-line stderr down to its last line, which is where
// edge-tts puts the actual failure.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
