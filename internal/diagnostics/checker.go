// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diagnostics verifies the external tools and directories a
// conversion needs before any work starts.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/kc9wwh/textwave/pkg/types"
)

// Status classifies a single check result.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is the outcome of one environment check.
type Check struct {
	Name    string
	Status  Status
	Message string
	Hint    string
}

// Report collects all check outcomes for one run.
type Report struct {
	Checks []Check
}

// HasFailures reports whether any check failed outright. Warnings do
// not count.
func (r Report) HasFailures() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// Checker validates external tools and the temp directory.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}

// Run executes all checks against the given configuration. edge-tts and
// ffmpeg are required; pdftotext is optional since the native extractor
// covers most documents.
func (c *Checker) Run(cfg types.PipelineConfig) Report {
	return Report{Checks: []Check{
		c.checkTool(cfg.TTS.BinaryPath, "edge-tts",
			"Install it with: pip install edge-tts"),
		c.checkTool(cfg.Audio.FFmpegPath, "ffmpeg",
			"Install ffmpeg and ensure the binary is on PATH."),
		c.checkOptionalTool("pdftotext",
			"Only needed with --backend pdftotext; install poppler-utils to use it."),
		c.checkTempBase(cfg.Conversion.TempDir),
	}}
}

func (c *Checker) checkTool(bin, name, hint string) Check {
	if bin == "" {
		bin = name
	}
	path, err := c.lookPath(bin)
	if err != nil {
		return Check{
			Name:    name,
			Status:  StatusFail,
			Message: fmt.Sprintf("not found in PATH: %s", bin),
			Hint:    hint,
		}
	}
	return Check{Name: name, Status: StatusPass, Message: "found at " + path}
}

func (c *Checker) checkOptionalTool(name, hint string) Check {
	path, err := c.lookPath(name)
	if err != nil {
		return Check{
			Name:    name,
			Status:  StatusWarn,
			Message: fmt.Sprintf("not found in PATH: %s", name),
			Hint:    hint,
		}
	}
	return Check{Name: name, Status: StatusPass, Message: "found at " + path}
}

func (c *Checker) checkTempBase(base string) Check {
	if base == "" {
		base = os.TempDir()
	}
	name := "temp directory"

	if err := c.mkdirAll(base, 0o755); err != nil {
		return Check{
			Name:    name,
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot create %s", base),
			Hint:    "Choose a writable location with --temp-dir.",
		}
	}

	f, err := c.createTemp(base, ".write-check-*")
	if err != nil {
		return Check{
			Name:    name,
			Status:  StatusFail,
			Message: fmt.Sprintf("not writable: %s", base),
			Hint:    "Chunk audio is staged here; choose a writable location with --temp-dir.",
		}
	}
	path := f.Name()
	_ = f.Close()
	_ = c.remove(path)

	return Check{Name: name, Status: StatusPass, Message: "writable: " + base}
}

// Write renders the report as aligned status lines.
func (r Report) Write(w io.Writer) {
	for _, c := range r.Checks {
		fmt.Fprintf(w, "%-4s %-15s %s\n", string(c.Status), c.Name, c.Message)
		if c.Hint != "" && c.Status != StatusPass {
			fmt.Fprintf(w, "     %s\n", c.Hint)
		}
	}
}

// IsNotExist reports whether the error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
