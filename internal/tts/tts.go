// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tts streams synthesized speech for text chunks from the Edge
// neural TTS service via the edge-tts CLI.
package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Synthesizer is the contract for producing audio from text. Audio
// arrives as a sequence of byte fragments on the data channel, which is
// closed when the stream ends. At most one error is delivered on the
// error channel before it closes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (<-chan []byte, <-chan error)
}

// ErrServiceAuth marks authorization or connectivity failures from the
// speech service, which need user action rather than another retry.
var ErrServiceAuth = errors.New("speech service rejected the request")

const authGuidance = "the Edge TTS endpoint refused the connection; " +
	"upgrade edge-tts (pip install --upgrade edge-tts), check your " +
	"internet connection, or try again in a few minutes"

// ClassifyError wraps authorization-shaped failures (401, 403,
// Unauthorized) in ErrServiceAuth with remediation guidance. All other
// errors pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "Unauthorized") {
		return fmt.Errorf("%w (%s): %v", ErrServiceAuth, authGuidance, err)
	}
	return err
}
