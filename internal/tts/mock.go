// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tts

import (
	"context"
	"sync/atomic"
)

// MockSynth is a scriptable Synthesizer for tests. Each call delivers
// Fragments unless the call is scripted to fail.
type MockSynth struct {
	// Fragments are the audio bytes delivered on success.
	Fragments [][]byte

	// FailFirst makes the first N calls fail with Err before any
	// fragment is delivered. Negative means fail forever.
	FailFirst int

	// Err is the failure returned by failing calls.
	Err error

	calls atomic.Int32
}

// Calls reports how many times Synthesize was invoked.
func (m *MockSynth) Calls() int {
	return int(m.calls.Load())
}

// Synthesize delivers the scripted fragments or failure.
func (m *MockSynth) Synthesize(ctx context.Context, text, voice string) (<-chan []byte, <-chan error) {
	call := int(m.calls.Add(1))
	data := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(data)
		defer close(errs)

		if m.FailFirst < 0 || call <= m.FailFirst {
			errs <- m.Err
			return
		}

		for _, f := range m.Fragments {
			select {
			case data <- f:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return data, errs
}
