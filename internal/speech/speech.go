// Package speech adds an optional voice layer on top of the chat API:
// learner audio in, tutor audio out.
package speech

import "context"

// Transcriber converts learner audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Close() error
}

// Synthesizer converts tutor text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}
