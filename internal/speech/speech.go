package speech

import "context"

// Synthesizer turns reply text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns visitor audio into text. The result feeds the
// same query pipeline as typed input.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
