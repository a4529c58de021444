package transcriber

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnintelligible means the speech service produced no usable
	// transcript from the audio.
	ErrUnintelligible = errors.New("speech not recognized")
	// ErrServiceUnavailable covers transport failures, timeouts, and
	// provider-side errors. Callers decide whether to retry the capture.
	ErrServiceUnavailable = errors.New("speech-to-text service unavailable")
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}
