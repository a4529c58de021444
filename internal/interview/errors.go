package interview

import "errors"

var (
	ErrNoSkills            = errors.New("skill set is empty")
	ErrSessionNotFound     = errors.New("interview session not found")
	ErrSessionAlreadyEnded = errors.New("interview session already ended")
	ErrSessionNotFinished  = errors.New("interview session still in progress")
	// ErrCompletionFailed is the single reportable kind for all language-model
	// provider failures. Adapters wrap it with a diagnostic message.
	ErrCompletionFailed = errors.New("completion failed")
)
