package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrInvalidConfig is returned when the transcriber cannot be constructed.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrEmptyAudio is returned when the WAV payload is empty.
	ErrEmptyAudio = errors.New("audio payload cannot be empty")

	// ErrAudioTooLarge is returned when the payload exceeds the inline size limit.
	ErrAudioTooLarge = errors.New("audio payload exceeds the inline size limit")

	// ErrContentBlocked is returned when Gemini refuses the request on safety grounds.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrInvalidResponse is returned when the response carries no usable candidate.
	ErrInvalidResponse = errors.New("invalid response from gemini")

	// ErrTransientFailure wraps API errors that are worth retrying.
	ErrTransientFailure = errors.New("transient gemini failure")
)
