package domain

import "errors"

var (
	// ErrServiceUnavailable covers network, auth and timeout failures of an external service.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUnparseableResponse means a service answered with text that does not match the requested format.
	ErrUnparseableResponse = errors.New("unparseable response")

	// ErrEmptyInput is returned when a required field or recording is missing.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnusableAudio means the speech-to-text service refused the clip itself.
	ErrUnusableAudio = errors.New("recording not usable")

	ErrInvalidState = errors.New("invalid session state")

	// ErrLogWrite marks a failure on the results file. It is never recoverable.
	ErrLogWrite = errors.New("result log write failed")
)
