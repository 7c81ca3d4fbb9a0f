package types

import "errors"

var (
	// ErrSourceUnavailable is returned when change data cannot be retrieved
	// (no history, bad revision, unreachable remote). Fatal to the run.
	ErrSourceUnavailable = errors.New("change source unavailable")

	// ErrInvalidInput is returned for a change record the engine cannot classify.
	ErrInvalidInput = errors.New("invalid change record")

	// ErrPublishFailure is returned when the documentation backend rejects or
	// cannot be reached. Fatal to the run.
	ErrPublishFailure = errors.New("publish failed")
)
