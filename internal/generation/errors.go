package generation

import "errors"

// Sentinel errors generators return. Callers classify failures with
// errors.Is; only ErrTransientFailure is worth retrying.
var (
	// ErrGenerationFailed covers enrichment failures with no more specific cause.
	ErrGenerationFailed = errors.New("failed to generate word content")

	// ErrInvalidResponse means the model answered but the payload could not
	// be parsed into translation, transcription, and examples.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked means the model refused the word on safety grounds.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure marks timeouts, rate limits, and other failures
	// that may succeed on retry.
	ErrTransientFailure = errors.New("transient error during word content generation")

	// ErrInvalidConfig reports an unusable generator configuration.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
