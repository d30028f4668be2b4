package gemini

import "errors"

// ErrEmptyWordText is returned when enrichment is requested for a word
// with no text.
var ErrEmptyWordText = errors.New("word text cannot be empty")
