package generation

import (
	"context"
	"fmt"
	"strings"
)

// ExampleContent is a generated example sentence with its translation into
// the learner's native language.
type ExampleContent struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

// WordContent is the generated enrichment for a single vocabulary word.
// The task layer applies it to the stored word and its examples.
type WordContent struct {
	Translation   string           `json:"translation"`
	Transcription string           `json:"transcription"`
	Examples      []ExampleContent `json:"examples"`
}

// Validate checks that the generated content is usable. A translation is
// required; transcription and examples are optional, but any example that is
// present must carry a sentence.
func (c *WordContent) Validate() error {
	if strings.TrimSpace(c.Translation) == "" {
		return fmt.Errorf("%w: missing translation", ErrInvalidResponse)
	}
	for i, ex := range c.Examples {
		if strings.TrimSpace(ex.Sentence) == "" {
			return fmt.Errorf("%w: example %d has no sentence", ErrInvalidResponse, i)
		}
	}
	return nil
}

// Generator is implemented by services that produce enrichment content for a
// vocabulary word. It is the seam between the task layer and the LLM client.
type Generator interface {
	// GenerateWordContent produces translation, transcription and example
	// sentences for the given word. The language arguments are BCP 47 style
	// codes ("en", "uk") naming the language being learned and the learner's
	// native language.
	//
	// Returns an error from errors.go when generation fails; callers use the
	// error type to decide whether a retry is worthwhile.
	GenerateWordContent(ctx context.Context, word, targetLanguage, nativeLanguage string) (*WordContent, error)
}
