package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Word-specific validation errors
var (
	// ErrEmptyWordID is returned when a word ID is empty or nil.
	ErrEmptyWordID = errors.New("word ID cannot be empty")

	// ErrEmptyWordText is returned when a word's text is empty.
	ErrEmptyWordText = errors.New("word text cannot be empty")

	// ErrEmptyLanguagePair is returned when a word's language pair is empty.
	ErrEmptyLanguagePair = errors.New("word language pair cannot be empty")

	// ErrEmptyExampleSentence is returned when an example's sentence is empty.
	ErrEmptyExampleSentence = errors.New("example sentence cannot be empty")
)

// LanguagePair builds the canonical pair key for a dictionary,
// "target-native", e.g. LanguagePair("en", "uk") == "en-uk".
func LanguagePair(target, native string) string {
	return target + "-" + native
}

// SplitLanguagePair is the inverse of LanguagePair. A pair without a
// separator is treated as target-only with an empty native language.
func SplitLanguagePair(pair string) (target, native string) {
	target, native, _ = strings.Cut(pair, "-")
	return target, native
}

// Word is a dictionary entry shared by every user learning the same
// language pair. Translation, transcription and examples may be filled
// in asynchronously after creation; until then the word is a
// placeholder and stays out of cycle selection.
type Word struct {
	ID                uuid.UUID `json:"id"`
	Text              string    `json:"text"`
	Translation       string    `json:"translation"`
	Transcription     string    `json:"transcription"`
	PronunciationFile string    `json:"pronunciation_file"`
	ImageFile         string    `json:"image_file"`
	LanguagePair      string    `json:"language_pair"` // e.g. "en-uk"
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewWord creates a new Word for the given text and language pair.
// Content fields start empty and are filled by enrichment.
// Returns an error if validation fails.
func NewWord(text, languagePair string) (*Word, error) {
	word := &Word{
		ID:           uuid.New(),
		Text:         text,
		LanguagePair: languagePair,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := word.Validate(); err != nil {
		return nil, err
	}

	return word, nil
}

// Validate checks if the Word has valid data.
// Returns an error if any field fails validation.
func (w *Word) Validate() error {
	if w.ID == uuid.Nil {
		return ErrEmptyWordID
	}

	if w.Text == "" {
		return ErrEmptyWordText
	}

	if w.LanguagePair == "" {
		return ErrEmptyLanguagePair
	}

	return nil
}

// Enriched reports whether the word's content has been generated.
// Placeholder words have no translation yet.
func (w *Word) Enriched() bool {
	return w.Translation != ""
}

// WordExample is a usage example attached to a word.
type WordExample struct {
	ID          uuid.UUID `json:"id"`
	WordID      uuid.UUID `json:"word_id"`
	Sentence    string    `json:"sentence"`
	Translation string    `json:"translation"`
	Good        bool      `json:"good"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewWordExample creates a new example sentence for a word.
// Returns an error if validation fails.
func NewWordExample(wordID uuid.UUID, sentence, translation string) (*WordExample, error) {
	example := &WordExample{
		ID:          uuid.New(),
		WordID:      wordID,
		Sentence:    sentence,
		Translation: translation,
		Good:        true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := example.Validate(); err != nil {
		return nil, err
	}

	return example, nil
}

// Validate checks if the WordExample has valid data.
func (e *WordExample) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyWordID
	}

	if e.WordID == uuid.Nil {
		return ErrEmptyWordID
	}

	if e.Sentence == "" {
		return ErrEmptyExampleSentence
	}

	return nil
}
