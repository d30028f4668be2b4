// Package srs implements the spaced repetition scheduling algorithm that
// decides when a learned word should next be reviewed. Each word carries a
// review stage that indexes a ladder of repetition intervals; successful
// reviews climb the ladder, forgotten words fall back to the start.
package srs

import (
	"fmt"
	"time"

	"github.com/maximus-ms/enbot/internal/domain"
)

// Service defines the spaced repetition scheduling operations used by the
// learning workflow.
type Service interface {
	// NextReview returns when a word at the given review stage should next
	// be reviewed, counted from now.
	NextReview(stage int, now time.Time) time.Time

	// Advance records a successful review of the given word. The review
	// stage is incremented, the word is marked learned and the next review
	// is scheduled from the new stage. The input is not modified.
	Advance(userWord *domain.UserWord, now time.Time) (*domain.UserWord, error)

	// Reset sends a word back to the start of the review ladder after the
	// user reports having forgotten it. The word is unmarked as learned,
	// so cycle selection will pick it up as a new word again. The input
	// is not modified.
	Reset(userWord *domain.UserWord, now time.Time) (*domain.UserWord, error)

	// SameLearningDay reports whether a and b fall within the same
	// learning day. Days roll over at the configured day start hour rather
	// than at midnight.
	SameLearningDay(a, b time.Time) bool
}

// SameLearningDay reports whether a and b fall within the same learning day
// for the given day start hour. It is exposed at package level for callers
// that track a per-user day start hour instead of the service-wide one.
func SameLearningDay(a, b time.Time, dayStartHour int) bool {
	return sameLearningDay(a, b, dayStartHour)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params Params
}

// Verify interface compliance at compile time.
var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new SRS service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters.
func NewServiceWithParams(params Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid srs params: %w", err)
	}

	return &defaultService{params: params}, nil
}

func (s *defaultService) NextReview(stage int, now time.Time) time.Time {
	return nextReviewTime(s.params, stage, now)
}

func (s *defaultService) Advance(userWord *domain.UserWord, now time.Time) (*domain.UserWord, error) {
	if userWord == nil {
		return nil, fmt.Errorf("user word must not be nil")
	}

	// The stage is incremented before indexing the interval ladder, so the
	// first successful review schedules from the second ladder entry. The
	// first entry is reached again only through Reset.
	updated := *userWord
	updated.Learned = true
	updated.ReviewStage = userWord.ReviewStage + 1
	updated.LastReviewedAt = now
	updated.NextReviewAt = nextReviewTime(s.params, updated.ReviewStage, now)
	updated.UpdatedAt = now

	return &updated, nil
}

func (s *defaultService) Reset(userWord *domain.UserWord, now time.Time) (*domain.UserWord, error) {
	if userWord == nil {
		return nil, fmt.Errorf("user word must not be nil")
	}

	updated := *userWord
	updated.Learned = false
	updated.ReviewStage = 0
	updated.LastReviewedAt = now
	updated.NextReviewAt = nextReviewTime(s.params, 0, now)
	updated.UpdatedAt = now

	return &updated, nil
}

func (s *defaultService) SameLearningDay(a, b time.Time) bool {
	return sameLearningDay(a, b, s.params.DayStartHour)
}
