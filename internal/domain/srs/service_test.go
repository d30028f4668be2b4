package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maximus-ms/enbot/internal/domain"
)

func newTestUserWord(t *testing.T) *domain.UserWord {
	t.Helper()
	userWord, err := domain.NewUserWord(uuid.New(), uuid.New(), 5)
	if err != nil {
		t.Fatalf("failed to create user word: %v", err)
	}
	return userWord
}

func TestNewDefaultService(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	if service == nil {
		t.Fatal("expected non-nil service")
	}

	impl, ok := service.(*defaultService)
	if !ok {
		t.Fatal("expected *defaultService type")
	}
	if len(impl.params.RepetitionIntervals) == 0 {
		t.Fatal("expected default params to be populated")
	}
}

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel() // Enable parallel execution

	params, err := NewParams(ParamsConfig{RepetitionIntervals: []int{2, 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service, err := NewServiceWithParams(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service == nil {
		t.Fatal("expected non-nil service")
	}

	_, err = NewServiceWithParams(Params{})
	if err == nil {
		t.Fatal("expected error for invalid params")
	}
}

func TestServiceAdvance(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	original := newTestUserWord(t)
	originalStage := original.ReviewStage

	updated, err := service.Advance(original, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !updated.Learned {
		t.Error("advanced word should be marked learned")
	}
	if updated.ReviewStage != originalStage+1 {
		t.Errorf("expected stage %d, got %d", originalStage+1, updated.ReviewStage)
	}
	if !updated.LastReviewedAt.Equal(now) {
		t.Errorf("expected LastReviewedAt %v, got %v", now, updated.LastReviewedAt)
	}

	// The next review is computed from the incremented stage, so the first
	// successful review schedules from the second ladder entry.
	expectedNext := now.AddDate(0, 0, DefaultRepetitionIntervals[1])
	if !updated.NextReviewAt.Equal(expectedNext) {
		t.Errorf("expected NextReviewAt %v, got %v", expectedNext, updated.NextReviewAt)
	}

	// The input must not be modified.
	if original.ReviewStage != originalStage {
		t.Error("input word stage was modified")
	}
	if original.Learned {
		t.Error("input word learned flag was modified")
	}
}

func TestServiceAdvanceClampsAtLadderEnd(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	userWord := newTestUserWord(t)
	userWord.ReviewStage = len(DefaultRepetitionIntervals) + 3

	updated, err := service.Advance(userWord, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := DefaultRepetitionIntervals[len(DefaultRepetitionIntervals)-1]
	expectedNext := now.AddDate(0, 0, last)
	if !updated.NextReviewAt.Equal(expectedNext) {
		t.Errorf("expected NextReviewAt clamped to %v, got %v", expectedNext, updated.NextReviewAt)
	}
	if updated.ReviewStage != userWord.ReviewStage+1 {
		t.Errorf("stage should keep growing past the ladder end, got %d", updated.ReviewStage)
	}
}

func TestServiceAdvanceNilWord(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()

	if _, err := service.Advance(nil, time.Now().UTC()); err == nil {
		t.Fatal("expected error for nil word")
	}
}

func TestServiceReset(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	userWord := newTestUserWord(t)
	userWord.Learned = true
	userWord.ReviewStage = 4
	userWord.NextReviewAt = now.AddDate(0, 0, 30)

	updated, err := service.Reset(userWord, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.ReviewStage != 0 {
		t.Errorf("expected stage 0, got %d", updated.ReviewStage)
	}
	if updated.Learned {
		t.Error("reset word should return to the unlearned pool")
	}

	expectedNext := now.AddDate(0, 0, DefaultRepetitionIntervals[0])
	if !updated.NextReviewAt.Equal(expectedNext) {
		t.Errorf("expected NextReviewAt %v, got %v", expectedNext, updated.NextReviewAt)
	}

	// The input must not be modified.
	if userWord.ReviewStage != 4 {
		t.Error("input word stage was modified")
	}
}

func TestServiceResetNilWord(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()

	if _, err := service.Reset(nil, time.Now().UTC()); err == nil {
		t.Fatal("expected error for nil word")
	}
}

func TestServiceNextReview(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for stage, days := range DefaultRepetitionIntervals {
		expected := now.AddDate(0, 0, days)
		if got := service.NextReview(stage, now); !got.Equal(expected) {
			t.Errorf("stage %d: expected %v, got %v", stage, expected, got)
		}
	}
}

func TestServiceSameLearningDay(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params, err := NewParams(ParamsConfig{DayStartHour: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service, err := NewServiceWithParams(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	morning := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	lateNight := time.Date(2024, 3, 11, 3, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, 3, 11, 4, 30, 0, 0, time.UTC)

	if !service.SameLearningDay(morning, lateNight) {
		t.Error("3:30 should belong to the previous learning day when the day starts at 4")
	}
	if service.SameLearningDay(morning, nextDay) {
		t.Error("4:30 next day should start a new learning day")
	}
}
