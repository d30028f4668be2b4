package training

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/service/learning"
)

// sessionWord is one word's live state inside a session.
type sessionWord struct {
	entry    *learning.CycleEntry
	examples []*domain.WordExample
	progress *WordProgress

	// elapsed accumulates the minutes spent on this word in this session;
	// it is handed to the learning service when the word completes.
	elapsed float64

	// shownAt is when the word's current prompt was presented.
	shownAt time.Time
}

// session is one user's in-memory training state.
type session struct {
	// mu guards everything below. The registry lock is never held while
	// acquiring it, so lock ordering is always session then registry.
	mu sync.Mutex

	userID  uuid.UUID
	cycleID uuid.UUID

	// words still in play, keyed by user word ID.
	words map[uuid.UUID]*sessionWord

	// current is the user word with an outstanding prompt, uuid.Nil when
	// none is outstanding. currentExample pins the example sentence a
	// translation prompt asked about, so grading uses the same one.
	current        uuid.UUID
	currentMethod  string
	currentExample *domain.WordExample

	prevWordID uuid.UUID
	prevMethod string

	lastActivity time.Time
}

// newSession builds a session from the cycle's unlearned words, restoring
// persisted progress where present and starting fresh elsewhere.
func newSession(
	userID uuid.UUID,
	cycle *domain.LearningCycle,
	entries []*learning.CycleEntry,
	examplesByWord map[uuid.UUID][]*domain.WordExample,
	now time.Time,
) *session {
	words := make(map[uuid.UUID]*sessionWord, len(entries))
	for _, entry := range entries {
		examples := examplesByWord[entry.Word.ID]

		var progress *WordProgress
		if len(entry.CycleWord.Progress) > 0 {
			if restored, err := RestoreWordProgress(entry.CycleWord.Progress); err == nil {
				progress = restored
			}
		}
		if progress == nil {
			progress = NewWordProgress(requiredMethods(entry.Word, examples))
		}

		words[entry.UserWord.ID] = &sessionWord{
			entry:    entry,
			examples: examples,
			progress: progress,
		}
	}

	return &session{
		userID:       userID,
		cycleID:      cycle.ID,
		words:        words,
		lastActivity: now,
	}
}

// pickWord chooses the next word at random, avoiding an immediate repeat
// of the previous word while more than one remains.
func (s *session) pickWord() *sessionWord {
	if len(s.words) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(s.words))
	for id := range s.words {
		if len(s.words) > 1 && id == s.prevWordID {
			continue
		}
		ids = append(ids, id)
	}
	return s.words[ids[rand.Intn(len(ids))]]
}

// currentWord returns the word with the outstanding prompt, or nil.
func (s *session) currentWord() *sessionWord {
	if s.current == uuid.Nil {
		return nil
	}
	return s.words[s.current]
}

// clearCurrent marks the outstanding prompt as consumed.
func (s *session) clearCurrent() {
	s.current = uuid.Nil
	s.currentMethod = ""
	s.currentExample = nil
}

// remove drops a word from the session, clearing the outstanding prompt if
// it pointed at the word.
func (s *session) remove(userWordID uuid.UUID) {
	delete(s.words, userWordID)
	if s.current == userWordID {
		s.current = uuid.Nil
		s.currentMethod = ""
		s.currentExample = nil
	}
}
