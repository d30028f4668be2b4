package training

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/platform/metrics"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the training Service interface. Sessions live in
// memory only; their durable residue is the progress JSON on cycle words,
// which lets a restarted server resume mid-cycle.
type serviceImpl struct {
	cycleService CycleService
	wordPool     WordPool
	examples     ExampleSource
	wordRemover  WordRemover
	idleTimeout  time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewService creates a new training Service implementation.
func NewService(
	cycleService CycleService,
	wordPool WordPool,
	examples ExampleSource,
	wordRemover WordRemover,
	idleTimeout time.Duration,
	logger *slog.Logger,
) Service {
	if cycleService == nil {
		panic("cycleService cannot be nil")
	}
	if wordPool == nil {
		panic("wordPool cannot be nil")
	}
	if examples == nil {
		panic("examples cannot be nil")
	}
	if wordRemover == nil {
		panic("wordRemover cannot be nil")
	}
	if idleTimeout <= 0 {
		idleTimeout = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		cycleService: cycleService,
		wordPool:     wordPool,
		examples:     examples,
		wordRemover:  wordRemover,
		idleTimeout:  idleTimeout,
		logger:       logger.With(slog.String("component", "training_service")),
		sessions:     make(map[uuid.UUID]*session),
	}
}

// NextWord implements Service.NextWord.
func (s *serviceImpl) NextWord(ctx context.Context, userID uuid.UUID) (*Prompt, error) {
	for {
		sess, err := s.getOrBuildSession(ctx, userID)
		if err != nil {
			return nil, wrapError("next_word", err)
		}

		sess.mu.Lock()
		sess.lastActivity = time.Now().UTC()

		// An unanswered prompt is re-served rather than burning a new
		// word, so a reconnecting client sees the same question.
		if current := sess.currentWord(); current != nil {
			prompt, err := s.buildPrompt(ctx, sess, current, sess.currentMethod, attachments{})
			sess.mu.Unlock()
			if err != nil {
				return nil, wrapError("next_word", err)
			}
			return prompt, nil
		}

		prompt, drained, err := s.promptForNext(ctx, sess)
		sess.mu.Unlock()
		if err != nil {
			return nil, wrapError("next_word", err)
		}
		if drained {
			// The session emptied without a prompt (e.g. every restored
			// word was already complete); the cycle is closed, try the
			// next one.
			continue
		}
		return prompt, nil
	}
}

// Respond implements Service.Respond.
func (s *serviceImpl) Respond(ctx context.Context, userID uuid.UUID, response Response) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess := s.lookupSession(userID)
	if sess == nil {
		return nil, ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	now := time.Now().UTC()
	sess.lastActivity = now

	current := sess.currentWord()
	if current == nil {
		// Nothing outstanding; just produce the next prompt.
		result := &Result{}
		if err := s.advance(ctx, sess, result); err != nil {
			return nil, wrapError("respond", err)
		}
		return result, nil
	}

	var elapsed float64
	if !current.shownAt.IsZero() {
		elapsed = now.Sub(current.shownAt).Minutes()
	}

	method := sess.currentMethod
	result := &Result{}
	repeat := attachments{}

	switch response.Action {
	case ActionAnswerYes:
		current.progress.RecordAttempt(method, true, now)
		current.elapsed += elapsed
		result.Evaluated = true
		result.Correct = true
		metrics.RecordTrainingAnswer(method, true)

	case ActionAnswerNo:
		current.progress.RecordAttempt(method, false, now)
		current.elapsed += elapsed
		result.Evaluated = true
		result.CorrectAnswer = s.revealAnswer(sess, current, method)
		metrics.RecordTrainingAnswer(method, false)

	case ActionAnswer:
		correct, reveal, err := gradeAnswer(method, current, sess.currentExample, response.Answer)
		if err != nil {
			return nil, err
		}
		current.progress.RecordAttempt(method, correct, now)
		current.elapsed += elapsed
		result.Evaluated = true
		result.Correct = correct
		if !correct {
			result.CorrectAnswer = reveal
		}
		metrics.RecordTrainingAnswer(method, correct)

	case ActionMarkLearned:
		current.progress.CompleteAll(now)
		current.elapsed += elapsed

	case ActionSkip:
		current.elapsed += elapsed

	case ActionDelete:
		if err := s.wordRemover.DeleteWord(ctx, userID, current.entry.Word.ID); err != nil {
			return nil, wrapError("respond", err)
		}
		log.Info("word deleted during training",
			slog.String("user_id", userID.String()),
			slog.String("word_id", current.entry.Word.ID.String()))
		sess.remove(current.entry.UserWord.ID)
		result.WordDeleted = true
		if err := s.advance(ctx, sess, result); err != nil {
			return nil, wrapError("respond", err)
		}
		return result, nil

	case ActionPronounce:
		// Help costs a failed attempt, but is not a graded answer.
		current.progress.RecordAttempt(method, false, now)
		current.elapsed += elapsed
		repeat.pronounce = true

	case ActionShowExamples:
		current.progress.RecordAttempt(method, false, now)
		current.elapsed += elapsed
		repeat.examples = true

	default:
		return nil, ErrUnknownAction
	}

	if err := s.saveProgress(ctx, current); err != nil {
		return nil, wrapError("respond", err)
	}

	// Asking for help repeats the same word with the extra content.
	if repeat.pronounce || repeat.examples {
		prompt, err := s.buildPrompt(ctx, sess, current, method, repeat)
		if err != nil {
			return nil, wrapError("respond", err)
		}
		current.shownAt = now
		result.Next = prompt
		return result, nil
	}

	if current.progress.Complete() {
		userWordID := current.entry.UserWord.ID
		if err := s.cycleService.MarkWordLearned(
			ctx, userID, sess.cycleID, userWordID, current.elapsed,
		); err != nil {
			return nil, wrapError("respond", err)
		}
		sess.remove(userWordID)
		result.WordLearned = true
	}

	sess.prevWordID = current.entry.UserWord.ID
	sess.prevMethod = method
	sess.clearCurrent()

	if err := s.advance(ctx, sess, result); err != nil {
		return nil, wrapError("respond", err)
	}
	return result, nil
}

// advance fills result with the next prompt, or completes the cycle when
// the session has drained. Caller holds the session lock.
func (s *serviceImpl) advance(ctx context.Context, sess *session, result *Result) error {
	prompt, drained, err := s.promptForNext(ctx, sess)
	if err != nil {
		return err
	}
	if drained {
		result.CycleCompleted = true
		return nil
	}
	result.Next = prompt
	return nil
}

// promptForNext picks the next word and method and builds its prompt. The
// boolean return reports that the session drained and its cycle was
// completed. Caller holds the session lock.
func (s *serviceImpl) promptForNext(ctx context.Context, sess *session) (*Prompt, bool, error) {
	now := time.Now().UTC()

	for {
		word := sess.pickWord()
		if word == nil {
			if err := s.completeAndDrop(ctx, sess); err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}

		method := word.progress.NextMethod(len(sess.words) == 1, sess.prevMethod)
		if method == "" {
			// Restored progress was already complete; finish the word
			// and pick another.
			userWordID := word.entry.UserWord.ID
			if err := s.cycleService.MarkWordLearned(
				ctx, sess.userID, sess.cycleID, userWordID, word.elapsed,
			); err != nil {
				return nil, false, err
			}
			sess.remove(userWordID)
			continue
		}

		prompt, err := s.buildPrompt(ctx, sess, word, method, attachments{})
		if err != nil {
			return nil, false, err
		}

		sess.current = word.entry.UserWord.ID
		sess.currentMethod = method
		word.progress.CurrentMethod = method
		word.shownAt = now
		if err := s.saveProgress(ctx, word); err != nil {
			return nil, false, err
		}
		return prompt, false, nil
	}
}

// saveProgress persists a word's training state onto its cycle word.
func (s *serviceImpl) saveProgress(ctx context.Context, word *sessionWord) error {
	raw, err := word.progress.Marshal()
	if err != nil {
		return err
	}
	return s.cycleService.SaveProgress(ctx, word.entry.CycleWord.ID, raw)
}

// completeAndDrop closes the session's cycle and forgets the session.
// Caller holds the session lock.
func (s *serviceImpl) completeAndDrop(ctx context.Context, sess *session) error {
	err := s.cycleService.CompleteCycle(ctx, sess.userID, sess.cycleID)
	if err != nil && !errors.Is(err, domain.ErrCycleAlreadyCompleted) {
		return err
	}
	s.dropSession(sess.userID)
	return nil
}

// lookupSession returns the user's live session, if any.
func (s *serviceImpl) lookupSession(userID uuid.UUID) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// getOrBuildSession returns the user's session, building one from the
// active cycle when none is live.
func (s *serviceImpl) getOrBuildSession(ctx context.Context, userID uuid.UUID) (*session, error) {
	if sess := s.lookupSession(userID); sess != nil {
		return sess, nil
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	cycle, entries, err := s.cycleService.WordsForCycle(ctx, userID)
	if err != nil {
		return nil, err
	}

	examplesByWord := make(map[uuid.UUID][]*domain.WordExample, len(entries))
	for _, entry := range entries {
		examples, err := s.examples.GetExamples(ctx, entry.Word.ID)
		if err != nil {
			// A word without examples is still trainable; log and move on.
			log.Warn("failed to load word examples",
				slog.String("error", err.Error()),
				slog.String("word_id", entry.Word.ID.String()))
			continue
		}
		examplesByWord[entry.Word.ID] = examples
	}

	sess := newSession(userID, cycle, entries, examplesByWord, time.Now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[userID]; ok {
		// Lost a race with a concurrent build; use the winner.
		return existing, nil
	}
	s.sessions[userID] = sess
	metrics.ActiveSessions.Inc()

	log.Debug("training session built",
		slog.String("user_id", userID.String()),
		slog.String("cycle_id", cycle.ID.String()),
		slog.Int("words", len(sess.words)))
	return sess, nil
}

// dropSession removes the user's session from the registry.
func (s *serviceImpl) dropSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; ok {
		delete(s.sessions, userID)
		metrics.ActiveSessions.Dec()
	}
}

// EvictIdleSessions implements Service.EvictIdleSessions. An evicted
// session's stored progress is cleared: the cycle keeps its words, but a
// returning user starts their method progress over.
func (s *serviceImpl) EvictIdleSessions(ctx context.Context) int {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	s.mu.Lock()
	candidates := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.Unlock()

	evicted := 0
	for _, sess := range candidates {
		sess.mu.Lock()
		idle := now.Sub(sess.lastActivity) >= s.idleTimeout
		sess.mu.Unlock()
		if !idle {
			continue
		}

		s.dropSession(sess.userID)
		if err := s.cycleService.ClearProgress(ctx, sess.cycleID); err != nil {
			log.Error("failed to clear progress of evicted session",
				slog.String("error", err.Error()),
				slog.String("cycle_id", sess.cycleID.String()))
		}
		log.Info("evicted idle training session",
			slog.String("user_id", sess.userID.String()),
			slog.String("cycle_id", sess.cycleID.String()))
		evicted++
	}
	return evicted
}

// revealAnswer returns what should have been answered for the method.
func (s *serviceImpl) revealAnswer(sess *session, word *sessionWord, method string) string {
	switch method {
	case MethodMultipleChoiceTarget, MethodSpelling:
		return word.entry.Word.Text
	case MethodTranslation:
		if sess.currentExample != nil {
			return sess.currentExample.Translation
		}
		return word.entry.Word.Translation
	default:
		return word.entry.Word.Translation
	}
}

// gradeAnswer grades a free-text answer for the method. The second return
// is the expected answer, revealed to the user on failure.
func gradeAnswer(
	method string,
	word *sessionWord,
	example *domain.WordExample,
	answer string,
) (bool, string, error) {
	answer = strings.TrimSpace(answer)

	switch method {
	case MethodSpelling:
		return strings.EqualFold(answer, word.entry.Word.Text), word.entry.Word.Text, nil

	case MethodTranslation:
		if example == nil {
			return false, word.entry.Word.Translation, nil
		}
		correct := answer != "" && strings.Contains(
			strings.ToLower(example.Translation),
			strings.ToLower(answer),
		)
		return correct, example.Translation, nil

	case MethodMultipleChoiceNative:
		return strings.EqualFold(answer, word.entry.Word.Translation), word.entry.Word.Translation, nil

	case MethodMultipleChoiceTarget:
		return strings.EqualFold(answer, word.entry.Word.Text), word.entry.Word.Text, nil

	default:
		return false, "", ErrUnexpectedAnswer
	}
}
