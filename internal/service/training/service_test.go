package training

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/service/learning"
)

// fakeCycleService is an in-memory CycleService. Completing its cycle makes
// WordsForCycle report no active cycle, mirroring the real service.
type fakeCycleService struct {
	mu        sync.Mutex
	cycle     *domain.LearningCycle
	entries   []*learning.CycleEntry
	wordsErr  error
	learned   []uuid.UUID
	timeSpent map[uuid.UUID]float64
	completed []uuid.UUID
	saved     map[uuid.UUID]json.RawMessage
	cleared   []uuid.UUID
}

func newFakeCycleService(cycle *domain.LearningCycle, entries ...*learning.CycleEntry) *fakeCycleService {
	return &fakeCycleService{
		cycle:     cycle,
		entries:   entries,
		timeSpent: make(map[uuid.UUID]float64),
		saved:     make(map[uuid.UUID]json.RawMessage),
	}
}

func (f *fakeCycleService) WordsForCycle(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.LearningCycle, []*learning.CycleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.wordsErr != nil {
		return nil, nil, f.wordsErr
	}
	for _, id := range f.completed {
		if id == f.cycle.ID {
			return nil, nil, learning.ErrNoActiveCycle
		}
	}

	remaining := make([]*learning.CycleEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		if !f.isLearned(entry.UserWord.ID) {
			remaining = append(remaining, entry)
		}
	}
	return f.cycle, remaining, nil
}

func (f *fakeCycleService) isLearned(userWordID uuid.UUID) bool {
	for _, id := range f.learned {
		if id == userWordID {
			return true
		}
	}
	return false
}

func (f *fakeCycleService) MarkWordLearned(
	ctx context.Context,
	userID, cycleID, userWordID uuid.UUID,
	timeSpent float64,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.learned = append(f.learned, userWordID)
	f.timeSpent[userWordID] = timeSpent
	return nil
}

func (f *fakeCycleService) CompleteCycle(ctx context.Context, userID, cycleID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, cycleID)
	return nil
}

func (f *fakeCycleService) SaveProgress(
	ctx context.Context,
	cycleWordID uuid.UUID,
	progress json.RawMessage,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[cycleWordID] = progress
	return nil
}

func (f *fakeCycleService) ClearProgress(ctx context.Context, cycleID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, cycleID)
	return nil
}

type fakeWordPool struct {
	words []*domain.Word
}

func (f *fakeWordPool) GetRandomWords(
	ctx context.Context,
	userID uuid.UUID,
	count int,
	excludeWordID uuid.UUID,
) ([]*domain.Word, error) {
	picked := make([]*domain.Word, 0, count)
	for _, w := range f.words {
		if w.ID == excludeWordID || len(picked) == count {
			continue
		}
		picked = append(picked, w)
	}
	return picked, nil
}

type fakeExampleSource struct {
	examples map[uuid.UUID][]*domain.WordExample
}

func (f *fakeExampleSource) GetExamples(
	ctx context.Context,
	wordID uuid.UUID,
) ([]*domain.WordExample, error) {
	return f.examples[wordID], nil
}

type fakeWordRemover struct {
	mu      sync.Mutex
	deleted []uuid.UUID
}

func (f *fakeWordRemover) DeleteWord(ctx context.Context, userID, wordID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, wordID)
	return nil
}

type serviceFixture struct {
	svc      Service
	cycles   *fakeCycleService
	pool     *fakeWordPool
	examples *fakeExampleSource
	remover  *fakeWordRemover
}

func newFixture(cycles *fakeCycleService) *serviceFixture {
	return newFixtureWithTimeout(cycles, time.Hour)
}

func newFixtureWithTimeout(cycles *fakeCycleService, idleTimeout time.Duration) *serviceFixture {
	pool := &fakeWordPool{}
	examples := &fakeExampleSource{examples: make(map[uuid.UUID][]*domain.WordExample)}
	remover := &fakeWordRemover{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &serviceFixture{
		svc:      NewService(cycles, pool, examples, remover, idleTimeout, logger),
		cycles:   cycles,
		pool:     pool,
		examples: examples,
		remover:  remover,
	}
}

// entryWithMethods builds a cycle entry whose persisted progress requires
// exactly the given methods, making method selection deterministic.
func entryWithMethods(userID, cycleID uuid.UUID, text, translation string, methods ...string) *learning.CycleEntry {
	word := &domain.Word{
		ID:                uuid.New(),
		Text:              text,
		Translation:       translation,
		Transcription:     "[test]",
		PronunciationFile: text + ".mp3",
		LanguagePair:      "en-uk",
	}
	userWord := &domain.UserWord{
		ID:       uuid.New(),
		UserID:   userID,
		WordID:   word.ID,
		Priority: 3,
	}
	cycleWord := &domain.CycleWord{
		ID:         uuid.New(),
		CycleID:    cycleID,
		UserWordID: userWord.ID,
	}
	if len(methods) > 0 {
		progress, _ := NewWordProgress(methods).Marshal()
		cycleWord.Progress = progress
	}
	return &learning.CycleEntry{CycleWord: cycleWord, UserWord: userWord, Word: word}
}

func testCycle(userID uuid.UUID) *domain.LearningCycle {
	return &domain.LearningCycle{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
}

func TestNextWordBuildsPrompt(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "beautiful", "гарний", MethodRemember)
	fixture := newFixture(newFakeCycleService(cycle, entry))

	prompt, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, prompt)

	assert.Equal(t, cycle.ID, prompt.CycleID)
	assert.Equal(t, entry.UserWord.ID, prompt.UserWordID)
	assert.Equal(t, MethodRemember, prompt.Method)
	assert.Equal(t, "beautiful", prompt.Question)
	assert.Equal(t, 1, prompt.WordsRemaining)
	assert.False(t, prompt.ExpectsText)

	// The chosen method is persisted so a restart resumes the same prompt.
	require.Contains(t, fixture.cycles.saved, entry.CycleWord.ID)
	restored, err := RestoreWordProgress(fixture.cycles.saved[entry.CycleWord.ID])
	require.NoError(t, err)
	assert.Equal(t, MethodRemember, restored.CurrentMethod)
}

func TestNextWordReservesCurrentPrompt(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "house", "будинок",
		MethodRemember, MethodMultipleChoiceNative, MethodMultipleChoiceTarget)
	fixture := newFixture(newFakeCycleService(cycle, entry))

	first, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)
	second, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	// Calling again without answering must not burn a new method.
	assert.Equal(t, first.UserWordID, second.UserWordID)
	assert.Equal(t, first.Method, second.Method)
}

func TestNextWordNoActiveCycle(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycles := newFakeCycleService(testCycle(userID))
	cycles.wordsErr = learning.ErrNoActiveCycle
	fixture := newFixture(cycles)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	assert.ErrorIs(t, err, learning.ErrNoActiveCycle)
}

func TestNextWordFinalizesRestoredCompleteWord(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "water", "вода", MethodRemember)
	progress := NewWordProgress([]string{MethodRemember})
	progress.RecordAttempt(MethodRemember, true, time.Now().UTC())
	raw, err := progress.Marshal()
	require.NoError(t, err)
	entry.CycleWord.Progress = raw

	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	// The only word is already complete: it gets marked learned, the
	// cycle closes and there is nothing left to train.
	_, err = fixture.svc.NextWord(context.Background(), userID)
	assert.ErrorIs(t, err, learning.ErrNoActiveCycle)
	assert.Equal(t, []uuid.UUID{entry.UserWord.ID}, cycles.learned)
	assert.Equal(t, []uuid.UUID{cycle.ID}, cycles.completed)
}

func TestRespondWithoutSession(t *testing.T) {
	t.Parallel()

	fixture := newFixture(newFakeCycleService(testCycle(uuid.New())))

	_, err := fixture.svc.Respond(context.Background(), uuid.New(), Response{Action: ActionSkip})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRespondUnknownAction(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "tree", "дерево", MethodRemember)
	fixture := newFixture(newFakeCycleService(cycle, entry))

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	_, err = fixture.svc.Respond(context.Background(), userID, Response{Action: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRespondAnswerYesCompletesWordAndCycle(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "sun", "сонце", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionAnswerYes})
	require.NoError(t, err)

	assert.True(t, result.Evaluated)
	assert.True(t, result.Correct)
	assert.True(t, result.WordLearned)
	assert.True(t, result.CycleCompleted)
	assert.Nil(t, result.Next)
	assert.Equal(t, []uuid.UUID{entry.UserWord.ID}, cycles.learned)
	assert.Equal(t, []uuid.UUID{cycle.ID}, cycles.completed)
}

func TestRespondAnswerNoRevealsAndRepeats(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "moon", "місяць", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionAnswerNo})
	require.NoError(t, err)

	assert.True(t, result.Evaluated)
	assert.False(t, result.Correct)
	assert.Equal(t, "місяць", result.CorrectAnswer)
	assert.False(t, result.WordLearned)
	assert.False(t, result.CycleCompleted)
	require.NotNil(t, result.Next)
	assert.Equal(t, entry.UserWord.ID, result.Next.UserWordID)
	assert.Empty(t, cycles.learned)
}

func TestRespondMarkLearned(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "fire", "вогонь",
		MethodRemember, MethodMultipleChoiceNative)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionMarkLearned})
	require.NoError(t, err)

	assert.False(t, result.Evaluated)
	assert.True(t, result.WordLearned)
	assert.True(t, result.CycleCompleted)
	assert.Equal(t, []uuid.UUID{entry.UserWord.ID}, cycles.learned)
}

func TestRespondSkipKeepsWord(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "rain", "дощ", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionSkip})
	require.NoError(t, err)

	assert.False(t, result.Evaluated)
	assert.False(t, result.WordLearned)
	require.NotNil(t, result.Next)
	assert.Equal(t, entry.UserWord.ID, result.Next.UserWordID)
	assert.Empty(t, cycles.learned)
}

func TestRespondDeleteRemovesWord(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	first := entryWithMethods(userID, cycle.ID, "snow", "сніг", MethodRemember)
	second := entryWithMethods(userID, cycle.ID, "wind", "вітер", MethodRemember)
	cycles := newFakeCycleService(cycle, first, second)
	fixture := newFixture(cycles)

	prompt, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionDelete})
	require.NoError(t, err)

	assert.True(t, result.WordDeleted)
	require.Len(t, fixture.remover.deleted, 1)
	assert.Equal(t, prompt.WordID, fixture.remover.deleted[0])

	// Training moves on to the remaining word.
	require.NotNil(t, result.Next)
	assert.NotEqual(t, prompt.UserWordID, result.Next.UserWordID)
}

func TestRespondPronounceRepeatsWithAudio(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "bread", "хліб", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionPronounce})
	require.NoError(t, err)

	assert.False(t, result.Evaluated)
	require.NotNil(t, result.Next)
	assert.Equal(t, entry.UserWord.ID, result.Next.UserWordID)
	assert.Equal(t, MethodRemember, result.Next.Method)
	assert.Equal(t, "bread.mp3", result.Next.Pronunciation)

	// Help costs an attempt and the attempt is persisted.
	restored, err := RestoreWordProgress(cycles.saved[entry.CycleWord.ID])
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Attempts[MethodRemember])
}

func TestRespondShowExamplesRepeatsWithExamples(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "book", "книга", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)
	fixture.examples.examples[entry.Word.ID] = []*domain.WordExample{
		{ID: uuid.New(), WordID: entry.Word.ID, Sentence: "I read a book", Translation: "Я читаю книгу"},
	}

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionShowExamples})
	require.NoError(t, err)

	require.NotNil(t, result.Next)
	require.Len(t, result.Next.Examples, 1)
	assert.Equal(t, "I read a book", result.Next.Examples[0].Sentence)
}

func TestMultipleChoicePromptShape(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "apple", "яблуко", MethodMultipleChoiceNative)
	fixture := newFixture(newFakeCycleService(cycle, entry))
	fixture.pool.words = []*domain.Word{
		{ID: uuid.New(), Text: "pear", Translation: "груша"},
		{ID: uuid.New(), Text: "plum", Translation: "слива"},
		{ID: uuid.New(), Text: "cherry", Translation: "вишня"},
	}

	prompt, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, "apple", prompt.Question)
	assert.False(t, prompt.ExpectsText)

	var correct []string
	var labels []string
	for _, option := range prompt.Options {
		labels = append(labels, option.Label)
		if option.Action == ActionAnswerYes {
			correct = append(correct, option.Label)
		}
	}
	assert.Equal(t, []string{"яблуко"}, correct)
	assert.Contains(t, labels, "груша")
	assert.Contains(t, labels, "I don't know")
	assert.Contains(t, labels, "Mark as learned")
	assert.Contains(t, labels, "Skip")
	assert.Contains(t, labels, "Delete")
}

func TestSpellingGrading(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "beautiful", "гарний", MethodSpelling)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	prompt, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, prompt.ExpectsText)
	assert.Equal(t, "гарний", prompt.Question)

	// Wrong answer reveals the word and keeps it in play.
	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionAnswer, Answer: "beatiful"})
	require.NoError(t, err)
	assert.True(t, result.Evaluated)
	assert.False(t, result.Correct)
	assert.Equal(t, "beautiful", result.CorrectAnswer)
	require.NotNil(t, result.Next)

	// Case and surrounding whitespace do not matter.
	result, err = fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionAnswer, Answer: "  Beautiful "})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.True(t, result.WordLearned)
	assert.True(t, result.CycleCompleted)
}

func TestTranslationGradingUsesPinnedExample(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "cat", "кіт", MethodTranslation)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)
	fixture.examples.examples[entry.Word.ID] = []*domain.WordExample{
		{ID: uuid.New(), WordID: entry.Word.ID, Sentence: "The cat sleeps", Translation: "Кіт спить на дивані"},
	}

	prompt, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "The cat sleeps", prompt.Question)
	assert.True(t, prompt.ExpectsText)

	// The answer only needs to appear in the example's translation.
	result, err := fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionAnswer, Answer: "кіт спить"})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.True(t, result.WordLearned)
}

func TestFreeTextAnswerOnChoiceMethod(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "dog", "пес", MethodRemember)
	fixture := newFixture(newFakeCycleService(cycle, entry))

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	_, err = fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionAnswer, Answer: "пес"})
	assert.ErrorIs(t, err, ErrUnexpectedAnswer)
}

func TestLearnedTimeAccumulates(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "milk", "молоко", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixture(cycles)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	_, err = fixture.svc.Respond(context.Background(), userID,
		Response{Action: ActionAnswerYes})
	require.NoError(t, err)

	spent, ok := cycles.timeSpent[entry.UserWord.ID]
	require.True(t, ok)
	assert.GreaterOrEqual(t, spent, 0.0)
}

func TestEvictIdleSessions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "salt", "сіль", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixtureWithTimeout(cycles, time.Nanosecond)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	evicted := fixture.svc.EvictIdleSessions(context.Background())
	assert.Equal(t, 1, evicted)
	assert.Equal(t, []uuid.UUID{cycle.ID}, cycles.cleared)

	// The session is gone; responding needs a fresh NextWord first.
	_, err = fixture.svc.Respond(context.Background(), userID, Response{Action: ActionSkip})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEvictKeepsActiveSessions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cycle := testCycle(userID)
	entry := entryWithMethods(userID, cycle.ID, "tea", "чай", MethodRemember)
	cycles := newFakeCycleService(cycle, entry)
	fixture := newFixtureWithTimeout(cycles, time.Hour)

	_, err := fixture.svc.NextWord(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 0, fixture.svc.EvictIdleSessions(context.Background()))
	assert.Empty(t, cycles.cleared)
}
