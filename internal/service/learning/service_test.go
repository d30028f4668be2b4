package learning

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximus-ms/enbot/internal/config"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/domain/srs"
	"github.com/maximus-ms/enbot/internal/mocks"
)

// serviceFixture wires the learning service over mock stores and a sqlmock
// database. The mocks ignore transactions, so tests only declare the
// begin/commit pairs they expect on the database handle.
type serviceFixture struct {
	svc       Service
	cycles    *mocks.MockCycleStore
	userWords *mocks.MockUserWordStore
	words     *mocks.MockWordStore
	activity  *mocks.MockActivityStore
	dbmock    sqlmock.Sqlmock
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	return newFixtureWithConfig(t, config.LearningConfig{
		WordsPerCycle:   10,
		ReviewRatio:     0.3,
		MinPriority:     1,
		MaxPriority:     5,
		DefaultPriority: 3,
	})
}

func newFixtureWithConfig(t *testing.T, cfg config.LearningConfig) *serviceFixture {
	t.Helper()

	db, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fixture := &serviceFixture{
		cycles:    mocks.NewMockCycleStore(),
		userWords: mocks.NewMockUserWordStore(),
		words:     mocks.NewMockWordStore(),
		activity:  mocks.NewMockActivityStore(),
		dbmock:    dbmock,
	}
	fixture.svc = NewService(
		fixture.cycles,
		fixture.userWords,
		fixture.words,
		fixture.activity,
		srs.NewDefaultService(),
		cfg,
		db,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return fixture
}

// seedUserWord stores a dictionary word and the user's link to it. Learned
// words get a review stage so they look like real ladder entries.
func (f *serviceFixture) seedUserWord(userID uuid.UUID, priority int, learned bool, nextReview time.Time) *domain.UserWord {
	now := time.Now().UTC()
	word := &domain.Word{
		ID:           uuid.New(),
		Translation:  "переклад",
		LanguagePair: "en-uk",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	word.Text = "w-" + word.ID.String()[:8]
	f.words.Words[word.ID] = word

	userWord := &domain.UserWord{
		ID:           uuid.New(),
		UserID:       userID,
		WordID:       word.ID,
		Priority:     priority,
		Learned:      learned,
		NextReviewAt: nextReview,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if learned {
		userWord.ReviewStage = 1
		userWord.LastReviewedAt = now.AddDate(0, 0, -3)
	}
	f.userWords.Add(userWord)
	return userWord
}

// seedCycle stores an open cycle with one membership per given user word.
func (f *serviceFixture) seedCycle(userID uuid.UUID, startedAt time.Time, userWords ...*domain.UserWord) *domain.LearningCycle {
	cycle := &domain.LearningCycle{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: startedAt,
		CreatedAt: startedAt,
		UpdatedAt: startedAt,
	}
	f.cycles.Cycles[cycle.ID] = cycle
	for _, uw := range userWords {
		f.cycles.CycleWords[cycle.ID] = append(f.cycles.CycleWords[cycle.ID], &domain.CycleWord{
			ID:         uuid.New(),
			CycleID:    cycle.ID,
			UserWordID: uw.ID,
			CreatedAt:  startedAt,
			UpdatedAt:  startedAt,
		})
	}
	return cycle
}

func TestActiveCycleNone(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)

	_, err := fixture.svc.ActiveCycle(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoActiveCycle)
}

func TestCreateCycleSplitsReviewAndNewWords(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	now := time.Now().UTC()

	// Plenty of both kinds: the 10-word cycle should hold exactly the
	// review quota ceil(10 * 0.3) = 3 due words and 7 new ones.
	for i := 0; i < 5; i++ {
		fixture.seedUserWord(userID, 4, true, now.Add(-time.Hour))
	}
	for i := 0; i < 20; i++ {
		fixture.seedUserWord(userID, 3, false, time.Time{})
	}

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	cycle, err := fixture.svc.CreateCycle(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, fixture.dbmock.ExpectationsWereMet())

	cycleWords := fixture.cycles.CycleWords[cycle.ID]
	require.Len(t, cycleWords, 10)

	reviews := 0
	for _, cw := range cycleWords {
		if fixture.userWords.UserWords[cw.UserWordID].Learned {
			reviews++
		}
	}
	assert.Equal(t, 3, reviews)
}

func TestCreateCycleFillsQuotaFromNewWordsAlone(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()

	first := fixture.seedUserWord(userID, 3, false, time.Time{})
	second := fixture.seedUserWord(userID, 3, false, time.Time{})

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	cycle, err := fixture.svc.CreateCycle(context.Background(), userID)
	require.NoError(t, err)

	cycleWords := fixture.cycles.CycleWords[cycle.ID]
	require.Len(t, cycleWords, 2)
	picked := map[uuid.UUID]bool{
		cycleWords[0].UserWordID: true,
		cycleWords[1].UserWordID: true,
	}
	assert.True(t, picked[first.ID])
	assert.True(t, picked[second.ID])
}

func TestCreateCyclePrefersHighPriorityBucket(t *testing.T) {
	t.Parallel()

	fixture := newFixtureWithConfig(t, config.LearningConfig{
		WordsPerCycle:   3,
		ReviewRatio:     0,
		MinPriority:     1,
		MaxPriority:     5,
		DefaultPriority: 3,
	})
	userID := uuid.New()

	urgent := make(map[uuid.UUID]bool, 3)
	for i := 0; i < 3; i++ {
		urgent[fixture.seedUserWord(userID, 5, false, time.Time{}).ID] = true
	}
	for i := 0; i < 20; i++ {
		fixture.seedUserWord(userID, 1, false, time.Time{})
	}

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	cycle, err := fixture.svc.CreateCycle(context.Background(), userID)
	require.NoError(t, err)

	// The priority-5 bucket covers the whole cycle, so the large
	// priority-1 backlog contributes nothing.
	cycleWords := fixture.cycles.CycleWords[cycle.ID]
	require.Len(t, cycleWords, 3)
	for _, cw := range cycleWords {
		assert.True(t, urgent[cw.UserWordID])
	}
}

func TestCreateCycleNoWords(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)

	_, err := fixture.svc.CreateCycle(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoWords)
	assert.Empty(t, fixture.cycles.Cycles)
	// No transaction was opened for the empty selection.
	require.NoError(t, fixture.dbmock.ExpectationsWereMet())
}

func TestCreateCycleRollsBackOnStoreFailure(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	fixture.seedUserWord(userID, 3, false, time.Time{})

	fixture.cycles.CreateWordsFn = func(ctx context.Context, cycleWords []*domain.CycleWord) error {
		return errors.New("insert failed")
	}
	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectRollback()

	_, err := fixture.svc.CreateCycle(context.Background(), userID)
	require.Error(t, err)

	var learningErr *LearningError
	assert.ErrorAs(t, err, &learningErr)
	require.NoError(t, fixture.dbmock.ExpectationsWereMet())
}

func TestWordsForCycleJoinsEntries(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	userWord := fixture.seedUserWord(userID, 3, false, time.Time{})
	cycle := fixture.seedCycle(userID, time.Now().UTC().Add(-time.Hour), userWord)

	got, entries, err := fixture.svc.WordsForCycle(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, cycle.ID, got.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, userWord.ID, entries[0].UserWord.ID)
	assert.Equal(t, userWord.WordID, entries[0].Word.ID)
	assert.Equal(t, cycle.ID, entries[0].CycleWord.CycleID)
}

func TestWordsForCycleCompletesDrainedCycle(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	now := time.Now().UTC()

	// The older cycle still has work; the newest one is drained and must
	// be closed before the older one is surfaced again.
	pending := fixture.seedUserWord(userID, 3, false, time.Time{})
	older := fixture.seedCycle(userID, now.Add(-2*time.Hour), pending)

	done := fixture.seedUserWord(userID, 3, false, time.Time{})
	drained := fixture.seedCycle(userID, now.Add(-time.Hour), done)
	fixture.cycles.CycleWords[drained.ID][0].Learned = true

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	got, entries, err := fixture.svc.WordsForCycle(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, fixture.dbmock.ExpectationsWereMet())

	assert.Equal(t, older.ID, got.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, pending.ID, entries[0].UserWord.ID)

	assert.True(t, drained.Completed)
	assert.Equal(t, []string{domain.ActivityCycleCompleted}, fixture.activity.Categories())
}

func TestEnsureCycleCreatesWhenNoneOpen(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	fixture.seedUserWord(userID, 3, false, time.Time{})
	fixture.seedUserWord(userID, 3, false, time.Time{})

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	cycle, entries, err := fixture.svc.EnsureCycle(context.Background(), userID)
	require.NoError(t, err)

	assert.False(t, cycle.Completed)
	assert.Len(t, entries, 2)
	assert.Len(t, fixture.cycles.Cycles, 1)
}

func TestEnsureCycleNoWords(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)

	_, _, err := fixture.svc.EnsureCycle(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoWords)
}

func TestMarkWordLearnedAdvancesUserWord(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	userWord := fixture.seedUserWord(userID, 3, false, time.Time{})
	cycle := fixture.seedCycle(userID, time.Now().UTC(), userWord)

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	err := fixture.svc.MarkWordLearned(context.Background(), userID, cycle.ID, userWord.ID, 2.5)
	require.NoError(t, err)
	require.NoError(t, fixture.dbmock.ExpectationsWereMet())

	cycleWord := fixture.cycles.CycleWords[cycle.ID][0]
	assert.True(t, cycleWord.Learned)
	assert.Equal(t, 2.5, cycleWord.TimeSpent)
	assert.Equal(t, 1, cycle.WordsLearned)
	assert.Equal(t, 2.5, cycle.TimeSpent)

	advanced := fixture.userWords.UserWords[userWord.ID]
	assert.True(t, advanced.Learned)
	assert.Equal(t, 1, advanced.ReviewStage)
	// Stage 1 on the default ladder means a review three days out.
	assert.WithinDuration(t,
		time.Now().UTC().AddDate(0, 0, srs.DefaultRepetitionIntervals[1]),
		advanced.NextReviewAt, time.Minute)

	assert.Equal(t, []string{domain.ActivityWordLearned}, fixture.activity.Categories())
}

func TestMarkWordLearnedAgainOnlyAccumulatesTime(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	userWord := fixture.seedUserWord(userID, 3, false, time.Time{})
	cycle := fixture.seedCycle(userID, time.Now().UTC(), userWord)

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()
	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	require.NoError(t,
		fixture.svc.MarkWordLearned(context.Background(), userID, cycle.ID, userWord.ID, 2.0))
	require.NoError(t,
		fixture.svc.MarkWordLearned(context.Background(), userID, cycle.ID, userWord.ID, 1.5))

	// The learned counter moves only on the first transition; repeat
	// reviews keep climbing the ladder.
	assert.Equal(t, 1, cycle.WordsLearned)
	assert.Equal(t, 3.5, cycle.TimeSpent)
	assert.Equal(t, 2, fixture.userWords.UserWords[userWord.ID].ReviewStage)
	assert.Len(t, fixture.activity.Entries, 1)
}

func TestMarkWordLearnedWrongUser(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	owner := uuid.New()
	userWord := fixture.seedUserWord(owner, 3, false, time.Time{})
	cycle := fixture.seedCycle(owner, time.Now().UTC(), userWord)

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectRollback()

	err := fixture.svc.MarkWordLearned(context.Background(), uuid.New(), cycle.ID, userWord.ID, 1.0)
	assert.ErrorIs(t, err, ErrCycleNotOwned)
	require.NoError(t, fixture.dbmock.ExpectationsWereMet())
}

func TestMarkWordLearnedNotInCycle(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	userWord := fixture.seedUserWord(userID, 3, false, time.Time{})
	cycle := fixture.seedCycle(userID, time.Now().UTC(), userWord)

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectRollback()

	err := fixture.svc.MarkWordLearned(context.Background(), userID, cycle.ID, uuid.New(), 1.0)
	assert.ErrorIs(t, err, ErrCycleWordNotFound)
}

func TestCompleteCycle(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	cycle := fixture.seedCycle(userID, time.Now().UTC())

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectCommit()

	require.NoError(t, fixture.svc.CompleteCycle(context.Background(), userID, cycle.ID))

	assert.True(t, cycle.Completed)
	assert.False(t, cycle.CompletedAt.IsZero())
	assert.Equal(t, []string{domain.ActivityCycleCompleted}, fixture.activity.Categories())

	// Completing twice is refused.
	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectRollback()
	err := fixture.svc.CompleteCycle(context.Background(), userID, cycle.ID)
	assert.ErrorIs(t, err, domain.ErrCycleAlreadyCompleted)
}

func TestCompleteCycleWrongUser(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	cycle := fixture.seedCycle(uuid.New(), time.Now().UTC())

	fixture.dbmock.ExpectBegin()
	fixture.dbmock.ExpectRollback()

	err := fixture.svc.CompleteCycle(context.Background(), uuid.New(), cycle.ID)
	assert.ErrorIs(t, err, ErrCycleNotOwned)
}

func TestWordsForCycleSkipsDeletedUserWords(t *testing.T) {
	t.Parallel()

	fixture := newFixture(t)
	userID := uuid.New()
	kept := fixture.seedUserWord(userID, 3, false, time.Time{})
	removed := fixture.seedUserWord(userID, 3, false, time.Time{})
	fixture.seedCycle(userID, time.Now().UTC(), kept, removed)

	// The user dropped a word after the cycle was built; its membership
	// row points nowhere and must not break the listing.
	require.NoError(t, fixture.userWords.Delete(context.Background(), removed.ID))

	_, entries, err := fixture.svc.WordsForCycle(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, kept.ID, entries[0].UserWord.ID)
}
