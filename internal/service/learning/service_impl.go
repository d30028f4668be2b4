package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/config"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/domain/srs"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/platform/metrics"
	"github.com/maximus-ms/enbot/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the learning Service interface.
type serviceImpl struct {
	cycleStore    store.CycleStore
	userWordStore store.UserWordStore
	wordStore     store.WordStore
	activityStore store.ActivityStore
	srsService    srs.Service
	cfg           config.LearningConfig
	db            *sql.DB
	logger        *slog.Logger
}

// NewService creates a new learning Service implementation.
func NewService(
	cycleStore store.CycleStore,
	userWordStore store.UserWordStore,
	wordStore store.WordStore,
	activityStore store.ActivityStore,
	srsService srs.Service,
	cfg config.LearningConfig,
	db *sql.DB,
	logger *slog.Logger,
) Service {
	if cycleStore == nil {
		panic("cycleStore cannot be nil")
	}
	if userWordStore == nil {
		panic("userWordStore cannot be nil")
	}
	if wordStore == nil {
		panic("wordStore cannot be nil")
	}
	if activityStore == nil {
		panic("activityStore cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		cycleStore:    cycleStore,
		userWordStore: userWordStore,
		wordStore:     wordStore,
		activityStore: activityStore,
		srsService:    srsService,
		cfg:           cfg,
		db:            db,
		logger:        logger.With(slog.String("component", "learning_service")),
	}
}

// ActiveCycle implements Service.ActiveCycle.
func (s *serviceImpl) ActiveCycle(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error) {
	cycle, err := s.cycleStore.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrCycleNotFound) {
			return nil, ErrNoActiveCycle
		}
		return nil, wrapError("active_cycle", err)
	}
	return cycle, nil
}

// CreateCycle implements Service.CreateCycle.
func (s *serviceImpl) CreateCycle(ctx context.Context, userID uuid.UUID) (*domain.LearningCycle, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	// Review words first, up to their quota.
	reviewQuota := int(math.Ceil(float64(s.cfg.WordsPerCycle) * s.cfg.ReviewRatio))
	reviewCandidates, err := s.userWordStore.ListReviewCandidates(ctx, userID, now)
	if err != nil {
		return nil, wrapError("create_cycle", err)
	}
	picked := sampleByPriority(reviewCandidates, reviewQuota)

	// New words fill whatever the reviews left open.
	newQuota := s.cfg.WordsPerCycle - len(picked)
	newCandidates, err := s.userWordStore.ListNewCandidates(ctx, userID)
	if err != nil {
		return nil, wrapError("create_cycle", err)
	}
	picked = append(picked, sampleByPriority(newCandidates, newQuota)...)

	if len(picked) == 0 {
		log.Debug("no words available for a new cycle", slog.String("user_id", userID.String()))
		return nil, ErrNoWords
	}
	if len(picked) > s.cfg.WordsPerCycle {
		picked = sampleWords(picked, s.cfg.WordsPerCycle)
	}
	shuffleWords(picked)

	cycle, err := domain.NewLearningCycle(userID)
	if err != nil {
		return nil, wrapError("create_cycle", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCycles := s.cycleStore.WithTx(tx)
		if err := txCycles.Create(ctx, cycle); err != nil {
			return err
		}

		cycleWords := make([]*domain.CycleWord, 0, len(picked))
		for _, userWord := range picked {
			cycleWord, err := domain.NewCycleWord(cycle.ID, userWord.ID)
			if err != nil {
				return err
			}
			cycleWords = append(cycleWords, cycleWord)
		}
		return txCycles.CreateWords(ctx, cycleWords)
	})
	if err != nil {
		log.Error("failed to create cycle",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, wrapError("create_cycle", err)
	}

	metrics.RecordCycleStarted()
	log.Info("cycle created",
		slog.String("cycle_id", cycle.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("words", len(picked)))

	return cycle, nil
}

// WordsForCycle implements Service.WordsForCycle.
func (s *serviceImpl) WordsForCycle(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.LearningCycle, []*CycleEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for {
		cycle, err := s.ActiveCycle(ctx, userID)
		if err != nil {
			return nil, nil, err
		}

		cycleWords, err := s.cycleStore.GetUnlearnedWords(ctx, cycle.ID)
		if err != nil {
			return nil, nil, wrapError("words_for_cycle", err)
		}

		if len(cycleWords) == 0 {
			// Every word in this cycle is done; close it and look for an
			// older incomplete one.
			log.Debug("completing drained cycle", slog.String("cycle_id", cycle.ID.String()))
			if err := s.CompleteCycle(ctx, userID, cycle.ID); err != nil &&
				!errors.Is(err, domain.ErrCycleAlreadyCompleted) {
				return nil, nil, err
			}
			continue
		}

		entries, err := s.loadEntries(ctx, cycleWords)
		if err != nil {
			return nil, nil, wrapError("words_for_cycle", err)
		}
		return cycle, entries, nil
	}
}

// EnsureCycle implements Service.EnsureCycle.
func (s *serviceImpl) EnsureCycle(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.LearningCycle, []*CycleEntry, error) {
	cycle, entries, err := s.WordsForCycle(ctx, userID)
	if err == nil {
		return cycle, entries, nil
	}
	if !errors.Is(err, ErrNoActiveCycle) {
		return nil, nil, err
	}

	if _, err := s.CreateCycle(ctx, userID); err != nil {
		return nil, nil, err
	}
	return s.WordsForCycle(ctx, userID)
}

// loadEntries joins cycle words with their user words and dictionary words.
func (s *serviceImpl) loadEntries(
	ctx context.Context,
	cycleWords []*domain.CycleWord,
) ([]*CycleEntry, error) {
	entries := make([]*CycleEntry, 0, len(cycleWords))
	wordIDs := make([]uuid.UUID, 0, len(cycleWords))

	for _, cycleWord := range cycleWords {
		userWord, err := s.userWordStore.GetByID(ctx, cycleWord.UserWordID)
		if err != nil {
			// The user deleted the word mid-cycle; skip its membership.
			if errors.Is(err, store.ErrUserWordNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, &CycleEntry{CycleWord: cycleWord, UserWord: userWord})
		wordIDs = append(wordIDs, userWord.WordID)
	}

	words, err := s.wordStore.GetByIDs(ctx, wordIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Word, len(words))
	for _, w := range words {
		byID[w.ID] = w
	}

	joined := entries[:0]
	for _, entry := range entries {
		word, ok := byID[entry.UserWord.WordID]
		if !ok {
			continue
		}
		entry.Word = word
		joined = append(joined, entry)
	}
	return joined, nil
}

// MarkWordLearned implements Service.MarkWordLearned.
func (s *serviceImpl) MarkWordLearned(
	ctx context.Context,
	userID, cycleID, userWordID uuid.UUID,
	timeSpent float64,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	var firstLearn bool
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCycles := s.cycleStore.WithTx(tx)
		txUserWords := s.userWordStore.WithTx(tx)

		cycle, err := txCycles.GetByID(ctx, cycleID)
		if err != nil {
			return err
		}
		if cycle.UserID != userID {
			return ErrCycleNotOwned
		}

		cycleWord, err := txCycles.GetWordByUserWord(ctx, cycleID, userWordID)
		if err != nil {
			if errors.Is(err, store.ErrCycleWordNotFound) {
				return ErrCycleWordNotFound
			}
			return err
		}

		firstLearn = !cycleWord.Learned
		cycleWord.TimeSpent += timeSpent
		cycleWord.Learned = true
		cycleWord.UpdatedAt = now
		if err := txCycles.UpdateWord(ctx, cycleWord); err != nil {
			return err
		}

		cycle.TimeSpent += timeSpent
		if firstLearn {
			cycle.WordsLearned++
		}
		cycle.UpdatedAt = now
		if err := txCycles.Update(ctx, cycle); err != nil {
			return err
		}

		userWord, err := txUserWords.GetByID(ctx, userWordID)
		if err != nil {
			return err
		}
		userWord, err = s.srsService.Advance(userWord, now)
		if err != nil {
			return err
		}
		if err := txUserWords.Update(ctx, userWord); err != nil {
			return err
		}

		if firstLearn {
			word, err := s.wordStore.WithTx(tx).GetByID(ctx, userWord.WordID)
			if err != nil {
				return err
			}
			entry, err := domain.NewActivityEntry(userID,
				fmt.Sprintf("Learned word %q", word.Text),
				domain.ActivityLevelInfo, domain.ActivityWordLearned)
			if err != nil {
				return err
			}
			if err := s.activityStore.WithTx(tx).Create(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCycleNotOwned) || errors.Is(err, ErrCycleWordNotFound) {
			return err
		}
		log.Error("failed to mark word learned",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycleID.String()),
			slog.String("user_word_id", userWordID.String()))
		return wrapError("mark_word_learned", err)
	}

	if firstLearn {
		metrics.RecordWordLearned()
	}
	return nil
}

// CompleteCycle implements Service.CompleteCycle.
func (s *serviceImpl) CompleteCycle(ctx context.Context, userID, cycleID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCycles := s.cycleStore.WithTx(tx)

		cycle, err := txCycles.GetByID(ctx, cycleID)
		if err != nil {
			return err
		}
		if cycle.UserID != userID {
			return ErrCycleNotOwned
		}

		if err := cycle.Complete(now); err != nil {
			return err
		}
		if err := txCycles.Update(ctx, cycle); err != nil {
			return err
		}

		entry, err := domain.NewActivityEntry(userID,
			fmt.Sprintf("Cycle completed: %d words in %.1f minutes",
				cycle.WordsLearned, cycle.TimeSpent),
			domain.ActivityLevelInfo, domain.ActivityCycleCompleted)
		if err != nil {
			return err
		}
		return s.activityStore.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, ErrCycleNotOwned) || errors.Is(err, domain.ErrCycleAlreadyCompleted) {
			return err
		}
		log.Error("failed to complete cycle",
			slog.String("error", err.Error()),
			slog.String("cycle_id", cycleID.String()))
		return wrapError("complete_cycle", err)
	}

	metrics.RecordCycleCompleted()
	log.Info("cycle completed",
		slog.String("cycle_id", cycleID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// SaveProgress implements Service.SaveProgress.
func (s *serviceImpl) SaveProgress(
	ctx context.Context,
	cycleWordID uuid.UUID,
	progress json.RawMessage,
) error {
	if err := s.cycleStore.SaveProgress(ctx, cycleWordID, progress); err != nil {
		return wrapError("save_progress", err)
	}
	return nil
}

// ClearProgress implements Service.ClearProgress.
func (s *serviceImpl) ClearProgress(ctx context.Context, cycleID uuid.UUID) error {
	if err := s.cycleStore.ClearProgress(ctx, cycleID); err != nil {
		return wrapError("clear_progress", err)
	}
	return nil
}
