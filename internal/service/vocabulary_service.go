package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maximus-ms/enbot/internal/config"
	"github.com/maximus-ms/enbot/internal/domain"
	"github.com/maximus-ms/enbot/internal/domain/srs"
	"github.com/maximus-ms/enbot/internal/events"
	"github.com/maximus-ms/enbot/internal/generation"
	"github.com/maximus-ms/enbot/internal/platform/logger"
	"github.com/maximus-ms/enbot/internal/platform/metrics"
	"github.com/maximus-ms/enbot/internal/store"
	"github.com/maximus-ms/enbot/internal/task"
)

// AddWordsResult summarizes what a batch add actually did. Texts already in
// the dictionary at an equal or higher priority are counted as skipped.
type AddWordsResult struct {
	Added        int         `json:"added"`
	Updated      int         `json:"updated"`
	Skipped      int         `json:"skipped"`
	AddedWordIDs []uuid.UUID `json:"added_word_ids,omitempty"`
}

// WordDetails merges a dictionary word with the requesting user's learning
// state for it. Examples are loaded for single-word lookups and left nil in
// listings.
type WordDetails struct {
	Word     *domain.Word          `json:"word"`
	UserWord *domain.UserWord      `json:"user_word"`
	Examples []*domain.WordExample `json:"examples,omitempty"`
}

// WordListFilter narrows a dictionary listing. Nil fields mean "any".
type WordListFilter struct {
	Learned  *bool
	Priority *int
	Limit    int
	Offset   int
}

// WordUpdate is a partial update of a word's content. Nil fields are left
// unchanged. Priority applies to the user's link, the rest to the shared
// word.
type WordUpdate struct {
	Translation   *string
	Transcription *string
	Priority      *int
}

// VocabularyService manages a user's dictionary: adding words with the
// priority cascade, lookups, updates and removal. It also applies the
// content produced by background enrichment.
type VocabularyService interface {
	// AddWords adds the given texts to the user's dictionary at the given
	// priority. On the first addition of a learning day a batch at the
	// user's top priority pushes the existing contiguous priority run down
	// by one, so yesterday's urgent words make room for today's.
	AddWords(ctx context.Context, userID uuid.UUID, texts []string, priority int) (*AddWordsResult, error)

	// ListWords returns the user's dictionary with learning state, newest
	// first, narrowed by the filter.
	ListWords(ctx context.Context, userID uuid.UUID, filter WordListFilter) ([]*WordDetails, error)

	// GetWordDetails returns a single word with the user's learning state
	// and the word's example sentences.
	GetWordDetails(ctx context.Context, userID, wordID uuid.UUID) (*WordDetails, error)

	// SearchWords finds words in the user's dictionary matching the query.
	SearchWords(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*domain.Word, error)

	// DueWords lists words whose review date has arrived.
	DueWords(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Word, error)

	// UpdateWord applies a partial update to a word the user owns a link
	// to. Content edits mark the word enriched, so manual fixes are not
	// overwritten by a late generation task.
	UpdateWord(ctx context.Context, userID, wordID uuid.UUID, update WordUpdate) (*WordDetails, error)

	// DeleteWord removes the user's link to a word. The shared word row is
	// deleted too once no other user references it.
	DeleteWord(ctx context.Context, userID, wordID uuid.UUID) error

	// ResetWordProgress sends a word back to stage zero, unlearned.
	ResetWordProgress(ctx context.Context, userID, wordID uuid.UUID) (*WordDetails, error)

	// GetWord retrieves a dictionary word by ID, without user state.
	GetWord(ctx context.Context, wordID uuid.UUID) (*domain.Word, error)

	// ApplyEnrichment stores generated content on a placeholder word.
	ApplyEnrichment(ctx context.Context, wordID, userID uuid.UUID, content *generation.WordContent) error
}

// VocabularyServiceImpl implements the VocabularyService interface
type VocabularyServiceImpl struct {
	userStore     store.UserStore
	wordStore     store.WordStore
	userWordStore store.UserWordStore
	activityStore store.ActivityStore
	srsService    srs.Service
	eventEmitter  events.EventEmitter
	cfg           config.LearningConfig
	db            *sql.DB
	logger        *slog.Logger
}

// NewVocabularyService creates a new VocabularyService
func NewVocabularyService(
	userStore store.UserStore,
	wordStore store.WordStore,
	userWordStore store.UserWordStore,
	activityStore store.ActivityStore,
	srsService srs.Service,
	eventEmitter events.EventEmitter,
	cfg config.LearningConfig,
	db *sql.DB,
	logger *slog.Logger,
) *VocabularyServiceImpl {
	return &VocabularyServiceImpl{
		userStore:     userStore,
		wordStore:     wordStore,
		userWordStore: userWordStore,
		activityStore: activityStore,
		srsService:    srsService,
		eventEmitter:  eventEmitter,
		cfg:           cfg,
		db:            db,
		logger:        logger.With("component", "vocabulary_service"),
	}
}

// Verify interface compliance at compile time.
var (
	_ VocabularyService = (*VocabularyServiceImpl)(nil)
	_ task.WordService  = (*VocabularyServiceImpl)(nil)
)

// AddWords implements VocabularyService.AddWords.
func (s *VocabularyServiceImpl) AddWords(
	ctx context.Context,
	userID uuid.UUID,
	texts []string,
	priority int,
) (*AddWordsResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cleaned := cleanWordTexts(texts)
	if len(cleaned) == 0 {
		return nil, ErrNoWordsGiven
	}
	if priority < s.cfg.MinPriority || priority > s.cfg.MaxPriority {
		return nil, fmt.Errorf("%w: %d outside [%d, %d]",
			domain.ErrInvalidPriority, priority, s.cfg.MinPriority, s.cfg.MaxPriority)
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, newServiceError("vocabulary", "add_words", err)
	}

	now := time.Now().UTC()
	result := &AddWordsResult{}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)
		txWords := s.wordStore.WithTx(tx)
		txUserWords := s.userWordStore.WithTx(tx)
		txActivity := s.activityStore.WithTx(tx)

		if err := s.cascadePriorities(ctx, txUserWords, user, priority, now, log); err != nil {
			return err
		}

		pair := user.LanguagePair()
		for _, text := range cleaned {
			word, created, err := s.findOrCreateWord(ctx, txWords, text, pair)
			if err != nil {
				return err
			}

			userWord, err := txUserWords.GetByUserAndWord(ctx, userID, word.ID)
			switch {
			case err == nil:
				// Already in the dictionary; a higher priority wins.
				if priority <= userWord.Priority {
					result.Skipped++
					continue
				}
				userWord.Priority = priority
				userWord.UpdatedAt = now
				if err := txUserWords.Update(ctx, userWord); err != nil {
					return err
				}
				entry, err := domain.NewActivityEntry(userID,
					fmt.Sprintf("Word %q raised to priority %d", word.Text, priority),
					domain.ActivityLevelInfo, domain.ActivityWordPriorityUpdated)
				if err != nil {
					return err
				}
				if err := txActivity.Create(ctx, entry); err != nil {
					return err
				}
				result.Updated++

			case errors.Is(err, store.ErrUserWordNotFound):
				userWord, err := domain.NewUserWord(userID, word.ID, priority)
				if err != nil {
					return err
				}
				if err := txUserWords.Create(ctx, userWord); err != nil {
					return err
				}
				result.Added++
				if created {
					result.AddedWordIDs = append(result.AddedWordIDs, word.ID)
				}

			default:
				return err
			}
		}

		if result.Added > 0 {
			if err := txUsers.SetWordsAddedAt(ctx, userID, now); err != nil {
				return err
			}
			entry, err := domain.NewActivityEntry(userID,
				fmt.Sprintf("Added %d words at priority %d", result.Added, priority),
				domain.ActivityLevelInfo, domain.ActivityWordsAdded)
			if err != nil {
				return err
			}
			if err := txActivity.Create(ctx, entry); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		log.Error("failed to add words",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, newServiceError("vocabulary", "add_words", err)
	}

	if result.Added > 0 {
		metrics.RecordWordsAdded(result.Added)
	}
	s.emitWordsAdded(ctx, userID, result.AddedWordIDs, log)

	log.Info("words added",
		slog.String("user_id", userID.String()),
		slog.Int("added", result.Added),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// cascadePriorities pushes the user's top contiguous priority run down by
// one. It fires only on the first addition of a learning day and only when
// the batch lands on the current top priority, so repeated adds within a
// day keep their relative order.
func (s *VocabularyServiceImpl) cascadePriorities(
	ctx context.Context,
	txUserWords store.UserWordStore,
	user *domain.User,
	priority int,
	now time.Time,
	log *slog.Logger,
) error {
	if !user.WordsAddedAt.IsZero() &&
		srs.SameLearningDay(user.WordsAddedAt, now, user.DayStartHour) {
		return nil
	}

	priorities, err := txUserWords.DistinctPriorities(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(priorities) == 0 || priorities[0] != priority {
		return nil
	}

	// The top priority is always pushed down; the run extends while the
	// next value is exactly one below and still above the default.
	run := []int{priorities[0]}
	for _, p := range priorities[1:] {
		if p != run[len(run)-1]-1 || p <= s.cfg.DefaultPriority {
			break
		}
		run = append(run, p)
	}

	affected, err := txUserWords.DecreasePriorities(ctx, user.ID, run)
	if err != nil {
		return err
	}

	log.Debug("cascaded word priorities",
		slog.String("user_id", user.ID.String()),
		slog.Any("priorities", run),
		slog.Int("words_affected", affected))
	return nil
}

// findOrCreateWord reuses the shared word for the language pair or creates
// a placeholder to be filled by enrichment. The second return reports
// whether the word was created.
func (s *VocabularyServiceImpl) findOrCreateWord(
	ctx context.Context,
	txWords store.WordStore,
	text, languagePair string,
) (*domain.Word, bool, error) {
	word, err := txWords.GetByText(ctx, text, languagePair)
	if err == nil {
		return word, false, nil
	}
	if !errors.Is(err, store.ErrWordNotFound) {
		return nil, false, err
	}

	word, err = domain.NewWord(text, languagePair)
	if err != nil {
		return nil, false, err
	}
	if err := txWords.Create(ctx, word); err != nil {
		// Lost a race with a concurrent add of the same text.
		if errors.Is(err, store.ErrWordExists) {
			existing, lookupErr := txWords.GetByText(ctx, text, languagePair)
			if lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return word, true, nil
}

// emitWordsAdded hands the new placeholder words to the enrichment
// pipeline. Emission failures are logged but never fail the add: the words
// are already saved and enrichment can be retried by re-adding.
func (s *VocabularyServiceImpl) emitWordsAdded(
	ctx context.Context,
	userID uuid.UUID,
	wordIDs []uuid.UUID,
	log *slog.Logger,
) {
	if len(wordIDs) == 0 {
		return
	}

	event, err := events.NewTaskRequestEvent(task.EventTypeWordsAdded, task.WordsAddedPayload{
		UserID:  userID,
		WordIDs: wordIDs,
	})
	if err != nil {
		log.Error("failed to create words-added event",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit words-added event",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("word_count", len(wordIDs)))
	}
}

// ListWords implements VocabularyService.ListWords.
func (s *VocabularyServiceImpl) ListWords(
	ctx context.Context,
	userID uuid.UUID,
	filter WordListFilter,
) ([]*WordDetails, error) {
	userWords, err := s.userWordStore.ListByUser(ctx, userID, store.UserWordFilter{
		Learned:  filter.Learned,
		Priority: filter.Priority,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, newServiceError("vocabulary", "list_words", err)
	}
	if len(userWords) == 0 {
		return []*WordDetails{}, nil
	}

	wordIDs := make([]uuid.UUID, 0, len(userWords))
	for _, uw := range userWords {
		wordIDs = append(wordIDs, uw.WordID)
	}
	words, err := s.wordStore.GetByIDs(ctx, wordIDs)
	if err != nil {
		return nil, newServiceError("vocabulary", "list_words", err)
	}
	byID := make(map[uuid.UUID]*domain.Word, len(words))
	for _, w := range words {
		byID[w.ID] = w
	}

	details := make([]*WordDetails, 0, len(userWords))
	for _, uw := range userWords {
		word, ok := byID[uw.WordID]
		if !ok {
			// Word row vanished between queries; skip rather than fail
			// the whole listing.
			continue
		}
		details = append(details, &WordDetails{Word: word, UserWord: uw})
	}
	return details, nil
}

// GetWordDetails implements VocabularyService.GetWordDetails.
func (s *VocabularyServiceImpl) GetWordDetails(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*WordDetails, error) {
	userWord, err := s.userWordStore.GetByUserAndWord(ctx, userID, wordID)
	if err != nil {
		if errors.Is(err, store.ErrUserWordNotFound) {
			return nil, ErrWordNotFound
		}
		return nil, newServiceError("vocabulary", "get_word", err)
	}

	word, err := s.wordStore.GetByID(ctx, wordID)
	if err != nil {
		if errors.Is(err, store.ErrWordNotFound) {
			return nil, ErrWordNotFound
		}
		return nil, newServiceError("vocabulary", "get_word", err)
	}

	examples, err := s.wordStore.GetExamples(ctx, wordID)
	if err != nil {
		return nil, newServiceError("vocabulary", "get_word", err)
	}

	return &WordDetails{Word: word, UserWord: userWord, Examples: examples}, nil
}

// SearchWords implements VocabularyService.SearchWords.
func (s *VocabularyServiceImpl) SearchWords(
	ctx context.Context,
	userID uuid.UUID,
	query string,
	limit int,
) ([]*domain.Word, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Word{}, nil
	}
	if limit <= 0 {
		limit = defaultWordListLimit
	}

	words, err := s.userWordStore.Search(ctx, userID, query, limit)
	if err != nil {
		return nil, newServiceError("vocabulary", "search_words", err)
	}
	return words, nil
}

// DueWords implements VocabularyService.DueWords.
func (s *VocabularyServiceImpl) DueWords(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Word, error) {
	if limit <= 0 {
		limit = defaultWordListLimit
	}

	words, err := s.userWordStore.ListDueWords(ctx, userID, time.Now().UTC(), limit)
	if err != nil {
		return nil, newServiceError("vocabulary", "due_words", err)
	}
	return words, nil
}

// defaultWordListLimit bounds search and due listings when the caller does
// not provide a limit.
const defaultWordListLimit = 50

// UpdateWord implements VocabularyService.UpdateWord.
func (s *VocabularyServiceImpl) UpdateWord(
	ctx context.Context,
	userID, wordID uuid.UUID,
	update WordUpdate,
) (*WordDetails, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	details, err := s.GetWordDetails(ctx, userID, wordID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		contentChanged := false
		if update.Translation != nil && *update.Translation != details.Word.Translation {
			details.Word.Translation = *update.Translation
			contentChanged = true
		}
		if update.Transcription != nil && *update.Transcription != details.Word.Transcription {
			details.Word.Transcription = *update.Transcription
			contentChanged = true
		}
		if contentChanged {
			details.Word.UpdatedAt = now
			if err := s.wordStore.WithTx(tx).Update(ctx, details.Word); err != nil {
				return err
			}
		}

		if update.Priority != nil && *update.Priority != details.UserWord.Priority {
			if *update.Priority < s.cfg.MinPriority || *update.Priority > s.cfg.MaxPriority {
				return fmt.Errorf("%w: %d outside [%d, %d]",
					domain.ErrInvalidPriority, *update.Priority, s.cfg.MinPriority, s.cfg.MaxPriority)
			}
			details.UserWord.Priority = *update.Priority
			details.UserWord.UpdatedAt = now
			if err := s.userWordStore.WithTx(tx).Update(ctx, details.UserWord); err != nil {
				return err
			}
			entry, err := domain.NewActivityEntry(userID,
				fmt.Sprintf("Word %q priority set to %d", details.Word.Text, *update.Priority),
				domain.ActivityLevelInfo, domain.ActivityWordPriorityUpdated)
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
		if errors.Is(err, domain.ErrInvalidPriority) {
			return nil, err
		}
		log.Error("failed to update word",
			slog.String("error", err.Error()),
			slog.String("word_id", wordID.String()))
		return nil, newServiceError("vocabulary", "update_word", err)
	}

	return details, nil
}

// DeleteWord implements VocabularyService.DeleteWord.
func (s *VocabularyServiceImpl) DeleteWord(ctx context.Context, userID, wordID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userWord, err := s.userWordStore.GetByUserAndWord(ctx, userID, wordID)
	if err != nil {
		if errors.Is(err, store.ErrUserWordNotFound) {
			return ErrWordNotFound
		}
		return newServiceError("vocabulary", "delete_word", err)
	}

	word, err := s.wordStore.GetByID(ctx, wordID)
	if err != nil && !errors.Is(err, store.ErrWordNotFound) {
		return newServiceError("vocabulary", "delete_word", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txWords := s.wordStore.WithTx(tx)

		if err := s.userWordStore.WithTx(tx).Delete(ctx, userWord.ID); err != nil {
			return err
		}

		// Drop the shared row once the last link is gone.
		refs, err := txWords.CountReferences(ctx, wordID)
		if err != nil {
			return err
		}
		if refs == 0 {
			if err := txWords.Delete(ctx, wordID); err != nil {
				return err
			}
		}

		text := wordID.String()
		if word != nil {
			text = word.Text
		}
		entry, err := domain.NewActivityEntry(userID,
			fmt.Sprintf("Word %q deleted", text),
			domain.ActivityLevelInfo, domain.ActivityWordDeleted)
		if err != nil {
			return err
		}
		return s.activityStore.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		log.Error("failed to delete word",
			slog.String("error", err.Error()),
			slog.String("word_id", wordID.String()),
			slog.String("user_id", userID.String()))
		return newServiceError("vocabulary", "delete_word", err)
	}

	log.Info("word deleted",
		slog.String("word_id", wordID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// ResetWordProgress implements VocabularyService.ResetWordProgress.
func (s *VocabularyServiceImpl) ResetWordProgress(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*WordDetails, error) {
	details, err := s.GetWordDetails(ctx, userID, wordID)
	if err != nil {
		return nil, err
	}

	userWord, err := s.srsService.Reset(details.UserWord, time.Now().UTC())
	if err != nil {
		return nil, newServiceError("vocabulary", "reset_word", err)
	}
	if err := s.userWordStore.Update(ctx, userWord); err != nil {
		return nil, newServiceError("vocabulary", "reset_word", err)
	}

	details.UserWord = userWord
	return details, nil
}

// GetWord implements task.WordService.GetWord.
func (s *VocabularyServiceImpl) GetWord(ctx context.Context, wordID uuid.UUID) (*domain.Word, error) {
	word, err := s.wordStore.GetByID(ctx, wordID)
	if err != nil {
		if errors.Is(err, store.ErrWordNotFound) {
			return nil, ErrWordNotFound
		}
		return nil, newServiceError("vocabulary", "get_word", err)
	}
	return word, nil
}

// ApplyEnrichment implements task.WordService.ApplyEnrichment. It fills the
// generated fields without clobbering anything a user typed in by hand and
// records a word_enriched activity for the user who requested the word.
func (s *VocabularyServiceImpl) ApplyEnrichment(
	ctx context.Context,
	wordID, userID uuid.UUID,
	content *generation.WordContent,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	word, err := s.wordStore.GetByID(ctx, wordID)
	if err != nil {
		if errors.Is(err, store.ErrWordNotFound) {
			return ErrWordNotFound
		}
		return newServiceError("vocabulary", "apply_enrichment", err)
	}

	now := time.Now().UTC()
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txWords := s.wordStore.WithTx(tx)

		if word.Translation == "" {
			word.Translation = content.Translation
		}
		if word.Transcription == "" {
			word.Transcription = content.Transcription
		}
		word.UpdatedAt = now
		if err := txWords.Update(ctx, word); err != nil {
			return err
		}

		if len(content.Examples) > 0 {
			examples := make([]*domain.WordExample, 0, len(content.Examples))
			for _, ex := range content.Examples {
				example, err := domain.NewWordExample(word.ID, ex.Sentence, ex.Translation)
				if err != nil {
					return err
				}
				examples = append(examples, example)
			}
			if err := txWords.CreateExamples(ctx, examples); err != nil {
				return err
			}
		}

		entry, err := domain.NewActivityEntry(userID,
			fmt.Sprintf("Word %q enriched", word.Text),
			domain.ActivityLevelInfo, domain.ActivityWordEnriched)
		if err != nil {
			return err
		}
		return s.activityStore.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		log.Error("failed to apply enrichment",
			slog.String("error", err.Error()),
			slog.String("word_id", wordID.String()))
		return newServiceError("vocabulary", "apply_enrichment", err)
	}

	log.Info("word enriched",
		slog.String("word_id", wordID.String()),
		slog.String("text", word.Text),
		slog.Int("examples", len(content.Examples)))
	return nil
}

// cleanWordTexts trims, lowercases and de-duplicates the raw inputs,
// dropping empties. Dictionary entries are stored lowercase so lookups are
// case-insensitive.
func cleanWordTexts(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	return cleaned
}
