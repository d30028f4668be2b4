package training

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/maximus-ms/enbot/internal/domain"
)

// mcWrongOptions is how many wrong choices a multiple-choice prompt asks
// the word pool for.
const mcWrongOptions = 3

// attachments marks extra content to include when a prompt is repeated
// after a help action.
type attachments struct {
	pronounce bool
	examples  bool
}

// buildPrompt assembles the prompt for a word and method. Caller holds the
// session lock.
func (s *serviceImpl) buildPrompt(
	ctx context.Context,
	sess *session,
	word *sessionWord,
	method string,
	attach attachments,
) (*Prompt, error) {
	w := word.entry.Word
	prompt := &Prompt{
		CycleID:        sess.cycleID,
		UserWordID:     word.entry.UserWord.ID,
		WordID:         w.ID,
		Method:         method,
		WordsRemaining: len(sess.words),
	}

	switch method {
	case MethodRemember:
		prompt.Instruction = "Do you know this word?"
		prompt.Question = w.Text
		prompt.Transcription = w.Transcription
		prompt.Options = []Option{
			{Label: "I know it", Action: ActionAnswerYes},
			{Label: "I don't know", Action: ActionAnswerNo},
		}

	case MethodMultipleChoiceNative:
		prompt.Instruction = "Choose the translation"
		prompt.Question = w.Text
		prompt.Transcription = w.Transcription
		options, err := s.choiceOptions(ctx, sess, w,
			func(other *domain.Word) string { return other.Translation }, w.Translation)
		if err != nil {
			return nil, err
		}
		prompt.Options = options

	case MethodMultipleChoiceTarget:
		prompt.Instruction = "Choose the word"
		prompt.Question = w.Translation
		options, err := s.choiceOptions(ctx, sess, w,
			func(other *domain.Word) string { return other.Text }, w.Text)
		if err != nil {
			return nil, err
		}
		prompt.Options = options

	case MethodSpelling:
		prompt.Instruction = "Type the word for"
		prompt.Question = w.Translation
		prompt.ExpectsText = true

	case MethodTranslation:
		example := sess.currentExample
		if example == nil && len(word.examples) > 0 {
			example = word.examples[rand.Intn(len(word.examples))]
			sess.currentExample = example
		}
		prompt.Instruction = "Translate"
		if example != nil {
			prompt.Question = example.Sentence
		} else {
			prompt.Question = w.Text
		}
		prompt.ExpectsText = true

	default:
		return nil, fmt.Errorf("unknown training method %q", method)
	}

	if attach.pronounce {
		prompt.Pronunciation = w.PronunciationFile
		prompt.Transcription = w.Transcription
	}
	if attach.examples {
		prompt.Examples = word.examples
	}

	prompt.Options = append(prompt.Options, standardOptions(word)...)
	return prompt, nil
}

// choiceOptions builds the shuffled answer options for a multiple-choice
// prompt: the correct label plus wrong ones drawn from the user's other
// words, with "I don't know" always last.
func (s *serviceImpl) choiceOptions(
	ctx context.Context,
	sess *session,
	w *domain.Word,
	label func(*domain.Word) string,
	correct string,
) ([]Option, error) {
	pool, err := s.wordPool.GetRandomWords(ctx, sess.userID, mcWrongOptions, w.ID)
	if err != nil {
		return nil, err
	}

	options := []Option{{Label: correct, Action: ActionAnswerYes}}
	seen := map[string]bool{strings.ToLower(correct): true}
	for _, other := range pool {
		text := label(other)
		key := strings.ToLower(text)
		if text == "" || seen[key] {
			continue
		}
		seen[key] = true
		options = append(options, Option{Label: text, Action: ActionAnswerNo})
	}

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return append(options, Option{Label: "I don't know", Action: ActionAnswerNo}), nil
}

// standardOptions are the help and bookkeeping replies present on every
// prompt.
func standardOptions(word *sessionWord) []Option {
	options := []Option{{Label: "Pronounce", Action: ActionPronounce}}
	if len(word.examples) > 0 {
		options = append(options, Option{Label: "Show examples", Action: ActionShowExamples})
	}
	return append(options,
		Option{Label: "Mark as learned", Action: ActionMarkLearned},
		Option{Label: "Skip", Action: ActionSkip},
		Option{Label: "Delete", Action: ActionDelete},
	)
}
