// Package training runs the per-word practice loop inside a learning
// cycle: it keeps an in-memory session per user, picks which word and which
// training method to show next, grades answers and hands completed words to
// the learning service.
package training

import (
	"github.com/maximus-ms/enbot/internal/domain"
)

// Training method identifiers. They are stored in cycle word progress, so
// changing one invalidates persisted session state.
const (
	MethodRemember             = "remember"
	MethodMultipleChoiceNative = "multiple_choice_native"
	MethodMultipleChoiceTarget = "multiple_choice_target"
	MethodSpelling             = "spelling"
	MethodTranslation          = "translation"
)

// spellingMinLength is the minimum word length for the spelling method;
// typing three-letter words teaches nothing.
const spellingMinLength = 7

// Method describes one way of practicing a word. Priority orders methods
// when attempts are tied: lower means earlier, so words are introduced with
// recognition before recall.
type Method struct {
	ID       string
	Priority int

	// Applicable reports whether the method can be used for the word.
	Applicable func(word *domain.Word, examples []*domain.WordExample) bool
}

// methodRegistry holds every known method keyed by ID.
var methodRegistry = map[string]Method{
	MethodRemember: {
		ID:       MethodRemember,
		Priority: 1,
		Applicable: func(word *domain.Word, examples []*domain.WordExample) bool {
			return true
		},
	},
	MethodMultipleChoiceNative: {
		ID:       MethodMultipleChoiceNative,
		Priority: 2,
		Applicable: func(word *domain.Word, examples []*domain.WordExample) bool {
			return true
		},
	},
	MethodMultipleChoiceTarget: {
		ID:       MethodMultipleChoiceTarget,
		Priority: 3,
		Applicable: func(word *domain.Word, examples []*domain.WordExample) bool {
			return true
		},
	},
	MethodSpelling: {
		ID:       MethodSpelling,
		Priority: 4,
		Applicable: func(word *domain.Word, examples []*domain.WordExample) bool {
			return len(word.Text) >= spellingMinLength
		},
	},
	MethodTranslation: {
		ID:       MethodTranslation,
		Priority: 5,
		Applicable: func(word *domain.Word, examples []*domain.WordExample) bool {
			return len(examples) > 0
		},
	},
}

// enabledMethods is the active whitelist. Spelling and translation exist in
// the registry but are not enabled yet; their prompts and grading work, the
// rollout is just gated here.
var enabledMethods = []string{
	MethodRemember,
	MethodMultipleChoiceNative,
	MethodMultipleChoiceTarget,
}

// methodPriority returns the selection priority for a method ID. Unknown
// methods sort last.
func methodPriority(id string) int {
	if m, ok := methodRegistry[id]; ok {
		return m.Priority
	}
	return len(methodRegistry) + 1
}

// requiredMethods returns the enabled methods applicable to the word, in
// priority order. Every one of them must be completed before the word
// counts as learned.
func requiredMethods(word *domain.Word, examples []*domain.WordExample) []string {
	required := make([]string, 0, len(enabledMethods))
	for _, id := range enabledMethods {
		if methodRegistry[id].Applicable(word, examples) {
			required = append(required, id)
		}
	}
	return required
}
