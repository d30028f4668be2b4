package training

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximus-ms/enbot/internal/domain"
)

func testWord(text string) *domain.Word {
	return &domain.Word{
		ID:           uuid.New(),
		Text:         text,
		Translation:  "переклад",
		LanguagePair: "en-uk",
	}
}

func TestRequiredMethodsEnabledOnly(t *testing.T) {
	t.Parallel()

	examples := []*domain.WordExample{{ID: uuid.New(), Sentence: "a", Translation: "b"}}

	// Even a long word with examples only gets the enabled methods;
	// spelling and translation stay gated.
	required := requiredMethods(testWord("beautiful"), examples)
	assert.Equal(t, []string{
		MethodRemember,
		MethodMultipleChoiceNative,
		MethodMultipleChoiceTarget,
	}, required)

	required = requiredMethods(testWord("cat"), nil)
	assert.Equal(t, []string{
		MethodRemember,
		MethodMultipleChoiceNative,
		MethodMultipleChoiceTarget,
	}, required)
}

func TestMethodApplicability(t *testing.T) {
	t.Parallel()

	spelling := methodRegistry[MethodSpelling]
	assert.False(t, spelling.Applicable(testWord("short"), nil))
	assert.True(t, spelling.Applicable(testWord("beautiful"), nil))

	translation := methodRegistry[MethodTranslation]
	assert.False(t, translation.Applicable(testWord("cat"), nil))
	assert.True(t, translation.Applicable(
		testWord("cat"),
		[]*domain.WordExample{{Sentence: "The cat sleeps", Translation: "Кіт спить"}},
	))
}

func TestWordProgressLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	progress := NewWordProgress([]string{MethodRemember, MethodMultipleChoiceNative})

	assert.False(t, progress.Complete())
	assert.Equal(t,
		[]string{MethodRemember, MethodMultipleChoiceNative},
		progress.IncompleteMethods())

	progress.RecordAttempt(MethodRemember, false, now)
	assert.False(t, progress.Complete())
	assert.Equal(t, 1, progress.Attempts[MethodRemember])

	progress.RecordAttempt(MethodRemember, true, now)
	assert.Equal(t, 2, progress.Attempts[MethodRemember])
	assert.Equal(t, []string{MethodMultipleChoiceNative}, progress.IncompleteMethods())
	assert.False(t, progress.Complete())

	progress.RecordAttempt(MethodMultipleChoiceNative, true, now)
	assert.True(t, progress.Complete())
	assert.Empty(t, progress.IncompleteMethods())
}

func TestWordProgressCompleteAll(t *testing.T) {
	t.Parallel()

	progress := NewWordProgress([]string{MethodRemember, MethodMultipleChoiceTarget})
	progress.RecordAttempt(MethodRemember, true, time.Now().UTC())

	progress.CompleteAll(time.Now().UTC())

	assert.True(t, progress.Complete())
	// Already-completed methods are not duplicated.
	assert.Len(t, progress.Completed, 2)
}

func TestRestoreWordProgress(t *testing.T) {
	t.Parallel()

	original := NewWordProgress([]string{MethodRemember, MethodSpelling})
	original.RecordAttempt(MethodRemember, true, time.Now().UTC())
	original.CurrentMethod = MethodSpelling

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := RestoreWordProgress(raw)
	require.NoError(t, err)
	assert.Equal(t, original.Required, restored.Required)
	assert.Equal(t, original.Completed, restored.Completed)
	assert.Equal(t, original.Attempts, restored.Attempts)
	assert.Equal(t, MethodSpelling, restored.CurrentMethod)
}

func TestRestoreWordProgressInvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := RestoreWordProgress(json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestRestoreWordProgressFillsNilMaps(t *testing.T) {
	t.Parallel()

	restored, err := RestoreWordProgress(json.RawMessage(`{"required":["remember"]}`))
	require.NoError(t, err)
	assert.NotNil(t, restored.Attempts)
	assert.NotNil(t, restored.Completed)
}

func TestNextMethodEmptyWhenComplete(t *testing.T) {
	t.Parallel()

	progress := NewWordProgress([]string{MethodRemember})
	progress.RecordAttempt(MethodRemember, true, time.Now().UTC())

	assert.Equal(t, "", progress.NextMethod(false, ""))
}

func TestNextMethodPrefersFewestAttempts(t *testing.T) {
	t.Parallel()

	progress := NewWordProgress([]string{
		MethodRemember,
		MethodMultipleChoiceNative,
		MethodMultipleChoiceTarget,
	})
	progress.Attempts[MethodRemember] = 5
	progress.Attempts[MethodMultipleChoiceNative] = 3
	progress.Attempts[MethodMultipleChoiceTarget] = 4

	// Top-two candidates by attempts are the two choice methods; remember
	// with its five attempts must never be picked.
	for i := 0; i < 25; i++ {
		got := progress.NextMethod(false, "")
		assert.Contains(t,
			[]string{MethodMultipleChoiceNative, MethodMultipleChoiceTarget}, got)
	}
}

func TestNextMethodLastWordExcludesPrevious(t *testing.T) {
	t.Parallel()

	progress := NewWordProgress([]string{MethodRemember, MethodMultipleChoiceNative})
	progress.RecordAttempt(MethodMultipleChoiceNative, true, time.Now().UTC())

	// Only remember is incomplete; on the last word the previous method is
	// excluded, so the completed choice method comes back for extra
	// practice instead of repeating the same prompt.
	got := progress.NextMethod(true, MethodRemember)
	assert.Equal(t, MethodMultipleChoiceNative, got)
}

func TestNextMethodLastWordKeepsOnlyOption(t *testing.T) {
	t.Parallel()

	progress := NewWordProgress([]string{MethodRemember})

	// Nothing else to fall back to, so the same method repeats.
	got := progress.NextMethod(true, MethodRemember)
	assert.Equal(t, MethodRemember, got)
}
