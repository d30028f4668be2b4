package training

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// WordProgress is the training state of one word in a session: which
// methods it still needs, which are done and how many attempts each took.
// It is serialized into the cycle word's progress column after every
// mutation, so a crashed server resumes mid-word.
type WordProgress struct {
	Required      []string       `json:"required"`
	Completed     []string       `json:"completed"`
	Attempts      map[string]int `json:"attempts"`
	CurrentMethod string         `json:"current_method,omitempty"`
	LastAttemptAt time.Time      `json:"last_attempt_at,omitempty"`
}

// NewWordProgress starts fresh progress over the given required methods.
func NewWordProgress(required []string) *WordProgress {
	return &WordProgress{
		Required:  append([]string(nil), required...),
		Completed: []string{},
		Attempts:  make(map[string]int),
	}
}

// RestoreWordProgress rebuilds progress from its serialized form.
func RestoreWordProgress(raw json.RawMessage) (*WordProgress, error) {
	var p WordProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to restore word progress: %w", err)
	}
	if p.Attempts == nil {
		p.Attempts = make(map[string]int)
	}
	if p.Completed == nil {
		p.Completed = []string{}
	}
	return &p, nil
}

// Marshal serializes the progress for storage.
func (p *WordProgress) Marshal() (json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal word progress: %w", err)
	}
	return raw, nil
}

// RecordAttempt counts an attempt at the method and completes it on
// success.
func (p *WordProgress) RecordAttempt(method string, success bool, now time.Time) {
	p.Attempts[method]++
	p.LastAttemptAt = now
	if success && !p.isCompleted(method) {
		p.Completed = append(p.Completed, method)
	}
}

// CompleteAll marks every required method done. Used when the user says
// they already know the word.
func (p *WordProgress) CompleteAll(now time.Time) {
	for _, method := range p.Required {
		if !p.isCompleted(method) {
			p.Completed = append(p.Completed, method)
		}
	}
	p.LastAttemptAt = now
}

// Complete reports whether every required method has been completed.
func (p *WordProgress) Complete() bool {
	for _, method := range p.Required {
		if !p.isCompleted(method) {
			return false
		}
	}
	return true
}

// IncompleteMethods returns the required methods not yet completed.
func (p *WordProgress) IncompleteMethods() []string {
	incomplete := make([]string, 0, len(p.Required))
	for _, method := range p.Required {
		if !p.isCompleted(method) {
			incomplete = append(incomplete, method)
		}
	}
	return incomplete
}

func (p *WordProgress) isCompleted(method string) bool {
	for _, done := range p.Completed {
		if done == method {
			return true
		}
	}
	return false
}

// NextMethod picks the method for the word's next prompt. Candidates are
// the incomplete methods; with nothing incomplete there is nothing to pick.
// On the session's last word the previous method is excluded so the same
// prompt is not shown twice in a row, falling back to already-completed
// methods (extra practice) when exclusion empties the candidate set.
// Candidates are ordered by fewest attempts, then method priority, and one
// of the top two is chosen at random to keep the drill from becoming
// predictable.
func (p *WordProgress) NextMethod(lastWord bool, prevMethod string) string {
	candidates := p.IncompleteMethods()
	if len(candidates) == 0 {
		return ""
	}

	if lastWord && prevMethod != "" {
		filtered := excludeMethod(candidates, prevMethod)
		if len(filtered) == 0 {
			filtered = excludeMethod(p.Completed, prevMethod)
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ai, aj := p.Attempts[candidates[i]], p.Attempts[candidates[j]]
		if ai != aj {
			return ai < aj
		}
		return methodPriority(candidates[i]) < methodPriority(candidates[j])
	})

	top := candidates
	if len(top) > 2 {
		top = top[:2]
	}
	return top[rand.Intn(len(top))]
}

func excludeMethod(methods []string, exclude string) []string {
	kept := make([]string, 0, len(methods))
	for _, m := range methods {
		if m != exclude {
			kept = append(kept, m)
		}
	}
	return kept
}
