package learning

import (
	"math/rand"
	"sort"

	"github.com/maximus-ms/enbot/internal/domain"
)

// sampleByPriority picks up to quota words using bucket sampling: words are
// grouped by priority, buckets are accumulated whole from the highest
// priority down until the quota is covered, and the quota is then sampled
// uniformly from the accumulated pool. Every word in the cut-off bucket has
// the same chance, so a large low-priority bucket cannot starve its peers.
func sampleByPriority(words []*domain.UserWord, quota int) []*domain.UserWord {
	if quota <= 0 || len(words) == 0 {
		return nil
	}

	buckets := make(map[int][]*domain.UserWord)
	priorities := make([]int, 0)
	for _, w := range words {
		if _, seen := buckets[w.Priority]; !seen {
			priorities = append(priorities, w.Priority)
		}
		buckets[w.Priority] = append(buckets[w.Priority], w)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(priorities)))

	pool := make([]*domain.UserWord, 0, quota)
	for _, p := range priorities {
		pool = append(pool, buckets[p]...)
		if len(pool) >= quota {
			break
		}
	}

	if len(pool) <= quota {
		return pool
	}
	return sampleWords(pool, quota)
}

// sampleWords returns count words drawn uniformly without replacement.
func sampleWords(words []*domain.UserWord, count int) []*domain.UserWord {
	if count >= len(words) {
		return words
	}
	picked := make([]*domain.UserWord, 0, count)
	for _, i := range rand.Perm(len(words))[:count] {
		picked = append(picked, words[i])
	}
	return picked
}

// shuffleWords randomizes the order of the selection in place so a cycle
// does not always open with the review words.
func shuffleWords(words []*domain.UserWord) {
	rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
}
