package notification

import (
	"fmt"
	"strings"

	"github.com/maximus-ms/enbot/internal/domain"
)

// achievementMilestones maps learned-word counts to their messages. A
// milestone fires when the learned count lands exactly on it.
var achievementMilestones = map[int]string{
	10: "🎉 Achievement unlocked!\n\n" +
		"You've learned your first 10 words!\n" +
		"Keep up the great work! 🌟",
	50: "🏆 Achievement unlocked!\n\n" +
		"You've learned 50 words!\n" +
		"You're making amazing progress! 🌟",
	100: "🌟 Achievement unlocked!\n\n" +
		"You've learned 100 words!\n" +
		"You're becoming a vocabulary master! 🌟",
	500: "👑 Achievement unlocked!\n\n" +
		"You've learned 500 words!\n" +
		"You're absolutely incredible! 🌟",
}

// streakMilestones maps completed-cycle counts over the trailing week to
// their messages.
var streakMilestones = map[int]string{
	7: "🔥 Amazing streak!\n\n" +
		"You've completed 7 learning cycles this week!\n" +
		"You're on fire! Keep it up! 🌟",
	30: "🌟 Legendary streak!\n\n" +
		"You've completed 30 learning cycles this week!\n" +
		"You're absolutely incredible! 🌟",
}

// reviewReminderWordLimit caps how many due words a review reminder lists.
const reviewReminderWordLimit = 5

// dailyStats carries everything the daily summary message mentions.
type dailyStats struct {
	totalWords   int
	learnedWords int
	dueWords     int

	// activeCycle is nil when the user has no open cycle.
	activeCycle *domain.LearningCycle
}

// dailyReminderMessage formats the user's morning summary.
func dailyReminderMessage(user *domain.User, stats dailyStats) string {
	progress := 0.0
	if stats.totalWords > 0 {
		progress = float64(stats.learnedWords) / float64(stats.totalWords) * 100
	}

	var b strings.Builder
	b.WriteString("🌅 Good morning!\n\n")
	b.WriteString("📊 Your learning progress:\n")
	fmt.Fprintf(&b, "• Total words: %d\n", stats.totalWords)
	fmt.Fprintf(&b, "• Learned words: %d\n", stats.learnedWords)
	fmt.Fprintf(&b, "• Progress: %.1f%%\n", progress)
	fmt.Fprintf(&b, "• Words for review: %d\n\n", stats.dueWords)

	if stats.activeCycle != nil {
		b.WriteString("🎯 Today's goals:\n")
		fmt.Fprintf(&b, "• Words learned: %d/%d\n",
			stats.activeCycle.WordsLearned, user.DailyGoalWords)
		fmt.Fprintf(&b, "• Time spent: %.1f/%d minutes\n\n",
			stats.activeCycle.TimeSpent, user.DailyGoalMinutes)
	}

	b.WriteString("💡 Ready to learn some new words?")
	return b.String()
}

// reviewReminderMessage formats the due-words nudge. The words slice holds
// the first few due words; dueCount is the full count.
func reviewReminderMessage(words []*domain.Word, dueCount int) string {
	var b strings.Builder
	b.WriteString("⏰ Time for review!\n\n")
	fmt.Fprintf(&b, "You have %d words to review:\n", dueCount)

	for _, word := range words {
		fmt.Fprintf(&b, "• %s\n", word.Text)
	}
	if dueCount > len(words) {
		fmt.Fprintf(&b, "... and %d more\n", dueCount-len(words))
	}

	return b.String()
}
