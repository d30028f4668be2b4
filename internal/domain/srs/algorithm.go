package srs

import "time"

// nextReviewTime computes the moment a word at the given review stage should
// next be shown, counted from now. The stage indexes the repetition interval
// ladder; stages past the end of the ladder keep the last interval.
func nextReviewTime(params Params, stage int, now time.Time) time.Time {
	return now.Add(params.Interval(stage))
}

// learningDayStart returns the start of the learning day containing t.
// A learning day begins at dayStartHour rather than midnight, so activity
// before that hour belongs to the previous calendar day. Times are compared
// in UTC.
func learningDayStart(t time.Time, dayStartHour int) time.Time {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), dayStartHour, 0, 0, 0, time.UTC)
	if t.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// sameLearningDay reports whether a and b fall within the same learning day.
func sameLearningDay(a, b time.Time, dayStartHour int) bool {
	return learningDayStart(a, dayStartHour).Equal(learningDayStart(b, dayStartHour))
}
