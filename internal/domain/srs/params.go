package srs

import (
	"fmt"
	"time"
)

// Default repetition schedule. A word answered correctly at stage N is
// scheduled again after DefaultRepetitionIntervals[N] days; stages past the
// end of the table keep the last interval.
var DefaultRepetitionIntervals = []int{1, 3, 7, 14, 30, 90, 180}

// DefaultDayStartHour is the hour (local time) at which a learning day
// rolls over. Activity before this hour counts toward the previous day, so
// late-night sessions do not split across two days.
const DefaultDayStartHour = 3

// Params holds the tunable values for the scheduling algorithm.
type Params struct {
	// RepetitionIntervals is the review ladder in days, indexed by review
	// stage. Must be non-empty with strictly positive entries.
	RepetitionIntervals []int

	// DayStartHour is the hour [0,23] at which a learning day begins.
	DayStartHour int
}

// ParamsConfig is used to create custom Params.
// Zero values will be replaced with defaults.
type ParamsConfig struct {
	RepetitionIntervals []int
	DayStartHour        int
}

// NewDefaultParams returns Params with sensible default values.
func NewDefaultParams() Params {
	intervals := make([]int, len(DefaultRepetitionIntervals))
	copy(intervals, DefaultRepetitionIntervals)

	return Params{
		RepetitionIntervals: intervals,
		DayStartHour:        DefaultDayStartHour,
	}
}

// NewParams creates Params with the provided configuration.
// Zero values in the config will be replaced with defaults.
func NewParams(config ParamsConfig) (Params, error) {
	params := NewDefaultParams()

	if len(config.RepetitionIntervals) > 0 {
		intervals := make([]int, len(config.RepetitionIntervals))
		copy(intervals, config.RepetitionIntervals)
		params.RepetitionIntervals = intervals
	}

	if config.DayStartHour != 0 {
		params.DayStartHour = config.DayStartHour
	}

	if err := params.Validate(); err != nil {
		return Params{}, err
	}

	return params, nil
}

// Validate checks that the parameters are internally consistent.
func (p Params) Validate() error {
	if len(p.RepetitionIntervals) == 0 {
		return fmt.Errorf("repetition intervals must not be empty")
	}

	for i, d := range p.RepetitionIntervals {
		if d <= 0 {
			return fmt.Errorf("repetition interval at stage %d must be positive, got %d", i, d)
		}
	}

	if p.DayStartHour < 0 || p.DayStartHour > 23 {
		return fmt.Errorf("day start hour must be between 0 and 23, got %d", p.DayStartHour)
	}

	return nil
}

// Interval returns the review interval for the given stage. Stages below
// zero use the first entry; stages past the end of the ladder are clamped
// to the last entry.
func (p Params) Interval(stage int) time.Duration {
	if stage < 0 {
		stage = 0
	}
	if stage >= len(p.RepetitionIntervals) {
		stage = len(p.RepetitionIntervals) - 1
	}

	return time.Duration(p.RepetitionIntervals[stage]) * 24 * time.Hour
}
