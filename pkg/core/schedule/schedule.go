// Package schedule computes the next execution instant of a rule's schedule.
package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// NextRun returns the next instant strictly after now at which the schedule
// should fire, or nil when the schedule has no future occurrence (manual
// schedules, exhausted one-time schedules, recurring schedules past their end
// date). A malformed schedule is a configuration error and fails fast.
//
// The result is deterministic for identical (schedule, now) inputs.
func NextRun(s model.Schedule, now time.Time) (*time.Time, error) {
	switch s.Type {
	case model.ScheduleManual:
		return nil, nil
	case model.ScheduleOneTime:
		if s.RunAt == nil {
			return nil, fmt.Errorf("one_time schedule has no run instant")
		}
		if s.RunAt.After(now) {
			t := *s.RunAt
			return &t, nil
		}
		return nil, nil
	case model.ScheduleRecurring:
		return nextRecurring(s, now)
	default:
		return nil, fmt.Errorf("unknown schedule type %q", s.Type)
	}
}

func nextRecurring(s model.Schedule, now time.Time) (*time.Time, error) {
	hour, minute, err := parseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return nil, err
	}

	opt := rrule.ROption{
		Dtstart:  recurrenceBase(s, now),
		Byhour:   []int{hour},
		Byminute: []int{minute},
		Bysecond: []int{0},
	}

	switch s.Frequency {
	case model.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case model.FrequencyWeekly:
		if s.DayOfWeek == nil {
			return nil, fmt.Errorf("weekly schedule requires day_of_week")
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rruleWeekday(*s.DayOfWeek)}
	case model.FrequencyMonthly:
		if s.DayOfMonth == nil {
			return nil, fmt.Errorf("monthly schedule requires day_of_month")
		}
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{clampDayOfMonth(*s.DayOfMonth)}
	default:
		return nil, fmt.Errorf("unknown frequency %q", s.Frequency)
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence: %w", err)
	}

	// Clamp to the start date: occurrences on the start date itself count, so
	// back the cursor off by a nanosecond when now precedes it.
	from := now
	if s.StartDate != nil {
		start := startOfDay(*s.StartDate)
		if from.Before(start) {
			from = start.Add(-time.Nanosecond)
		}
	}

	next := rr.After(from, false)
	if next.IsZero() {
		return nil, nil
	}
	if s.EndDate != nil && next.After(endOfDay(*s.EndDate)) {
		return nil, nil
	}
	return &next, nil
}

// recurrenceBase picks the DTSTART for occurrence generation. The start date
// anchors it when present; otherwise a day before now is enough, since only
// occurrences after now are ever requested.
func recurrenceBase(s model.Schedule, now time.Time) time.Time {
	if s.StartDate != nil {
		return startOfDay(*s.StartDate)
	}
	return startOfDay(now.AddDate(0, 0, -1))
}

func parseTimeOfDay(tod string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", tod)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time_of_day %q: %w", tod, err)
	}
	return t.Hour(), t.Minute(), nil
}

// clampDayOfMonth bounds the anchor to 1-28 so every month has the day.
func clampDayOfMonth(day int) int {
	if day < 1 {
		return 1
	}
	if day > 28 {
		return 28
	}
	return day
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
