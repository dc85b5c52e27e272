package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncedsports/refassign/pkg/core/model"
)

func timePtr(t time.Time) *time.Time { return &t }

func weekdayPtr(d time.Weekday) *time.Weekday { return &d }

func intPtr(i int) *int { return &i }

func TestNextRun_ManualSchedule(t *testing.T) {
	next, err := NextRun(model.Schedule{Type: model.ScheduleManual}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextRun_OneTime(t *testing.T) {
	runAt := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	s := model.Schedule{Type: model.ScheduleOneTime, RunAt: &runAt}

	// Before the instant it fires at that instant
	next, err := NextRun(s, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, runAt, *next)

	// At or after the instant it is exhausted
	next, err = NextRun(s, runAt)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextRun_OneTimeWithoutInstant(t *testing.T) {
	_, err := NextRun(model.Schedule{Type: model.ScheduleOneTime}, time.Now())
	assert.Error(t, err)
}

func TestNextRun_DailyBeforeTimeOfDay(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyDaily,
		TimeOfDay: "09:00",
	}

	// 08:00 on a given day fires at 09:00 the same day
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), *next)
}

func TestNextRun_DailyAfterTimeOfDay(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyDaily,
		TimeOfDay: "09:00",
	}

	// 10:00 has missed today's occurrence, so it fires tomorrow
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), *next)
}

func TestNextRun_DailyExactlyAtTimeOfDay(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyDaily,
		TimeOfDay: "09:00",
	}

	// The next run is strictly after now
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), *next)
}

func TestNextRun_Weekly(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyWeekly,
		DayOfWeek: weekdayPtr(time.Monday),
		TimeOfDay: "18:30",
	}

	// Wednesday rolls to the following Monday
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC) // a Wednesday
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 3, 17, 18, 30, 0, 0, time.UTC), *next)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestNextRun_WeeklyWithoutDayOfWeek(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyWeekly,
		TimeOfDay: "18:30",
	}
	_, err := NextRun(s, time.Now())
	assert.Error(t, err)
}

func TestNextRun_Monthly(t *testing.T) {
	s := model.Schedule{
		Type:       model.ScheduleRecurring,
		Frequency:  model.FrequencyMonthly,
		DayOfMonth: intPtr(15),
		TimeOfDay:  "07:00",
	}

	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 4, 15, 7, 0, 0, 0, time.UTC), *next)
}

func TestNextRun_MonthlyDayClampedTo28(t *testing.T) {
	s := model.Schedule{
		Type:       model.ScheduleRecurring,
		Frequency:  model.FrequencyMonthly,
		DayOfMonth: intPtr(31),
		TimeOfDay:  "07:00",
	}

	// February has no 31st; the clamp anchors the occurrence to the 28th so
	// every month fires.
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 2, 28, 7, 0, 0, 0, time.UTC), *next)
}

func TestNextRun_StartDateClamp(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyDaily,
		TimeOfDay: "09:00",
		StartDate: timePtr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
	}

	// Before the start date, the first occurrence is on the start date itself
	now := time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), *next)
}

func TestNextRun_EndDateExpiry(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyDaily,
		TimeOfDay: "09:00",
		EndDate:   timePtr(time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)),
	}

	// The end date itself still fires
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	next, err := NextRun(s, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC), *next)

	// Past the end date the schedule is retired
	now = time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)
	next, err = NextRun(s, now)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextRun_Deterministic(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyWeekly,
		DayOfWeek: weekdayPtr(time.Friday),
		TimeOfDay: "17:45",
	}
	now := time.Date(2025, 7, 2, 3, 4, 5, 0, time.UTC)

	first, err := NextRun(s, now)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NextRun(s, now)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNextRun_InvalidTimeOfDay(t *testing.T) {
	s := model.Schedule{
		Type:      model.ScheduleRecurring,
		Frequency: model.FrequencyDaily,
		TimeOfDay: "25:99",
	}
	_, err := NextRun(s, time.Now())
	assert.Error(t, err)
}

func TestNextRun_UnknownScheduleType(t *testing.T) {
	_, err := NextRun(model.Schedule{Type: "hourly"}, time.Now())
	assert.Error(t, err)
}
