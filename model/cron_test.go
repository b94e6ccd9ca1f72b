package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron_WrongFieldCount(t *testing.T) {
	_, err := ParseCron("* * *")
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, e.Kind)
}

func TestCronSchedule_Matches_EveryMinute(t *testing.T) {
	s, err := ParseCron("* * * * *")
	require.NoError(t, err)
	assert.True(t, s.Matches(time.Date(2026, 1, 5, 13, 37, 0, 0, time.UTC)))
}

func TestCronSchedule_Matches_Step(t *testing.T) {
	s, err := ParseCron("*/15 * * * *")
	require.NoError(t, err)
	assert.True(t, s.Matches(time.Date(2026, 1, 5, 13, 30, 0, 0, time.UTC)))
	assert.False(t, s.Matches(time.Date(2026, 1, 5, 13, 31, 0, 0, time.UTC)))
}

func TestCronSchedule_Matches_DomOrDow(t *testing.T) {
	// Day-of-month 1 OR day-of-week Monday: standard cron OR semantics
	// when both fields are restricted.
	s, err := ParseCron("0 9 1 * 1")
	require.NoError(t, err)

	// 2026-01-01 is a Thursday: matches via day-of-month.
	assert.True(t, s.Matches(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)))
	// 2026-01-05 is a Monday: matches via day-of-week.
	assert.True(t, s.Matches(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)))
	// 2026-01-06 is a Tuesday, not day 1: no match.
	assert.False(t, s.Matches(time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)))
}

func TestParseCron_OutOfRange(t *testing.T) {
	_, err := ParseCron("60 * * * *")
	require.Error(t, err)
}

func TestAggregateStatus(t *testing.T) {
	assert.Equal(t, StatusPending, AggregateStatus(nil))

	allDone := []TargetResult{{Status: StatusCompleted}, {Status: StatusCompleted}}
	assert.Equal(t, StatusCompleted, AggregateStatus(allDone))

	oneFailed := []TargetResult{{Status: StatusCompleted}, {Status: StatusFailed}}
	assert.Equal(t, StatusFailed, AggregateStatus(oneFailed))

	stillRunning := []TargetResult{{Status: StatusCompleted}, {Status: StatusRunning}}
	assert.Equal(t, StatusRunning, AggregateStatus(stillRunning))
}
