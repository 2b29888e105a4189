package practice_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/practice"
)

func TestPercent_RoundsHalfUp(t *testing.T) {
	cases := []struct{ n, d, want int }{
		{0, 0, 0},
		{3, 0, 0},
		{0, 5, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 8, 38},
		{5, 5, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, practice.Percent(tc.n, tc.d), "%d/%d", tc.n, tc.d)
	}
}

func TestPassed(t *testing.T) {
	assert.True(t, practice.Passed(3, 3, false))
	assert.False(t, practice.Passed(3, 3, true))
	assert.False(t, practice.Passed(2, 3, false))
	assert.False(t, practice.Passed(0, 0, false))
}

func TestEffectiveLimit_NeverBelowMinimum(t *testing.T) {
	assert.Nil(t, practice.EffectiveLimit(course.Topic{IsTimedTest: false, TimeLimitSeconds: intp(600)}))

	for _, configured := range []*int{nil, intp(0), intp(1), intp(119), intp(120), intp(121), intp(3600)} {
		got := practice.EffectiveLimit(course.Topic{IsTimedTest: true, TimeLimitSeconds: configured})
		if assert.NotNil(t, got) {
			assert.GreaterOrEqual(t, *got, course.MinTimeLimitSeconds)
			if configured != nil && *configured >= 120 {
				assert.Equal(t, *configured, *got)
			}
		}
	}
}

func TestRemaining(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 120, practice.Remaining(nil, 120, start.Add(time.Hour)))
	assert.Equal(t, 120, practice.Remaining(&start, 120, start))
	assert.Equal(t, 61, practice.Remaining(&start, 120, start.Add(59*time.Second+900*time.Millisecond)))
	assert.Equal(t, 0, practice.Remaining(&start, 120, start.Add(120*time.Second)))
	assert.Equal(t, 0, practice.Remaining(&start, 120, start.Add(10*time.Minute)))
	assert.Equal(t, 120, practice.Remaining(&start, 120, start.Add(-time.Minute)))
}
