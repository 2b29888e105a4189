package practice

import (
	"time"

	"github.com/mind-engage/elearn/internal/course"
)

// EffectiveLimit returns nil for untimed topics, otherwise the configured
// limit raised to the minimum (or the minimum when unset).
func EffectiveLimit(t course.Topic) *int {
	if !t.IsTimedTest {
		return nil
	}
	limit := course.MinTimeLimitSeconds
	if t.TimeLimitSeconds != nil && *t.TimeLimitSeconds >= course.MinTimeLimitSeconds {
		limit = *t.TimeLimitSeconds
	}
	return &limit
}

// Remaining is limit minus whole elapsed seconds since startedAt, never
// negative. A session that never started has no elapsed time.
func Remaining(startedAt *time.Time, limit int, now time.Time) int {
	elapsed := 0
	if startedAt != nil {
		if d := now.Sub(*startedAt); d > 0 {
			elapsed = int(d / time.Second)
		}
	}
	if r := limit - elapsed; r > 0 {
		return r
	}
	return 0
}
