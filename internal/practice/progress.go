package practice

import "time"

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the session has ended.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress is the per-(user, topic) session record. Its fields are only
// changed through the methods below, which keep status moving forward and
// treat TimedOut and CompletedAt as write-once.
type Progress struct {
	ID               int64      `json:"id"`
	UserID           string     `json:"user_id"`
	TopicID          int64      `json:"topic_id"`
	Status           Status     `json:"status"`
	Score            *int       `json:"score"`
	IsTimed          bool       `json:"is_timed"`
	TimeLimitSeconds *int       `json:"time_limit_seconds"`
	StartedAt        *time.Time `json:"started_at"`
	TimedOut         bool       `json:"timed_out"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// begin applies lazy start for limit (nil when the topic is untimed).
// The timing snapshot is only refreshed when it was never recorded or the
// timing mode flipped.
func (p *Progress) begin(limit *int, now time.Time) bool {
	changed := false
	if p.Status == StatusNotStarted {
		p.Status = StatusInProgress
		changed = true
	}
	timed := limit != nil
	if p.IsTimed != timed || (timed && p.TimeLimitSeconds == nil) {
		p.IsTimed = timed
		p.TimeLimitSeconds = copyInt(limit)
		changed = true
	}
	if timed && p.StartedAt == nil {
		// Stored at second precision; rounding up keeps Remaining from
		// ending a session before the full limit has passed.
		t := now.Truncate(time.Second)
		if t.Before(now) {
			t = t.Add(time.Second)
		}
		p.StartedAt = &t
		changed = true
	}
	return changed
}

// limitOr is the recorded limit, or fallback when none was recorded.
func (p *Progress) limitOr(fallback int) int {
	if p.TimeLimitSeconds != nil && *p.TimeLimitSeconds > 0 {
		return *p.TimeLimitSeconds
	}
	return fallback
}

// setScore records a running score on a live session.
func (p *Progress) setScore(score int) bool {
	if p.Status.Terminal() || (p.Score != nil && *p.Score == score) {
		return false
	}
	p.Score = &score
	return true
}

func (p *Progress) markTimedOut() bool {
	if p.TimedOut || p.Status.Terminal() {
		return false
	}
	p.TimedOut = true
	return true
}

func (p *Progress) complete(score int, now time.Time) bool {
	return p.finish(StatusCompleted, score, now)
}

func (p *Progress) fail(score int, now time.Time) bool {
	return p.finish(StatusFailed, score, now)
}

func (p *Progress) finish(st Status, score int, now time.Time) bool {
	if p.Status.Terminal() {
		return false
	}
	p.Status = st
	p.Score = &score
	if p.CompletedAt == nil {
		t := now.Truncate(time.Second)
		p.CompletedAt = &t
	}
	return true
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
