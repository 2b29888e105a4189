package practice

import (
	"context"
	"time"

	"github.com/mind-engage/elearn/internal/course"
)

// Answer is the live answer of a user to one question; resubmission overwrites it.
type Answer struct {
	UserID     string    `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	Selected   []int64   `json:"selected_option_ids"`
	IsCorrect  bool      `json:"is_correct"`
	Score      int       `json:"score"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Repository persists answers and progress. Implementations serialize
// same-key writes through unique (user, question) and (user, topic) keys.
type Repository interface {
	// GetProgress reports found=false when the user never touched the topic.
	GetProgress(ctx context.Context, userID string, topicID int64) (p Progress, found bool, err error)
	// EnsureProgress is an atomic get-or-create; new rows are not_started.
	EnsureProgress(ctx context.Context, userID string, topicID int64) (Progress, error)
	SaveProgress(ctx context.Context, p Progress) error
	ListProgressForCourse(ctx context.Context, userID string, courseID int64) ([]Progress, error)

	ListAnswers(ctx context.Context, userID string, topicID int64) ([]Answer, error)
	UpsertAnswer(ctx context.Context, a Answer) error

	// ResetTopic deletes the user's answers for the topic and resets the
	// progress row in one unit.
	ResetTopic(ctx context.Context, userID string, topicID int64, isTimed bool, limit *int) (Progress, error)
}

// Catalog is the part of the course catalog the practice flow reads.
type Catalog interface {
	GetCourse(ctx context.Context, id int64) (course.Course, error)
	IsEnrolled(ctx context.Context, courseID int64, userID string) (bool, error)
	GetTopic(ctx context.Context, id int64) (course.Topic, error)
	GetQuestion(ctx context.Context, id int64) (course.Question, error)
	ListQuestions(ctx context.Context, topicID int64) ([]course.Question, error)
}

// Event types published by the service.
const (
	EventAnswerSubmitted = "AnswerSubmitted"
	EventTopicCompleted  = "TopicCompleted"
	EventTopicFailed     = "TopicFailed"
	EventTopicReset      = "TopicReset"
)

// EventSink receives practice events. key is "user:topic".
type EventSink interface {
	Publish(ctx context.Context, typ, key string, payload any) error
}
