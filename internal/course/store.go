package course

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type ListOpts struct {
	Q        string // matches title or description
	AuthorID string
	Limit    int
	Offset   int
}

// Catalog is the read side used by students and the practice flow.
type Catalog interface {
	ListCourses(ctx context.Context, opts ListOpts) ([]Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error) // modules + topics
	Enroll(ctx context.Context, courseID int64, userID string) error
	IsEnrolled(ctx context.Context, courseID int64, userID string) (bool, error)
	ListEnrolled(ctx context.Context, userID string) ([]Course, error)

	GetTopic(ctx context.Context, id int64) (Topic, error)
	GetQuestion(ctx context.Context, id int64) (Question, error) // with options
	ListQuestions(ctx context.Context, topicID int64) ([]Question, error)
}

// Authoring is the teacher side. authorID scopes every call to the caller's
// own courses; an empty authorID (admin) is not scoped. Rows owned by
// somebody else are reported as ErrNotFound.
type Authoring interface {
	ListAuthored(ctx context.Context, authorID string) ([]Course, error)
	GetCourseTree(ctx context.Context, authorID string, id int64) (Course, error)
	CreateCourse(ctx context.Context, authorID string, in CourseInput) (Course, error)
	UpdateCourse(ctx context.Context, authorID string, id int64, p CoursePatch) (Course, error)
	DeleteCourse(ctx context.Context, authorID string, id int64) error

	CreateModule(ctx context.Context, authorID string, courseID int64, in ModuleInput) (Module, error)
	UpdateModule(ctx context.Context, authorID string, id int64, p ModulePatch) (Module, error)
	DeleteModule(ctx context.Context, authorID string, id int64) error

	GetAuthoredTopic(ctx context.Context, authorID string, id int64) (Topic, error)
	CreateTopic(ctx context.Context, authorID string, moduleID int64, in TopicInput) (Topic, error)
	UpdateTopic(ctx context.Context, authorID string, id int64, p TopicPatch) (Topic, error)
	DeleteTopic(ctx context.Context, authorID string, id int64) error

	CreateQuestion(ctx context.Context, authorID string, topicID int64, in QuestionInput) (Question, error)
	UpdateQuestion(ctx context.Context, authorID string, id int64, p QuestionPatch) (Question, error)
	DeleteQuestion(ctx context.Context, authorID string, id int64) error
}
