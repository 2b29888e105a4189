package grading

import (
	"context"

	"github.com/mind-engage/elearn/internal/course"
)

// Q is the minimal view of a question needed for grading.
type Q struct {
	Type     course.QuestionType
	MaxScore int
	Correct  []int64 // ids of options flagged correct
}

// FromQuestion builds the grading view of q.
func FromQuestion(q course.Question) Q {
	return Q{Type: q.Type, MaxScore: q.MaxScore, Correct: q.CorrectOptionIDs()}
}

// Result is the outcome of grading one submission.
type Result struct {
	Correct bool
	Score   int // 0 or MaxScore
}

// Strategy grades a single question type.
type Strategy interface {
	Grade(ctx context.Context, q Q, selected []int64) Result
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, selected []int64) Result
}

type defaultGrader struct {
	strategies map[course.QuestionType]Strategy
}

// Grade scores unknown types as incorrect.
func (g *defaultGrader) Grade(ctx context.Context, q Q, selected []int64) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}
	}
	return s.Grade(ctx, q, selected)
}

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[course.QuestionType]Strategy{
			course.QuestionSingle: exactSetStrategy{},
			course.QuestionMulti:  exactSetStrategy{},
			course.QuestionCode:   codeStrategy{},
		},
	}
}

// --- Strategies ---

// exactSetStrategy awards full marks when the selection equals the correct
// set. A question with no correct options can never be answered correctly.
type exactSetStrategy struct{}

func (exactSetStrategy) Grade(_ context.Context, q Q, selected []int64) Result {
	correct := toSet(q.Correct)
	if len(correct) == 0 || !setEqual(correct, toSet(selected)) {
		return Result{}
	}
	return Result{Correct: true, Score: q.MaxScore}
}

// codeStrategy is a placeholder: code answers are not graded.
type codeStrategy struct{}

func (codeStrategy) Grade(context.Context, Q, []int64) Result { return Result{} }

// helpers

func toSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
