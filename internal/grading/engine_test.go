package grading_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/grading"
)

func TestDefaultGrader(t *testing.T) {
	g := grading.NewDefaultGrader()
	ctx := context.Background()

	single := grading.Q{Type: course.QuestionSingle, MaxScore: 100, Correct: []int64{2}}
	multi := grading.Q{Type: course.QuestionMulti, MaxScore: 40, Correct: []int64{1, 3}}

	cases := []struct {
		name     string
		q        grading.Q
		selected []int64
		want     grading.Result
	}{
		{"single correct", single, []int64{2}, grading.Result{Correct: true, Score: 100}},
		{"single wrong", single, []int64{1}, grading.Result{}},
		{"single empty", single, nil, grading.Result{}},
		{"multi exact", multi, []int64{3, 1}, grading.Result{Correct: true, Score: 40}},
		{"multi subset", multi, []int64{1}, grading.Result{}},
		{"multi superset", multi, []int64{1, 2, 3}, grading.Result{}},
		{"no correct options", grading.Q{Type: course.QuestionSingle, MaxScore: 100}, nil, grading.Result{}},
		{"code never correct", grading.Q{Type: course.QuestionCode, MaxScore: 100, Correct: []int64{5}}, []int64{5}, grading.Result{}},
		{"unknown type", grading.Q{Type: "essay", MaxScore: 100, Correct: []int64{5}}, []int64{5}, grading.Result{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.Grade(ctx, tc.q, tc.selected))
		})
	}
}

func TestFromQuestion(t *testing.T) {
	q := course.Question{
		Type:     course.QuestionMulti,
		MaxScore: 70,
		Options: []course.Option{
			{ID: 10, IsCorrect: true}, {ID: 11}, {ID: 12, IsCorrect: true},
		},
	}
	got := grading.FromQuestion(q)
	assert.Equal(t, course.QuestionMulti, got.Type)
	assert.Equal(t, 70, got.MaxScore)
	assert.Equal(t, []int64{10, 12}, got.Correct)
}
