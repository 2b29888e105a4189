package course_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/db/dbtest"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func newStore(t *testing.T) *course.SQLStore {
	t.Helper()
	dbh := dbtest.Open(t)
	dbtest.SeedUser(t, dbh, "teacher-1", "alice", "teacher")
	dbtest.SeedUser(t, dbh, "teacher-2", "bob", "teacher")
	dbtest.SeedUser(t, dbh, "student-1", "sam", "student")
	return course.NewSQLStore(dbh, "sqlite")
}

func sampleCourse() course.CourseInput {
	return course.CourseInput{
		Title:       "Intro to Go",
		Description: "Types, interfaces and goroutines",
		Modules: []course.ModuleInput{{
			Title: "Basics",
			Order: 1,
			Topics: []course.TopicInput{
				{
					Title:   "Variables",
					Content: "var x int",
					Order:   2,
					Questions: []course.QuestionInput{
						{Text: "Zero value of int?", Order: 2, Options: []course.OptionInput{
							{Text: "0", IsCorrect: true}, {Text: "nil"},
						}},
						{Text: "Pick the integer types", Order: 1, Type: course.QuestionMulti, Options: []course.OptionInput{
							{Text: "int", IsCorrect: true}, {Text: "int64", IsCorrect: true}, {Text: "string"},
						}},
					},
				},
				{Title: "Quiz", Order: 1, IsTimedTest: true, TimeLimitSeconds: intp(300)},
			},
		}},
	}
}

func TestCreateCourse_NestedTree(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c, err := s.CreateCourse(ctx, "teacher-1", sampleCourse())
	require.NoError(t, err)
	assert.Equal(t, "intro-to-go", c.Slug)
	assert.Equal(t, "alice", c.AuthorName)
	require.Len(t, c.Modules, 1)
	require.Len(t, c.Modules[0].Topics, 2)

	// topics come back ordered by sort_order
	assert.Equal(t, "Quiz", c.Modules[0].Topics[0].Title)
	assert.True(t, c.Modules[0].Topics[0].IsTimedTest)
	require.NotNil(t, c.Modules[0].Topics[0].TimeLimitSeconds)
	assert.Equal(t, 300, *c.Modules[0].Topics[0].TimeLimitSeconds)

	vars := c.Modules[0].Topics[1]
	require.Len(t, vars.Questions, 2)
	assert.Equal(t, "Pick the integer types", vars.Questions[0].Text)
	assert.Equal(t, course.QuestionMulti, vars.Questions[0].Type)
	assert.Equal(t, course.QuestionSingle, vars.Questions[1].Type)
	assert.Equal(t, course.DefaultMaxScore, vars.Questions[1].MaxScore)
	assert.Len(t, vars.Questions[0].CorrectOptionIDs(), 2)
}

func TestCreateCourse_UniqueSlugs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var slugs []string
	for i := 0; i < 3; i++ {
		c, err := s.CreateCourse(ctx, "teacher-1", course.CourseInput{Title: "Intro to Go"})
		require.NoError(t, err)
		slugs = append(slugs, c.Slug)
	}
	assert.Equal(t, []string{"intro-to-go", "intro-to-go-1", "intro-to-go-2"}, slugs)

	c, err := s.CreateCourse(ctx, "teacher-1", course.CourseInput{Title: "!!!"})
	require.NoError(t, err)
	assert.Equal(t, "course", c.Slug)
}

func TestCreateCourse_ValidationLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	in := sampleCourse()
	in.Modules[0].Topics[1].TimeLimitSeconds = intp(60)
	_, err := s.CreateCourse(ctx, "teacher-1", in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, course.ErrInvalidInput))

	in = sampleCourse()
	in.Modules[0].Topics[0].Questions[0].Type = "essay"
	_, err = s.CreateCourse(ctx, "teacher-1", in)
	assert.True(t, errors.Is(err, course.ErrInvalidInput))

	list, err := s.ListAuthored(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateCourse_ReslugAndOwnership(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c, err := s.CreateCourse(ctx, "teacher-1", course.CourseInput{Title: "Intro to Go"})
	require.NoError(t, err)

	_, err = s.UpdateCourse(ctx, "teacher-2", c.ID, course.CoursePatch{Title: strp("Stolen")})
	assert.True(t, errors.Is(err, course.ErrNotFound))

	up, err := s.UpdateCourse(ctx, "teacher-1", c.ID, course.CoursePatch{Title: strp("Advanced Go")})
	require.NoError(t, err)
	assert.Equal(t, "Advanced Go", up.Title)
	assert.Equal(t, "advanced-go", up.Slug)
	assert.Equal(t, c.Description, up.Description)

	// admin (empty author) is not scoped
	up, err = s.UpdateCourse(ctx, "", c.ID, course.CoursePatch{Description: strp("by admin")})
	require.NoError(t, err)
	assert.Equal(t, "by admin", up.Description)
	assert.Equal(t, "advanced-go", up.Slug)
}

func TestDeleteCourse_Cascades(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c, err := s.CreateCourse(ctx, "teacher-1", sampleCourse())
	require.NoError(t, err)
	topicID := c.Modules[0].Topics[1].ID
	questionID := c.Modules[0].Topics[1].Questions[0].ID

	assert.True(t, errors.Is(s.DeleteCourse(ctx, "teacher-2", c.ID), course.ErrNotFound))
	require.NoError(t, s.DeleteCourse(ctx, "teacher-1", c.ID))

	_, err = s.GetTopic(ctx, topicID)
	assert.True(t, errors.Is(err, course.ErrNotFound))
	_, err = s.GetQuestion(ctx, questionID)
	assert.True(t, errors.Is(err, course.ErrNotFound))
}

func TestCatalog_ListEnrollAndQuestions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c1, err := s.CreateCourse(ctx, "teacher-1", sampleCourse())
	require.NoError(t, err)
	_, err = s.CreateCourse(ctx, "teacher-2", course.CourseInput{Title: "Databases", Description: "SQL joins"})
	require.NoError(t, err)

	all, err := s.ListCourses(ctx, course.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hits, err := s.ListCourses(ctx, course.ListOpts{Q: "JOINS"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Databases", hits[0].Title)

	mine, err := s.ListCourses(ctx, course.ListOpts{AuthorID: "teacher-1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c1.ID, mine[0].ID)

	ok, err := s.IsEnrolled(ctx, c1.ID, "student-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Enroll(ctx, c1.ID, "student-1"))
	require.NoError(t, s.Enroll(ctx, c1.ID, "student-1")) // idempotent
	ok, err = s.IsEnrolled(ctx, c1.ID, "student-1")
	require.NoError(t, err)
	assert.True(t, ok)

	enrolled, err := s.ListEnrolled(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, c1.ID, enrolled[0].ID)

	assert.True(t, errors.Is(s.Enroll(ctx, 9999, "student-1"), course.ErrNotFound))

	topic := c1.Modules[0].Topics[1]
	got, err := s.GetTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, got.CourseID)
	assert.Equal(t, "Intro to Go", got.CourseTitle)
	assert.Equal(t, "Basics", got.ModuleTitle)

	qs, err := s.ListQuestions(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, 1, qs[0].Order)
	assert.Len(t, qs[0].Options, 3)
	assert.True(t, qs[0].Options[0].ID < qs[0].Options[1].ID)

	empty, err := s.ListQuestions(ctx, c1.Modules[0].Topics[0].ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestModuleTopicQuestionCRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c, err := s.CreateCourse(ctx, "teacher-1", course.CourseInput{Title: "Algorithms"})
	require.NoError(t, err)

	_, err = s.CreateModule(ctx, "teacher-2", c.ID, course.ModuleInput{Title: "Sorting"})
	assert.True(t, errors.Is(err, course.ErrNotFound))

	m, err := s.CreateModule(ctx, "teacher-1", c.ID, course.ModuleInput{Title: "Sorting", Order: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Order)

	m, err = s.UpdateModule(ctx, "teacher-1", m.ID, course.ModulePatch{Order: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, "Sorting", m.Title)
	assert.Equal(t, 1, m.Order)

	_, err = s.CreateTopic(ctx, "teacher-1", m.ID, course.TopicInput{Title: "Quick", IsTimedTest: true, TimeLimitSeconds: intp(119)})
	assert.True(t, errors.Is(err, course.ErrInvalidInput))

	tp, err := s.CreateTopic(ctx, "teacher-1", m.ID, course.TopicInput{Title: "Quick"})
	require.NoError(t, err)
	assert.Nil(t, tp.TimeLimitSeconds)

	tp, err = s.UpdateTopic(ctx, "teacher-1", tp.ID, course.TopicPatch{IsTimedTest: boolp(true), TimeLimitSeconds: intp(600)})
	require.NoError(t, err)
	assert.True(t, tp.IsTimedTest)
	assert.Equal(t, 600, *tp.TimeLimitSeconds)
	assert.Equal(t, "Quick", tp.Title)

	q, err := s.CreateQuestion(ctx, "teacher-1", tp.ID, course.QuestionInput{
		Text:    "Average complexity?",
		Options: []course.OptionInput{{Text: "n log n", IsCorrect: true}, {Text: "n^2"}},
	})
	require.NoError(t, err)
	require.Len(t, q.Options, 2)

	keep := q.Options[0].ID
	opts := []course.OptionInput{
		{ID: &keep, Text: "O(n log n)", IsCorrect: true},
		{Text: "O(1)"},
	}
	q, err = s.UpdateQuestion(ctx, "teacher-1", q.ID, course.QuestionPatch{Options: &opts, MaxScore: intp(50)})
	require.NoError(t, err)
	require.Len(t, q.Options, 2)
	assert.Equal(t, keep, q.Options[0].ID)
	assert.Equal(t, "O(n log n)", q.Options[0].Text)
	assert.Equal(t, "O(1)", q.Options[1].Text)
	assert.Equal(t, 50, q.MaxScore)
	assert.Equal(t, "Average complexity?", q.Text)

	_, err = s.UpdateQuestion(ctx, "teacher-1", q.ID, course.QuestionPatch{MaxScore: intp(101)})
	assert.True(t, errors.Is(err, course.ErrInvalidInput))

	assert.True(t, errors.Is(s.DeleteQuestion(ctx, "teacher-2", q.ID), course.ErrNotFound))
	require.NoError(t, s.DeleteQuestion(ctx, "teacher-1", q.ID))
	_, err = s.GetQuestion(ctx, q.ID)
	assert.True(t, errors.Is(err, course.ErrNotFound))

	require.NoError(t, s.DeleteTopic(ctx, "teacher-1", tp.ID))
	require.NoError(t, s.DeleteModule(ctx, "teacher-1", m.ID))

	tree, err := s.GetCourseTree(ctx, "teacher-1", c.ID)
	require.NoError(t, err)
	assert.Empty(t, tree.Modules)
}

func boolp(v bool) *bool { return &v }
