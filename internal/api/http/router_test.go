package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/elearn/internal/api/http"
	authmw "github.com/mind-engage/elearn/internal/auth/middleware"
	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/db/dbtest"
	"github.com/mind-engage/elearn/internal/practice"
	"github.com/mind-engage/elearn/internal/rbac"
	syncx "github.com/mind-engage/elearn/internal/sync"
)

func init() { authmw.BcryptCost = bcrypt.MinCost }

type env struct {
	t      *testing.T
	srv    http.Handler
	auth   *authmw.AuthService
	users  *authmw.UserStore
	events *syncx.EventRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dbh := dbtest.Open(t)
	store := course.NewSQLStore(dbh, "sqlite")
	events := syncx.NewEventRepo(dbh, "test")
	a := authmw.NewAuthService("test-secret", time.Hour)
	users := authmw.NewUserStore(dbh)
	svc := practice.NewService(store, practice.NewSQLStore(dbh), practice.WithEvents(events))
	return &env{
		t: t,
		srv: api.NewRouter(api.Deps{
			DB:          dbh,
			Auth:        a,
			Users:       users,
			Catalog:     store,
			Authoring:   store,
			Practice:    svc,
			Events:      events,
			CORSOrigins: []string{"http://localhost:3000"},
		}),
		auth:   a,
		users:  users,
		events: events,
	}
}

// user creates an account with the given role and returns a bearer token.
func (e *env) user(name, role string) string {
	e.t.Helper()
	u, err := e.users.Create(context.Background(), authmw.NewUser{Username: name, Password: "password1", Role: role})
	require.NoError(e.t, err)
	tok, err := e.auth.IssueJWT(u.ID, u.Role)
	require.NoError(e.t, err)
	return tok
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sampleCourse(timed bool) course.CourseInput {
	return course.CourseInput{
		Title:       "Go Basics",
		Description: "types and loops",
		Modules: []course.ModuleInput{{
			Title: "Types",
			Topics: []course.TopicInput{{
				Title:       "Integers",
				Content:     "int, int64",
				IsTimedTest: timed,
				Questions: []course.QuestionInput{
					{Text: "Size of int32?", Order: 1, Options: []course.OptionInput{{Text: "4 bytes", IsCorrect: true}, {Text: "8 bytes"}}},
					{Text: "Signed types", Order: 2, Type: course.QuestionMulti, Options: []course.OptionInput{
						{Text: "int8", IsCorrect: true}, {Text: "uint8"}, {Text: "int64", IsCorrect: true},
					}},
				},
			}},
		}},
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/readyz", "", nil).Code)
}

func TestLearningFlow(t *testing.T) {
	e := newEnv(t)
	teacher := e.user("tina", rbac.RoleTeacher)
	student := e.user("sam", rbac.RoleStudent)

	rec := e.do(http.MethodPost, "/teacher/courses/", teacher, sampleCourse(false))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[course.Course](t, rec)
	assert.Equal(t, "go-basics", c.Slug)
	topic := c.Modules[0].Topics[0]
	q1, q2 := topic.Questions[0], topic.Questions[1]

	// public catalog hides questions
	rec = e.do(http.MethodGet, fmt.Sprintf("/courses/%d/", c.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "is_correct")

	next := fmt.Sprintf("/learning/topics/%d/next-question/", topic.ID)
	rec = e.do(http.MethodGet, next, student, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "not enrolled")

	require.Equal(t, http.StatusOK, e.do(http.MethodPost, fmt.Sprintf("/courses/%d/enroll/", c.ID), student, nil).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, fmt.Sprintf("/courses/%d/enroll/", c.ID), student, nil).Code)
	mine := decode[[]course.Course](t, e.do(http.MethodGet, "/my-courses/", student, nil))
	require.Len(t, mine, 1)

	rec = e.do(http.MethodGet, next, student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nq := decode[practice.NextQuestion](t, rec)
	require.NotNil(t, nq.Question)
	assert.Equal(t, q1.ID, nq.Question.ID)
	assert.NotContains(t, rec.Body.String(), "is_correct")

	answer := func(q course.Question, opts ...int64) *httptest.ResponseRecorder {
		return e.do(http.MethodPost, fmt.Sprintf("/learning/questions/%d/answer/", q.ID), student,
			map[string]any{"selected_options": opts})
	}

	rec = answer(q1, q2.Options[0].ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "foreign option")
	assert.Contains(t, rec.Body.String(), "detail")

	res := decode[practice.SubmitResult](t, answer(q1, q1.Options[0].ID))
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 50, res.TopicProgressPercent)

	res = decode[practice.SubmitResult](t, answer(q2, q2.Options[0].ID, q2.Options[2].ID))
	assert.True(t, res.TestCompleted)

	nq = decode[practice.NextQuestion](t, e.do(http.MethodGet, next, student, nil))
	assert.True(t, nq.Completed)
	assert.Nil(t, nq.Question)

	h := decode[practice.History](t, e.do(http.MethodGet, fmt.Sprintf("/learning/topics/%d/history/", topic.ID), student, nil))
	require.Len(t, h.Questions, 2)

	lc := decode[practice.LearningCourse](t, e.do(http.MethodGet, fmt.Sprintf("/learning/courses/%d/", c.ID), student, nil))
	assert.Equal(t, 100, lc.ProgressPercent)

	tt := decode[practice.TopicTheory](t, e.do(http.MethodGet, fmt.Sprintf("/learning/topics/%d/", topic.ID), student, nil))
	assert.Equal(t, "int, int64", tt.Content)
	assert.Equal(t, practice.StatusCompleted, tt.Status)

	rec = e.do(http.MethodPost, fmt.Sprintf("/learning/topics/%d/reset/", topic.ID), student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detail":"Practice progress has been reset."}`, rec.Body.String())

	nq = decode[practice.NextQuestion](t, e.do(http.MethodGet, next, student, nil))
	assert.False(t, nq.Completed)
	assert.Equal(t, q1.ID, nq.Question.ID)

	evs, err := e.events.Since(context.Background(), 0, 100)
	require.NoError(t, err)
	var types []string
	for _, ev := range evs {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, practice.EventAnswerSubmitted)
	assert.Contains(t, types, practice.EventTopicCompleted)
	assert.Contains(t, types, practice.EventTopicReset)
}

func TestErrorsAndRoles(t *testing.T) {
	e := newEnv(t)
	teacher := e.user("tina", rbac.RoleTeacher)
	other := e.user("olga", rbac.RoleTeacher)
	student := e.user("sam", rbac.RoleStudent)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/my-courses/", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/teacher/courses/", student, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/learning/topics/999/next-question/", student, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/learning/topics/abc/next-question/", student, nil).Code)

	rec := e.do(http.MethodPost, "/teacher/courses/", teacher, course.CourseInput{Title: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c := decode[course.Course](t, e.do(http.MethodPost, "/teacher/courses/", teacher, sampleCourse(true)))
	path := fmt.Sprintf("/teacher/courses/%d/", c.ID)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, path, other, nil).Code)

	rec = e.do(http.MethodPatch, path, teacher, map[string]string{"title": "Go Advanced"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "go-advanced", decode[course.Course](t, rec).Slug)

	rec = e.do(http.MethodPost, "/teacher/topics/", teacher, map[string]any{
		"module_id": c.Modules[0].ID, "title": "Floats", "is_timed_test": true, "time_limit_seconds": 60,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "limit under the minimum")

	rec = e.do(http.MethodPost, "/teacher/questions/", teacher, map[string]any{
		"topic_id": c.Modules[0].Topics[0].ID, "text": "Zero value of int?", "order": 3,
		"options": []map[string]any{{"text": "0", "is_correct": true}, {"text": "nil"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	q := decode[course.Question](t, rec)
	rec = e.do(http.MethodPatch, fmt.Sprintf("/teacher/questions/%d/", q.ID), teacher, map[string]any{
		"options": []map[string]any{{"id": q.Options[0].ID, "text": "0", "is_correct": true}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[course.Question](t, rec).Options, 1)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, fmt.Sprintf("/teacher/questions/%d/", q.ID), teacher, nil).Code)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, teacher, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, fmt.Sprintf("/courses/%d/", c.ID), "", nil).Code)
}

func TestTimedTopicOverHTTP(t *testing.T) {
	e := newEnv(t)
	teacher := e.user("tina", rbac.RoleTeacher)
	student := e.user("sam", rbac.RoleStudent)
	c := decode[course.Course](t, e.do(http.MethodPost, "/teacher/courses/", teacher, sampleCourse(true)))
	topic := c.Modules[0].Topics[0]
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, fmt.Sprintf("/courses/%d/enroll/", c.ID), student, nil).Code)

	nq := decode[practice.NextQuestion](t, e.do(http.MethodGet, fmt.Sprintf("/learning/topics/%d/next-question/", topic.ID), student, nil))
	assert.True(t, nq.IsTimed)
	require.NotNil(t, nq.TimeLimitSeconds)
	assert.Equal(t, course.MinTimeLimitSeconds, *nq.TimeLimitSeconds)

	q1, q2 := topic.Questions[0], topic.Questions[1]
	post := func(q course.Question, opts []int64) *httptest.ResponseRecorder {
		return e.do(http.MethodPost, fmt.Sprintf("/learning/questions/%d/answer/", q.ID), student,
			map[string]any{"selected_options": opts})
	}
	res := decode[practice.SubmitResult](t, post(q1, []int64{q1.Options[1].ID}))
	assert.False(t, res.IsCorrect)
	res = decode[practice.SubmitResult](t, post(q2, []int64{}))
	assert.True(t, res.TestCompleted)
	assert.False(t, res.Passed)

	rec := post(q1, []int64{q1.Options[0].ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "test already finished")
}

func TestAuthEndpoints(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/auth/register/", "", map[string]string{"username": "nina", "password": "password1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/auth/login/", "", map[string]string{"username": "nina", "password": "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decode[map[string]any](t, rec)["access_token"].(string)

	rec = e.do(http.MethodPatch, "/auth/me/", tok, map[string]string{"first_name": "Nina"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Nina", decode[authmw.User](t, rec).FirstName)

	me := decode[authmw.User](t, e.do(http.MethodGet, "/auth/me/", tok, nil))
	assert.Equal(t, rbac.RoleStudent, me.Role)
}

func TestAdminEndpoints(t *testing.T) {
	e := newEnv(t)
	admin := e.user("root", rbac.RoleAdmin)
	teacher := e.user("tina", rbac.RoleTeacher)
	student := e.user("sam", rbac.RoleStudent)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/admin/users/", teacher, nil).Code)

	rec := e.do(http.MethodPatch, "/admin/users/sam/role/", admin, map[string]string{"role": "teacher"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// the stored role applies to the old token right away
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/teacher/courses/", student, nil).Code)

	rec = e.do(http.MethodPatch, "/admin/users/root/role/", admin, map[string]string{"role": "student"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "last admin")

	rec = e.do(http.MethodPost, "/admin/users/", admin, []map[string]string{
		{"username": "amy", "password": "password1"},
		{"username": "tina", "role": "admin"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"inserted":1,"updated":1}`, rec.Body.String())

	// CSV upload
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "users.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("username,password,role,email\nbea,password1,student,bea@example.com\n"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/admin/users/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"inserted":1,"updated":0}`, rec.Body.String())

	admins := decode[[]authmw.User](t, e.do(http.MethodGet, "/admin/users/?role=admin", admin, nil))
	assert.Len(t, admins, 2)

	rec = e.do(http.MethodGet, "/admin/events/?since=0", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
