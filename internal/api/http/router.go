package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/elearn/internal/auth/middleware"
	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/practice"
	"github.com/mind-engage/elearn/internal/rbac"
	syncx "github.com/mind-engage/elearn/internal/sync"
)

type Deps struct {
	DB        *sql.DB
	Auth      *authmw.AuthService
	Users     *authmw.UserStore
	Catalog   course.Catalog
	Authoring course.Authoring
	Practice  *practice.Service
	Events    *syncx.EventRepo // nil disables /admin/events/

	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			detail(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/auth/register/", authmw.RegisterHandler(d.Auth, d.Users))
	r.Post("/auth/login/", authmw.LoginHandler(d.Auth, d.Users))

	r.Get("/courses/", ListPublicCoursesHandler(d.Catalog))
	r.Get("/courses/{courseID}/", GetPublicCourseHandler(d.Catalog))

	// Protected API (JWT → role from users table → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth), authmw.AttachRoleFromDB(d.DB))

		pr.With(rbac.Require("user:profile")).Get("/auth/me/", authmw.MeHandler(d.Users))
		pr.With(rbac.Require("user:profile")).Patch("/auth/me/", authmw.UpdateMeHandler(d.Users))
		pr.With(rbac.Require("user:change_password")).
			Post("/auth/change-password/", authmw.ChangePasswordHandler(d.Users))

		pr.With(rbac.Require("course:enroll")).Post("/courses/{courseID}/enroll/", EnrollHandler(d.Catalog))
		pr.With(rbac.Require("course:view")).Get("/my-courses/", MyCoursesHandler(d.Catalog))

		pr.Route("/learning", func(lr chi.Router) {
			lr.With(rbac.Require("practice:view")).Get("/courses/{courseID}/", CourseProgressHandler(d.Practice))
			lr.With(rbac.Require("practice:view")).Get("/topics/{topicID}/", TopicTheoryHandler(d.Practice))
			lr.With(rbac.Require("practice:view")).Get("/topics/{topicID}/next-question/", NextQuestionHandler(d.Practice))
			lr.With(rbac.Require("practice:view")).Get("/topics/{topicID}/history/", TopicHistoryHandler(d.Practice))
			lr.With(rbac.Require("practice:reset")).Post("/topics/{topicID}/reset/", ResetTopicHandler(d.Practice))
			lr.With(rbac.Require("practice:answer")).Post("/questions/{questionID}/answer/", SubmitAnswerHandler(d.Practice))
		})

		pr.Route("/teacher", func(tr chi.Router) {
			tr.Use(rbac.Require("course:author"))
			tr.Get("/courses/", ListAuthoredCoursesHandler(d.Authoring))
			tr.Post("/courses/", CreateCourseHandler(d.Authoring))
			tr.Get("/courses/{courseID}/", GetAuthoredCourseHandler(d.Authoring))
			tr.Patch("/courses/{courseID}/", UpdateCourseHandler(d.Authoring))
			tr.Delete("/courses/{courseID}/", DeleteCourseHandler(d.Authoring))

			tr.Post("/modules/", CreateModuleHandler(d.Authoring))
			tr.Patch("/modules/{moduleID}/", UpdateModuleHandler(d.Authoring))
			tr.Delete("/modules/{moduleID}/", DeleteModuleHandler(d.Authoring))

			tr.Post("/topics/", CreateTopicHandler(d.Authoring))
			tr.Get("/topics/{topicID}/", GetAuthoredTopicHandler(d.Authoring))
			tr.Patch("/topics/{topicID}/", UpdateTopicHandler(d.Authoring))
			tr.Delete("/topics/{topicID}/", DeleteTopicHandler(d.Authoring))

			tr.Post("/questions/", CreateQuestionHandler(d.Authoring))
			tr.Patch("/questions/{questionID}/", UpdateQuestionHandler(d.Authoring))
			tr.Delete("/questions/{questionID}/", DeleteQuestionHandler(d.Authoring))
		})

		pr.Route("/admin", func(ar chi.Router) {
			ar.With(rbac.Require("users:list")).Get("/users/", ListUsersHandler(d.Users))
			ar.With(rbac.Require("users:bulk_upsert")).Post("/users/", BulkUpsertUsersHandler(d.Users))
			ar.With(rbac.Require("users:role")).Patch("/users/{userID}/role/", AdminUpdateUserRoleHandler(d.Users))
			if d.Events != nil {
				ar.With(rbac.Require("events:read")).Get("/events/", AdminEventsHandler(d.Events))
			}
		})
	})

	return r
}
