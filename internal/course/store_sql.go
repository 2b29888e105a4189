package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/elearn/internal/db"
)

type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(dbh *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: sqlx.NewDb(dbh, db.Driver(driver).DriverName())}
}

const courseCols = `c.id, c.author_id,
	COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.username, '') AS author_name,
	c.title, c.slug, c.description`

const courseFrom = ` FROM courses c LEFT JOIN users u ON u.id = c.author_id`

const topicCols = `t.id, t.module_id, m.title AS module_title, m.course_id, c.title AS course_title,
	t.title, t.content, t.sort_order, t.is_timed_test, t.time_limit_seconds`

const topicFrom = ` FROM topics t
	JOIN modules m ON m.id = t.module_id
	JOIN courses c ON c.id = m.course_id`

const questionCols = `q.id, q.topic_id, q.text, q.sort_order, q.question_type, q.max_score`

const optionCols = `o.id, o.question_id, o.text, o.is_correct`

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func (s *SQLStore) ListCourses(ctx context.Context, opts ListOpts) ([]Course, error) {
	q := `SELECT ` + courseCols + courseFrom + ` WHERE 1=1`
	var args []any
	if term := strings.TrimSpace(opts.Q); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		q += fmt.Sprintf(" AND (LOWER(c.title) LIKE $%d OR LOWER(c.description) LIKE $%d)", len(args), len(args))
	}
	if opts.AuthorID != "" {
		args = append(args, opts.AuthorID)
		q += fmt.Sprintf(" AND c.author_id = $%d", len(args))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY c.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	out := []Course{}
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) GetCourse(ctx context.Context, id int64) (Course, error) {
	var c Course
	if err := s.db.GetContext(ctx, &c, `SELECT `+courseCols+courseFrom+` WHERE c.id = $1`, id); err != nil {
		return Course{}, notFound("course", err)
	}
	var mods []Module
	if err := s.db.SelectContext(ctx, &mods,
		`SELECT id, course_id, title, sort_order FROM modules WHERE course_id = $1 ORDER BY sort_order, id`, id); err != nil {
		return Course{}, err
	}
	var topics []Topic
	if err := s.db.SelectContext(ctx, &topics,
		`SELECT `+topicCols+topicFrom+` WHERE m.course_id = $1 ORDER BY t.sort_order, t.id`, id); err != nil {
		return Course{}, err
	}
	idx := make(map[int64]int, len(mods))
	for i := range mods {
		idx[mods[i].ID] = i
	}
	for _, t := range topics {
		if i, ok := idx[t.ModuleID]; ok {
			mods[i].Topics = append(mods[i].Topics, t)
		}
	}
	c.Modules = mods
	return c, nil
}

func (s *SQLStore) Enroll(ctx context.Context, courseID int64, userID string) error {
	var one int
	if err := s.db.GetContext(ctx, &one, `SELECT 1 FROM courses WHERE id = $1`, courseID); err != nil {
		return notFound("course", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO course_students (course_id, student_id, enrolled_at) VALUES ($1, $2, $3)
		 ON CONFLICT (course_id, student_id) DO NOTHING`,
		courseID, userID, time.Now().Unix())
	return err
}

func (s *SQLStore) IsEnrolled(ctx context.Context, courseID int64, userID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(1) FROM course_students WHERE course_id = $1 AND student_id = $2`, courseID, userID)
	return n > 0, err
}

func (s *SQLStore) ListEnrolled(ctx context.Context, userID string) ([]Course, error) {
	out := []Course{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+courseCols+courseFrom+`
		   JOIN course_students cs ON cs.course_id = c.id
		  WHERE cs.student_id = $1
		  ORDER BY cs.enrolled_at DESC, c.id`, userID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) GetTopic(ctx context.Context, id int64) (Topic, error) {
	var t Topic
	if err := s.db.GetContext(ctx, &t, `SELECT `+topicCols+topicFrom+` WHERE t.id = $1`, id); err != nil {
		return Topic{}, notFound("topic", err)
	}
	return t, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return getQuestion(ctx, s.db, id)
}

func getQuestion(ctx context.Context, q sqlx.QueryerContext, id int64) (Question, error) {
	var out Question
	if err := sqlx.GetContext(ctx, q, &out, `SELECT `+questionCols+` FROM questions q WHERE q.id = $1`, id); err != nil {
		return Question{}, notFound("question", err)
	}
	opts := []Option{}
	if err := sqlx.SelectContext(ctx, q, &opts,
		`SELECT `+optionCols+` FROM question_options o WHERE o.question_id = $1 ORDER BY o.id`, id); err != nil {
		return Question{}, err
	}
	out.Options = opts
	return out, nil
}

// ListQuestions returns the topic's questions ordered by (order, id), each
// with its options ordered by id.
func (s *SQLStore) ListQuestions(ctx context.Context, topicID int64) ([]Question, error) {
	qs := []Question{}
	if err := s.db.SelectContext(ctx, &qs,
		`SELECT `+questionCols+` FROM questions q WHERE q.topic_id = $1 ORDER BY q.sort_order, q.id`, topicID); err != nil {
		return nil, err
	}
	var opts []Option
	if err := s.db.SelectContext(ctx, &opts,
		`SELECT `+optionCols+` FROM question_options o
		   JOIN questions q ON q.id = o.question_id
		  WHERE q.topic_id = $1 ORDER BY o.id`, topicID); err != nil {
		return nil, err
	}
	attachOptions(qs, opts)
	return qs, nil
}

func attachOptions(qs []Question, opts []Option) {
	idx := make(map[int64]int, len(qs))
	for i := range qs {
		idx[qs[i].ID] = i
		if qs[i].Options == nil {
			qs[i].Options = []Option{}
		}
	}
	for _, o := range opts {
		if i, ok := idx[o.QuestionID]; ok {
			qs[i].Options = append(qs[i].Options, o)
		}
	}
}
