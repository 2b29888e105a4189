package course

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
)

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

func insertID(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (int64, error) {
	var id int64
	err := q.QueryRowxContext(ctx, query+` RETURNING id`, args...).Scan(&id)
	return id, err
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ---- ownership ($2 = '' means unscoped) ----

func ownsCourse(ctx context.Context, q sqlx.QueryerContext, authorID string, courseID int64) error {
	var one int
	err := sqlx.GetContext(ctx, q, &one,
		`SELECT 1 FROM courses WHERE id = $1 AND ($2 = '' OR author_id = $2)`, courseID, authorID)
	return notFound("course", err)
}

func ownsModule(ctx context.Context, q sqlx.QueryerContext, authorID string, moduleID int64) error {
	var one int
	err := sqlx.GetContext(ctx, q, &one,
		`SELECT 1 FROM modules m JOIN courses c ON c.id = m.course_id
		  WHERE m.id = $1 AND ($2 = '' OR c.author_id = $2)`, moduleID, authorID)
	return notFound("module", err)
}

func ownsTopic(ctx context.Context, q sqlx.QueryerContext, authorID string, topicID int64) error {
	var one int
	err := sqlx.GetContext(ctx, q, &one,
		`SELECT 1 FROM topics t
		   JOIN modules m ON m.id = t.module_id
		   JOIN courses c ON c.id = m.course_id
		  WHERE t.id = $1 AND ($2 = '' OR c.author_id = $2)`, topicID, authorID)
	return notFound("topic", err)
}

func ownsQuestion(ctx context.Context, q sqlx.QueryerContext, authorID string, questionID int64) error {
	var one int
	err := sqlx.GetContext(ctx, q, &one,
		`SELECT 1 FROM questions q
		   JOIN topics t ON t.id = q.topic_id
		   JOIN modules m ON m.id = t.module_id
		   JOIN courses c ON c.id = m.course_id
		  WHERE q.id = $1 AND ($2 = '' OR c.author_id = $2)`, questionID, authorID)
	return notFound("question", err)
}

// uniqueSlug derives a slug from title: "intro-to-go", then "intro-to-go-1", "intro-to-go-2", ...
func uniqueSlug(ctx context.Context, q sqlx.QueryerContext, title string, excludeID int64) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "course"
	}
	candidate := base
	for i := 1; ; i++ {
		var n int
		if err := sqlx.GetContext(ctx, q, &n,
			`SELECT COUNT(1) FROM courses WHERE slug = $1 AND id <> $2`, candidate, excludeID); err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// ---- nested inserts ----

func insertModule(ctx context.Context, tx *sqlx.Tx, courseID int64, in ModuleInput) (int64, error) {
	id, err := insertID(ctx, tx,
		`INSERT INTO modules (course_id, title, sort_order) VALUES ($1, $2, $3)`,
		courseID, strings.TrimSpace(in.Title), in.Order)
	if err != nil {
		return 0, err
	}
	for _, t := range in.Topics {
		if _, err := insertTopic(ctx, tx, id, t); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func insertTopic(ctx context.Context, tx *sqlx.Tx, moduleID int64, in TopicInput) (int64, error) {
	id, err := insertID(ctx, tx,
		`INSERT INTO topics (module_id, title, content, sort_order, is_timed_test, time_limit_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		moduleID, strings.TrimSpace(in.Title), in.Content, in.Order, in.IsTimedTest, in.TimeLimitSeconds)
	if err != nil {
		return 0, err
	}
	for _, q := range in.Questions {
		if _, err := insertQuestion(ctx, tx, id, q); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func insertQuestion(ctx context.Context, tx *sqlx.Tx, topicID int64, in QuestionInput) (int64, error) {
	id, err := insertID(ctx, tx,
		`INSERT INTO questions (topic_id, text, sort_order, question_type, max_score) VALUES ($1, $2, $3, $4, $5)`,
		topicID, in.Text, in.Order, string(in.Type), maxScoreOrDefault(in.MaxScore))
	if err != nil {
		return 0, err
	}
	for _, o := range in.Options {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO question_options (question_id, text, is_correct) VALUES ($1, $2, $3)`,
			id, o.Text, o.IsCorrect); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// ---- courses ----

func (s *SQLStore) ListAuthored(ctx context.Context, authorID string) ([]Course, error) {
	return s.ListCourses(ctx, ListOpts{AuthorID: authorID, Limit: 200})
}

// GetCourseTree returns the course with modules, topics, questions and options.
func (s *SQLStore) GetCourseTree(ctx context.Context, authorID string, id int64) (Course, error) {
	if err := ownsCourse(ctx, s.db, authorID, id); err != nil {
		return Course{}, err
	}
	c, err := s.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	qs := []Question{}
	if err := s.db.SelectContext(ctx, &qs,
		`SELECT `+questionCols+` FROM questions q
		   JOIN topics t ON t.id = q.topic_id
		   JOIN modules m ON m.id = t.module_id
		  WHERE m.course_id = $1 ORDER BY q.sort_order, q.id`, id); err != nil {
		return Course{}, err
	}
	var opts []Option
	if err := s.db.SelectContext(ctx, &opts,
		`SELECT `+optionCols+` FROM question_options o
		   JOIN questions q ON q.id = o.question_id
		   JOIN topics t ON t.id = q.topic_id
		   JOIN modules m ON m.id = t.module_id
		  WHERE m.course_id = $1 ORDER BY o.id`, id); err != nil {
		return Course{}, err
	}
	attachOptions(qs, opts)

	byTopic := map[int64][]Question{}
	for _, q := range qs {
		byTopic[q.TopicID] = append(byTopic[q.TopicID], q)
	}
	for i := range c.Modules {
		for j := range c.Modules[i].Topics {
			t := &c.Modules[i].Topics[j]
			t.Questions = byTopic[t.ID]
		}
	}
	return c, nil
}

func (s *SQLStore) CreateCourse(ctx context.Context, authorID string, in CourseInput) (Course, error) {
	if err := in.normalize(); err != nil {
		return Course{}, err
	}
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		sl, err := uniqueSlug(ctx, tx, in.Title, 0)
		if err != nil {
			return err
		}
		id, err = insertID(ctx, tx,
			`INSERT INTO courses (author_id, title, slug, description, created_at) VALUES ($1, $2, $3, $4, $5)`,
			nullIfEmpty(authorID), strings.TrimSpace(in.Title), sl, in.Description, time.Now().Unix())
		if err != nil {
			return err
		}
		for _, m := range in.Modules {
			if _, err := insertModule(ctx, tx, id, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Course{}, err
	}
	return s.GetCourseTree(ctx, authorID, id)
}

func (s *SQLStore) UpdateCourse(ctx context.Context, authorID string, id int64, p CoursePatch) (Course, error) {
	if p.Title != nil {
		if err := validateTitle("course", *p.Title); err != nil {
			return Course{}, err
		}
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownsCourse(ctx, tx, authorID, id); err != nil {
			return err
		}
		var title, sl *string
		if p.Title != nil {
			t := strings.TrimSpace(*p.Title)
			v, err := uniqueSlug(ctx, tx, t, id)
			if err != nil {
				return err
			}
			title, sl = &t, &v
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE courses SET title = COALESCE($1, title), slug = COALESCE($2, slug),
			        description = COALESCE($3, description)
			  WHERE id = $4`, title, sl, p.Description, id)
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return s.GetCourseTree(ctx, authorID, id)
}

func (s *SQLStore) DeleteCourse(ctx context.Context, authorID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM courses WHERE id = $1 AND ($2 = '' OR author_id = $2)`, id, authorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: course", ErrNotFound)
	}
	return nil
}

// ---- modules ----

func (s *SQLStore) getModule(ctx context.Context, id int64) (Module, error) {
	var m Module
	if err := s.db.GetContext(ctx, &m,
		`SELECT id, course_id, title, sort_order FROM modules WHERE id = $1`, id); err != nil {
		return Module{}, notFound("module", err)
	}
	return m, nil
}

func (s *SQLStore) CreateModule(ctx context.Context, authorID string, courseID int64, in ModuleInput) (Module, error) {
	if err := in.normalize(); err != nil {
		return Module{}, err
	}
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownsCourse(ctx, tx, authorID, courseID); err != nil {
			return err
		}
		var err error
		id, err = insertModule(ctx, tx, courseID, in)
		return err
	})
	if err != nil {
		return Module{}, err
	}
	return s.getModule(ctx, id)
}

func (s *SQLStore) UpdateModule(ctx context.Context, authorID string, id int64, p ModulePatch) (Module, error) {
	if p.Title != nil {
		if err := validateTitle("module", *p.Title); err != nil {
			return Module{}, err
		}
	}
	if err := ownsModule(ctx, s.db, authorID, id); err != nil {
		return Module{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE modules SET title = COALESCE($1, title), sort_order = COALESCE($2, sort_order) WHERE id = $3`,
		p.Title, p.Order, id); err != nil {
		return Module{}, err
	}
	return s.getModule(ctx, id)
}

func (s *SQLStore) DeleteModule(ctx context.Context, authorID string, id int64) error {
	if err := ownsModule(ctx, s.db, authorID, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id)
	return err
}

// ---- topics ----

func (s *SQLStore) GetAuthoredTopic(ctx context.Context, authorID string, id int64) (Topic, error) {
	if err := ownsTopic(ctx, s.db, authorID, id); err != nil {
		return Topic{}, err
	}
	t, err := s.GetTopic(ctx, id)
	if err != nil {
		return Topic{}, err
	}
	if t.Questions, err = s.ListQuestions(ctx, id); err != nil {
		return Topic{}, err
	}
	return t, nil
}

func (s *SQLStore) CreateTopic(ctx context.Context, authorID string, moduleID int64, in TopicInput) (Topic, error) {
	if err := in.normalize(); err != nil {
		return Topic{}, err
	}
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownsModule(ctx, tx, authorID, moduleID); err != nil {
			return err
		}
		var err error
		id, err = insertTopic(ctx, tx, moduleID, in)
		return err
	})
	if err != nil {
		return Topic{}, err
	}
	return s.GetAuthoredTopic(ctx, authorID, id)
}

func (s *SQLStore) UpdateTopic(ctx context.Context, authorID string, id int64, p TopicPatch) (Topic, error) {
	if p.Title != nil {
		if err := validateTitle("topic", *p.Title); err != nil {
			return Topic{}, err
		}
	}
	if err := validateTimeLimit(p.TimeLimitSeconds); err != nil {
		return Topic{}, err
	}
	if err := ownsTopic(ctx, s.db, authorID, id); err != nil {
		return Topic{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE topics SET title = COALESCE($1, title), content = COALESCE($2, content),
		        sort_order = COALESCE($3, sort_order), is_timed_test = COALESCE($4, is_timed_test),
		        time_limit_seconds = COALESCE($5, time_limit_seconds)
		  WHERE id = $6`,
		p.Title, p.Content, p.Order, p.IsTimedTest, p.TimeLimitSeconds, id); err != nil {
		return Topic{}, err
	}
	return s.GetAuthoredTopic(ctx, authorID, id)
}

func (s *SQLStore) DeleteTopic(ctx context.Context, authorID string, id int64) error {
	if err := ownsTopic(ctx, s.db, authorID, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id = $1`, id)
	return err
}

// ---- questions ----

func (s *SQLStore) CreateQuestion(ctx context.Context, authorID string, topicID int64, in QuestionInput) (Question, error) {
	if err := in.normalize(); err != nil {
		return Question{}, err
	}
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownsTopic(ctx, tx, authorID, topicID); err != nil {
			return err
		}
		var err error
		id, err = insertQuestion(ctx, tx, topicID, in)
		return err
	})
	if err != nil {
		return Question{}, err
	}
	return s.GetQuestion(ctx, id)
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, authorID string, id int64, p QuestionPatch) (Question, error) {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return Question{}, invalid("question text is required")
	}
	if p.Type != nil && !p.Type.Valid() {
		return Question{}, invalid("unknown question type %q", *p.Type)
	}
	if err := validateMaxScore(p.MaxScore); err != nil {
		return Question{}, err
	}
	if p.Options != nil {
		if err := validateOptions(*p.Options); err != nil {
			return Question{}, err
		}
	}
	var qtype *string
	if p.Type != nil {
		v := string(*p.Type)
		qtype = &v
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownsQuestion(ctx, tx, authorID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET text = COALESCE($1, text), sort_order = COALESCE($2, sort_order),
			        question_type = COALESCE($3, question_type), max_score = COALESCE($4, max_score)
			  WHERE id = $5`,
			p.Text, p.Order, qtype, p.MaxScore, id); err != nil {
			return err
		}
		if p.Options == nil {
			return nil
		}
		return syncOptions(ctx, tx, id, *p.Options)
	})
	if err != nil {
		return Question{}, err
	}
	return s.GetQuestion(ctx, id)
}

func syncOptions(ctx context.Context, tx *sqlx.Tx, questionID int64, in []OptionInput) error {
	var existing []int64
	if err := tx.SelectContext(ctx, &existing,
		`SELECT id FROM question_options WHERE question_id = $1`, questionID); err != nil {
		return err
	}
	known := make(map[int64]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	kept := map[int64]bool{}
	for _, o := range in {
		if o.ID != nil && known[*o.ID] {
			if _, err := tx.ExecContext(ctx,
				`UPDATE question_options SET text = $1, is_correct = $2 WHERE id = $3`,
				o.Text, o.IsCorrect, *o.ID); err != nil {
				return err
			}
			kept[*o.ID] = true
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO question_options (question_id, text, is_correct) VALUES ($1, $2, $3)`,
			questionID, o.Text, o.IsCorrect); err != nil {
			return err
		}
	}
	for _, id := range existing {
		if kept[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM question_options WHERE id = $1`, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, authorID string, id int64) error {
	if err := ownsQuestion(ctx, s.db, authorID, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
