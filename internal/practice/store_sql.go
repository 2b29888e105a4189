package practice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const progressCols = `p.id, p.user_id, p.topic_id, p.status, p.score, p.is_timed,
	p.time_limit_seconds, p.started_at, p.timed_out, p.completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(r rowScanner) (Progress, error) {
	var (
		p                      Progress
		status                 string
		score, limit           sql.NullInt64
		startedAt, completedAt sql.NullInt64
	)
	if err := r.Scan(&p.ID, &p.UserID, &p.TopicID, &status, &score, &p.IsTimed,
		&limit, &startedAt, &p.TimedOut, &completedAt); err != nil {
		return Progress{}, err
	}
	p.Status = Status(status)
	p.Score = intFromNull(score)
	p.TimeLimitSeconds = intFromNull(limit)
	p.StartedAt = timeFromNull(startedAt)
	p.CompletedAt = timeFromNull(completedAt)
	return p, nil
}

func (s *SQLStore) GetProgress(ctx context.Context, userID string, topicID int64) (Progress, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+progressCols+` FROM topic_progress p WHERE p.user_id=$1 AND p.topic_id=$2`, userID, topicID)
	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Progress{}, false, nil
	}
	if err != nil {
		return Progress{}, false, err
	}
	return p, true, nil
}

func (s *SQLStore) EnsureProgress(ctx context.Context, userID string, topicID int64) (Progress, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO topic_progress (user_id, topic_id, status) VALUES ($1,$2,$3)
		 ON CONFLICT (user_id, topic_id) DO NOTHING`,
		userID, topicID, string(StatusNotStarted)); err != nil {
		return Progress{}, err
	}
	p, found, err := s.GetProgress(ctx, userID, topicID)
	if err != nil {
		return Progress{}, err
	}
	if !found {
		return Progress{}, fmt.Errorf("progress for topic %d vanished after insert", topicID)
	}
	return p, nil
}

// SaveProgress writes p back. A stored completed or failed status and its
// score are never overwritten, so a request holding a stale copy cannot
// reopen a finished session. started_at, completed_at and timed_out keep
// their stored value once set; only ResetTopic clears them.
func (s *SQLStore) SaveProgress(ctx context.Context, p Progress) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE topic_progress SET
		   score=CASE WHEN status IN ('completed','failed') THEN score ELSE $2 END,
		   status=CASE WHEN status IN ('completed','failed') THEN status ELSE $1 END,
		   is_timed=$3, time_limit_seconds=$4,
		   started_at=COALESCE(started_at, $5),
		   timed_out=CASE WHEN timed_out THEN timed_out ELSE $6 END,
		   completed_at=COALESCE(completed_at, $7)
		 WHERE user_id=$8 AND topic_id=$9`,
		string(p.Status), nullInt(p.Score), p.IsTimed, nullInt(p.TimeLimitSeconds),
		nullTime(p.StartedAt), p.TimedOut, nullTime(p.CompletedAt),
		p.UserID, p.TopicID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: progress", ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ListProgressForCourse(ctx context.Context, userID string, courseID int64) ([]Progress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+progressCols+` FROM topic_progress p
		   JOIN topics t ON t.id = p.topic_id
		   JOIN modules m ON m.id = t.module_id
		  WHERE p.user_id=$1 AND m.course_id=$2
		  ORDER BY p.topic_id`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Progress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAnswers(ctx context.Context, userID string, topicID int64) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.user_id, a.question_id, a.selected_json, a.is_correct, a.score, a.answered_at
		   FROM answers a JOIN questions q ON q.id = a.question_id
		  WHERE a.user_id=$1 AND q.topic_id=$2
		  ORDER BY q.sort_order, q.id`, userID, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Answer{}
	for rows.Next() {
		var a Answer
		var selJSON string
		var answeredAt int64
		if err := rows.Scan(&a.UserID, &a.QuestionID, &selJSON, &a.IsCorrect, &a.Score, &answeredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(selJSON), &a.Selected); err != nil {
			return nil, fmt.Errorf("answer %d selected_json: %w", a.QuestionID, err)
		}
		if a.Selected == nil {
			a.Selected = []int64{}
		}
		a.AnsweredAt = time.Unix(answeredAt, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, a Answer) error {
	sel := a.Selected
	if sel == nil {
		sel = []int64{}
	}
	buf, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO answers (user_id, question_id, selected_json, is_correct, score, answered_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (user_id, question_id) DO UPDATE SET
		   selected_json=EXCLUDED.selected_json, is_correct=EXCLUDED.is_correct,
		   score=EXCLUDED.score, answered_at=EXCLUDED.answered_at`,
		a.UserID, a.QuestionID, string(buf), a.IsCorrect, a.Score, a.AnsweredAt.Unix())
	return err
}

func (s *SQLStore) ResetTopic(ctx context.Context, userID string, topicID int64, isTimed bool, limit *int) (p Progress, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Progress{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM answers WHERE user_id=$1
		   AND question_id IN (SELECT id FROM questions WHERE topic_id=$2)`, userID, topicID); err != nil {
		return Progress{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO topic_progress (user_id, topic_id, status, score, is_timed, time_limit_seconds, started_at, timed_out, completed_at)
		 VALUES ($1,$2,$3,NULL,$4,$5,NULL,$6,NULL)
		 ON CONFLICT (user_id, topic_id) DO UPDATE SET
		   status=EXCLUDED.status, score=NULL, is_timed=EXCLUDED.is_timed,
		   time_limit_seconds=EXCLUDED.time_limit_seconds, started_at=NULL,
		   timed_out=EXCLUDED.timed_out, completed_at=NULL`,
		userID, topicID, string(StatusNotStarted), isTimed, nullInt(limit), false); err != nil {
		return Progress{}, err
	}
	p, err = scanProgress(tx.QueryRowContext(ctx,
		`SELECT `+progressCols+` FROM topic_progress p WHERE p.user_id=$1 AND p.topic_id=$2`, userID, topicID))
	return p, err
}

// ---- null helpers (timestamps are unix seconds) ----

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeFromNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}
