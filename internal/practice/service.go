package practice

import (
	"context"
	"fmt"
	"log"

	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/grading"
)

// Service is the practice-session controller. It holds no session state;
// every call rebuilds the session from the catalog and the repository.
type Service struct {
	catalog Catalog
	repo    Repository
	grader  grading.Grader
	clock   Clock
	events  EventSink
}

type Option func(*Service)

func WithClock(c Clock) Option      { return func(s *Service) { s.clock = c } }
func WithEvents(e EventSink) Option { return func(s *Service) { s.events = e } }

func NewService(catalog Catalog, repo Repository, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		repo:    repo,
		grader:  grading.NewDefaultGrader(),
		clock:   SystemClock{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ---- views ----

type OptionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// QuestionView is a question as served to students: no correctness flags.
type QuestionView struct {
	ID       int64               `json:"id"`
	Text     string              `json:"text"`
	Order    int                 `json:"order"`
	Type     course.QuestionType `json:"question_type"`
	MaxScore int                 `json:"max_score"`
	Options  []OptionView        `json:"options"`
}

func viewOf(q course.Question) QuestionView {
	v := QuestionView{ID: q.ID, Text: q.Text, Order: q.Order, Type: q.Type, MaxScore: q.MaxScore, Options: []OptionView{}}
	for _, o := range q.Options {
		v.Options = append(v.Options, OptionView{ID: o.ID, Text: o.Text})
	}
	return v
}

type LastAnswer struct {
	IsCorrect         bool    `json:"is_correct"`
	SelectedOptionIDs []int64 `json:"selected_option_ids"`
	Score             int     `json:"score"`
}

type NextQuestion struct {
	Completed         bool          `json:"completed"`
	IsTimed           bool          `json:"is_timed"`
	TimedOut          bool          `json:"timed_out"`
	Passed            *bool         `json:"passed"`
	TopicID           int64         `json:"topic_id"`
	TopicTitle        string        `json:"topic_title"`
	TotalQuestions    int           `json:"total_questions"`
	AnsweredQuestions int           `json:"answered_questions"`
	CorrectAnswers    int           `json:"correct_answers"`
	ProgressPercent   int           `json:"progress_percent"`
	ScorePercent      int           `json:"score_percent"`
	TimeLimitSeconds  *int          `json:"time_limit_seconds"`
	RemainingSeconds  *int          `json:"remaining_seconds"`
	Question          *QuestionView `json:"question"`
	LastAnswer        *LastAnswer   `json:"last_answer"`
}

type SubmitResult struct {
	IsCorrect            bool `json:"is_correct"`
	Score                int  `json:"score"`
	AnsweredQuestions    int  `json:"answered_questions"`
	TotalQuestions       int  `json:"total_questions"`
	TopicProgressPercent int  `json:"topic_progress_percent"`
	IsTimed              bool `json:"is_timed"`
	TestCompleted        bool `json:"test_completed"`
	TimedOut             bool `json:"timed_out"`
	Passed               bool `json:"passed"`
	CorrectAnswers       int  `json:"correct_answers"`
	ScorePercent         int  `json:"score_percent"`
	TimeLimitSeconds     *int `json:"time_limit_seconds"`
	RemainingSeconds     *int `json:"remaining_seconds"`
}

type HistoryQuestion struct {
	QuestionView
	UserOptionIDs []int64 `json:"user_option_ids"`
	IsCorrect     *bool   `json:"is_correct"`
}

type History struct {
	TopicID    int64             `json:"topic_id"`
	TopicTitle string            `json:"topic_title"`
	Questions  []HistoryQuestion `json:"questions"`
}

// ---- helpers ----

func (s *Service) topicFor(ctx context.Context, userID string, topicID int64) (course.Topic, error) {
	t, err := s.catalog.GetTopic(ctx, topicID)
	if err != nil {
		return course.Topic{}, err
	}
	return t, s.checkEnrolled(ctx, t.CourseID, userID)
}

func (s *Service) checkEnrolled(ctx context.Context, courseID int64, userID string) error {
	ok, err := s.catalog.IsEnrolled(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("you are not enrolled in this course")
	}
	return nil
}

// start resolves the progress row and applies lazy start.
func (s *Service) start(ctx context.Context, userID string, topicID int64, limit *int) (Progress, error) {
	p, err := s.repo.EnsureProgress(ctx, userID, topicID)
	if err != nil {
		return Progress{}, err
	}
	if p.begin(limit, s.clock.Now()) {
		if err := s.repo.SaveProgress(ctx, p); err != nil {
			return Progress{}, err
		}
	}
	return p, nil
}

// save persists p and publishes an event when the session just ended.
func (s *Service) save(ctx context.Context, p Progress, wasTerminal bool) error {
	if err := s.repo.SaveProgress(ctx, p); err != nil {
		return err
	}
	if !wasTerminal && p.Status.Terminal() {
		typ := EventTopicFailed
		if p.Status == StatusCompleted {
			typ = EventTopicCompleted
		}
		s.publish(ctx, typ, p.UserID, p.TopicID, map[string]any{
			"status":    p.Status,
			"score":     p.Score,
			"timed_out": p.TimedOut,
		})
	}
	return nil
}

func (s *Service) publish(ctx context.Context, typ, userID string, topicID int64, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, typ, fmt.Sprintf("%s:%d", userID, topicID), payload); err != nil {
		log.Printf("practice: publish %s for %s/%d: %v", typ, userID, topicID, err)
	}
}

func answersByQuestion(qs []course.Question, answers []Answer) (map[int64]Answer, int) {
	in := make(map[int64]bool, len(qs))
	for _, q := range qs {
		in[q.ID] = true
	}
	by := make(map[int64]Answer, len(answers))
	correct := 0
	for _, a := range answers {
		if !in[a.QuestionID] {
			continue
		}
		by[a.QuestionID] = a
		if a.IsCorrect {
			correct++
		}
	}
	return by, correct
}

func boolp(v bool) *bool { return &v }
func intp(v int) *int    { return &v }

// ---- operations ----

// NextQuestion returns the question to serve next, or the completion payload
// when the session is over.
func (s *Service) NextQuestion(ctx context.Context, userID string, topicID int64) (NextQuestion, error) {
	topic, err := s.topicFor(ctx, userID, topicID)
	if err != nil {
		return NextQuestion{}, err
	}
	limit := EffectiveLimit(topic)
	p, err := s.start(ctx, userID, topic.ID, limit)
	if err != nil {
		return NextQuestion{}, err
	}
	qs, err := s.catalog.ListQuestions(ctx, topic.ID)
	if err != nil {
		return NextQuestion{}, err
	}
	answers, err := s.repo.ListAnswers(ctx, userID, topic.ID)
	if err != nil {
		return NextQuestion{}, err
	}
	byQ, correct := answersByQuestion(qs, answers)
	total := len(qs)

	out := NextQuestion{
		TopicID:        topic.ID,
		TopicTitle:     topic.Title,
		TotalQuestions: total,
		CorrectAnswers: correct,
	}

	if limit != nil {
		return s.nextTimed(ctx, p, qs, byQ, correct, *limit, out)
	}

	// Untimed: revisit the first wrong answer before moving on.
	var next *course.Question
	for i := range qs {
		if a, ok := byQ[qs[i].ID]; ok && !a.IsCorrect {
			next = &qs[i]
			out.LastAnswer = &LastAnswer{IsCorrect: a.IsCorrect, SelectedOptionIDs: a.Selected, Score: a.Score}
			break
		}
	}
	if next == nil {
		for i := range qs {
			if _, ok := byQ[qs[i].ID]; !ok {
				next = &qs[i]
				break
			}
		}
	}
	out.AnsweredQuestions = correct

	if next == nil {
		wasTerminal := p.Status.Terminal()
		if p.complete(100, s.clock.Now()) {
			if err := s.save(ctx, p, wasTerminal); err != nil {
				return NextQuestion{}, err
			}
		}
		out.Completed = true
		out.Passed = boolp(true)
		out.ProgressPercent = 100
		out.ScorePercent = 100
		return out, nil
	}

	out.ProgressPercent = Percent(correct, total)
	out.ScorePercent = out.ProgressPercent
	v := viewOf(*next)
	out.Question = &v
	return out, nil
}

func (s *Service) nextTimed(ctx context.Context, p Progress, qs []course.Question, byQ map[int64]Answer, correct, limit int, out NextQuestion) (NextQuestion, error) {
	now := s.clock.Now()
	total := len(qs)
	lim := p.limitOr(limit)
	remaining := Remaining(p.StartedAt, lim, now)
	answered := len(byQ)
	wasTerminal := p.Status.Terminal()

	// A finished session is reported as stored; the clock no longer applies.
	timedOut := p.TimedOut
	if !wasTerminal {
		timedOut = timedOut || remaining <= 0
	}
	completed := wasTerminal || timedOut || answered >= total
	score := Percent(correct, total)

	out.IsTimed = true
	out.TimedOut = timedOut
	out.AnsweredQuestions = answered
	out.ProgressPercent = Percent(answered, total)
	out.ScorePercent = score
	out.TimeLimitSeconds = intp(lim)
	out.RemainingSeconds = intp(remaining)

	if completed {
		passed := p.Status == StatusCompleted
		if !wasTerminal {
			passed = Passed(correct, total, timedOut)
			if timedOut {
				p.markTimedOut()
			}
			if passed {
				p.complete(score, now)
			} else {
				p.fail(score, now)
			}
			if err := s.save(ctx, p, wasTerminal); err != nil {
				return NextQuestion{}, err
			}
		}
		out.Completed = true
		out.Passed = boolp(passed)
		return out, nil
	}

	if p.setScore(score) {
		if err := s.repo.SaveProgress(ctx, p); err != nil {
			return NextQuestion{}, err
		}
	}
	out.Passed = boolp(false)
	for i := range qs {
		if _, ok := byQ[qs[i].ID]; !ok {
			v := viewOf(qs[i])
			out.Question = &v
			break
		}
	}
	return out, nil
}

// validateSelection checks option ownership and arity before anything is written.
func validateSelection(q course.Question, selected []int64, timed bool) error {
	seen := make(map[int64]bool, len(selected))
	for _, id := range selected {
		if seen[id] || !q.HasOption(id) {
			return invalid("invalid options for this question")
		}
		seen[id] = true
	}
	switch q.Type {
	case course.QuestionSingle:
		if timed && len(selected) > 1 {
			return invalid("select no more than one option")
		}
		if !timed && len(selected) != 1 {
			return invalid("exactly one option must be selected")
		}
	case course.QuestionMulti:
		if !timed && len(selected) < 1 {
			return invalid("select at least one option")
		}
	}
	return nil
}

// SubmitAnswer grades and stores the user's selection for a question and
// advances the topic session.
func (s *Service) SubmitAnswer(ctx context.Context, userID string, questionID int64, selected []int64) (SubmitResult, error) {
	q, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return SubmitResult{}, err
	}
	topic, err := s.topicFor(ctx, userID, q.TopicID)
	if err != nil {
		return SubmitResult{}, err
	}
	limit := EffectiveLimit(topic)
	timed := limit != nil
	if selected == nil {
		selected = []int64{}
	}
	if err := validateSelection(q, selected, timed); err != nil {
		return SubmitResult{}, err
	}
	if timed {
		cur, found, err := s.repo.GetProgress(ctx, userID, topic.ID)
		if err != nil {
			return SubmitResult{}, err
		}
		if found && cur.Status.Terminal() {
			return SubmitResult{}, invalid("test already finished")
		}
	}

	p, err := s.start(ctx, userID, topic.ID, limit)
	if err != nil {
		return SubmitResult{}, err
	}
	qs, err := s.catalog.ListQuestions(ctx, topic.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	total := len(qs)
	now := s.clock.Now()

	var lim, remaining int
	if timed {
		lim = p.limitOr(*limit)
		remaining = Remaining(p.StartedAt, lim, now)
		if remaining <= 0 {
			return s.expire(ctx, p, qs, lim)
		}
	}

	res := s.grader.Grade(ctx, grading.FromQuestion(q), selected)
	if err := s.repo.UpsertAnswer(ctx, Answer{
		UserID:     userID,
		QuestionID: q.ID,
		Selected:   selected,
		IsCorrect:  res.Correct,
		Score:      res.Score,
		AnsweredAt: now,
	}); err != nil {
		return SubmitResult{}, err
	}
	s.publish(ctx, EventAnswerSubmitted, userID, topic.ID, map[string]any{
		"question_id":         q.ID,
		"selected_option_ids": selected,
		"is_correct":          res.Correct,
		"score":               res.Score,
	})

	answers, err := s.repo.ListAnswers(ctx, userID, topic.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	byQ, correct := answersByQuestion(qs, answers)
	answered := len(byQ)
	wasTerminal := p.Status.Terminal()

	out := SubmitResult{
		IsCorrect:      res.Correct,
		Score:          res.Score,
		TotalQuestions: total,
		IsTimed:        timed,
		CorrectAnswers: correct,
	}

	if timed {
		timedOut := p.TimedOut
		completed := timedOut || answered >= total
		passed := completed && Passed(correct, total, timedOut)
		score := Percent(correct, total)
		switch {
		case passed:
			p.complete(score, now)
		case completed:
			p.fail(score, now)
		default:
			p.setScore(score)
		}
		if err := s.save(ctx, p, wasTerminal); err != nil {
			return SubmitResult{}, err
		}
		out.AnsweredQuestions = answered
		out.TopicProgressPercent = Percent(answered, total)
		out.TestCompleted = completed
		out.TimedOut = timedOut
		out.Passed = passed
		out.ScorePercent = score
		out.TimeLimitSeconds = intp(lim)
		out.RemainingSeconds = intp(remaining)
		return out, nil
	}

	// Untimed: progress counts correct answers only.
	percent := Percent(correct, total)
	done := total > 0 && correct >= total
	var changed bool
	if done {
		changed = p.complete(percent, now)
	} else {
		changed = p.setScore(percent)
	}
	if changed {
		if err := s.save(ctx, p, wasTerminal); err != nil {
			return SubmitResult{}, err
		}
	}
	out.AnsweredQuestions = correct
	out.TopicProgressPercent = percent
	out.TestCompleted = done
	out.Passed = done
	out.ScorePercent = percent
	return out, nil
}

// expire ends a timed session whose time ran out before the submission
// arrived. The late answer is discarded.
func (s *Service) expire(ctx context.Context, p Progress, qs []course.Question, lim int) (SubmitResult, error) {
	answers, err := s.repo.ListAnswers(ctx, p.UserID, p.TopicID)
	if err != nil {
		return SubmitResult{}, err
	}
	byQ, correct := answersByQuestion(qs, answers)
	total := len(qs)
	score := Percent(correct, total)

	wasTerminal := p.Status.Terminal()
	p.markTimedOut()
	p.fail(score, s.clock.Now())
	if err := s.save(ctx, p, wasTerminal); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{
		AnsweredQuestions:    len(byQ),
		TotalQuestions:       total,
		TopicProgressPercent: Percent(len(byQ), total),
		IsTimed:              true,
		TestCompleted:        true,
		TimedOut:             true,
		CorrectAnswers:       correct,
		ScorePercent:         score,
		TimeLimitSeconds:     intp(lim),
		RemainingSeconds:     intp(0),
	}, nil
}

// History lists the topic's questions with the user's answers. It is only
// available once the session is over.
func (s *Service) History(ctx context.Context, userID string, topicID int64) (History, error) {
	topic, err := s.topicFor(ctx, userID, topicID)
	if err != nil {
		return History{}, err
	}
	p, found, err := s.repo.GetProgress(ctx, userID, topic.ID)
	if err != nil {
		return History{}, err
	}
	if !found || !p.Status.Terminal() {
		return History{}, invalid("history is available only for completed topics")
	}
	qs, err := s.catalog.ListQuestions(ctx, topic.ID)
	if err != nil {
		return History{}, err
	}
	answers, err := s.repo.ListAnswers(ctx, userID, topic.ID)
	if err != nil {
		return History{}, err
	}
	byQ, _ := answersByQuestion(qs, answers)

	out := History{TopicID: topic.ID, TopicTitle: topic.Title, Questions: []HistoryQuestion{}}
	for _, q := range qs {
		hq := HistoryQuestion{QuestionView: viewOf(q), UserOptionIDs: []int64{}}
		if a, ok := byQ[q.ID]; ok {
			hq.UserOptionIDs = append(hq.UserOptionIDs, a.Selected...)
			hq.IsCorrect = boolp(a.IsCorrect)
		}
		out.Questions = append(out.Questions, hq)
	}
	return out, nil
}

// Reset clears the user's answers for the topic and returns progress to
// not_started with a fresh timing snapshot. Repeating it is harmless.
func (s *Service) Reset(ctx context.Context, userID string, topicID int64) (Progress, error) {
	topic, err := s.topicFor(ctx, userID, topicID)
	if err != nil {
		return Progress{}, err
	}
	p, err := s.repo.ResetTopic(ctx, userID, topic.ID, topic.IsTimedTest, EffectiveLimit(topic))
	if err != nil {
		return Progress{}, err
	}
	s.publish(ctx, EventTopicReset, userID, topic.ID, map[string]any{"is_timed": p.IsTimed})
	return p, nil
}
