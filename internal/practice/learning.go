package practice

import (
	"context"

	"github.com/mind-engage/elearn/internal/course"
)

// TopicTheory is the topic reading page with the user's practice status.
type TopicTheory struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	Order             int    `json:"order"`
	CourseID          int64  `json:"course_id"`
	CourseTitle       string `json:"course_title"`
	ModuleID          int64  `json:"module_id"`
	ModuleTitle       string `json:"module_title"`
	Status            Status `json:"status"`
	IsTimedTest       bool   `json:"is_timed_test"`
	TimeLimitSeconds  *int   `json:"time_limit_seconds"`
	TotalQuestions    int    `json:"total_questions"`
	AnsweredQuestions int    `json:"answered_questions"` // correct answers
	ProgressPercent   int    `json:"progress_percent"`
}

func (s *Service) TopicTheory(ctx context.Context, userID string, topicID int64) (TopicTheory, error) {
	topic, err := s.topicFor(ctx, userID, topicID)
	if err != nil {
		return TopicTheory{}, err
	}
	p, found, err := s.repo.GetProgress(ctx, userID, topic.ID)
	if err != nil {
		return TopicTheory{}, err
	}
	qs, err := s.catalog.ListQuestions(ctx, topic.ID)
	if err != nil {
		return TopicTheory{}, err
	}
	answers, err := s.repo.ListAnswers(ctx, userID, topic.ID)
	if err != nil {
		return TopicTheory{}, err
	}
	_, correct := answersByQuestion(qs, answers)

	status := StatusNotStarted
	if found {
		status = p.Status
	}
	return TopicTheory{
		ID:                topic.ID,
		Title:             topic.Title,
		Content:           topic.Content,
		Order:             topic.Order,
		CourseID:          topic.CourseID,
		CourseTitle:       topic.CourseTitle,
		ModuleID:          topic.ModuleID,
		ModuleTitle:       topic.ModuleTitle,
		Status:            status,
		IsTimedTest:       topic.IsTimedTest,
		TimeLimitSeconds:  topic.TimeLimitSeconds,
		TotalQuestions:    len(qs),
		AnsweredQuestions: correct,
		ProgressPercent:   Percent(correct, len(qs)),
	}, nil
}

type LearningTopic struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Order  int    `json:"order"`
	Status Status `json:"status"`
	Score  *int   `json:"score"`
}

type LearningModule struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Order  int             `json:"order"`
	Topics []LearningTopic `json:"topics"`
}

// LearningCourse is a course outline annotated with the user's progress.
type LearningCourse struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description"`
	AuthorName      string           `json:"author_name"`
	Modules         []LearningModule `json:"modules"`
	TotalTopics     int              `json:"total_topics"`
	CompletedTopics int              `json:"completed_topics"`
	ProgressPercent int              `json:"progress_percent"`
}

func (s *Service) CourseProgress(ctx context.Context, userID string, courseID int64) (LearningCourse, error) {
	c, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return LearningCourse{}, err
	}
	if err := s.checkEnrolled(ctx, c.ID, userID); err != nil {
		return LearningCourse{}, err
	}
	ps, err := s.repo.ListProgressForCourse(ctx, userID, c.ID)
	if err != nil {
		return LearningCourse{}, err
	}
	byTopic := make(map[int64]Progress, len(ps))
	for _, p := range ps {
		byTopic[p.TopicID] = p
	}

	out := LearningCourse{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		AuthorName:  c.AuthorName,
		Modules:     []LearningModule{},
	}
	for _, m := range c.Modules {
		lm := LearningModule{ID: m.ID, Title: m.Title, Order: m.Order, Topics: []LearningTopic{}}
		for _, t := range m.Topics {
			lt := learningTopic(t, byTopic)
			if lt.Status == StatusCompleted {
				out.CompletedTopics++
			}
			lm.Topics = append(lm.Topics, lt)
			out.TotalTopics++
		}
		out.Modules = append(out.Modules, lm)
	}
	out.ProgressPercent = Percent(out.CompletedTopics, out.TotalTopics)
	return out, nil
}

func learningTopic(t course.Topic, byTopic map[int64]Progress) LearningTopic {
	lt := LearningTopic{ID: t.ID, Title: t.Title, Order: t.Order, Status: StatusNotStarted}
	if p, ok := byTopic[t.ID]; ok {
		lt.Status = p.Status
		lt.Score = p.Score
	}
	return lt
}
