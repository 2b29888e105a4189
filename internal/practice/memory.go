package practice

import (
	"context"
	"fmt"
	"sync"
)

// memoryStore is an in-process Repository. Topic membership of answers is
// resolved through the catalog's question list.
type memoryStore struct {
	mu       sync.Mutex
	catalog  Catalog
	seq      int64
	progress map[string]Progress // key: user|topic
	answers  map[string]Answer   // key: user|question
}

func NewMemoryStore(catalog Catalog) Repository {
	return &memoryStore{
		catalog:  catalog,
		progress: map[string]Progress{},
		answers:  map[string]Answer{},
	}
}

func memKey(userID string, id int64) string { return fmt.Sprintf("%s|%d", userID, id) }

func (m *memoryStore) GetProgress(_ context.Context, userID string, topicID int64) (Progress, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[memKey(userID, topicID)]
	return p, ok, nil
}

func (m *memoryStore) EnsureProgress(_ context.Context, userID string, topicID int64) (Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(userID, topicID)
	if p, ok := m.progress[k]; ok {
		return p, nil
	}
	m.seq++
	p := Progress{ID: m.seq, UserID: userID, TopicID: topicID, Status: StatusNotStarted}
	m.progress[k] = p
	return p, nil
}

func (m *memoryStore) SaveProgress(_ context.Context, p Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(p.UserID, p.TopicID)
	cur, ok := m.progress[k]
	if !ok {
		return fmt.Errorf("%w: progress", ErrNotFound)
	}
	if cur.Status.Terminal() {
		p.Status = cur.Status
		p.Score = cur.Score
	}
	if cur.StartedAt != nil {
		p.StartedAt = cur.StartedAt
	}
	if cur.CompletedAt != nil {
		p.CompletedAt = cur.CompletedAt
	}
	p.TimedOut = p.TimedOut || cur.TimedOut
	p.ID = cur.ID
	m.progress[k] = p
	return nil
}

func (m *memoryStore) ListProgressForCourse(ctx context.Context, userID string, courseID int64) ([]Progress, error) {
	c, err := m.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Progress{}
	for _, mod := range c.Modules {
		for _, t := range mod.Topics {
			if p, ok := m.progress[memKey(userID, t.ID)]; ok {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *memoryStore) ListAnswers(ctx context.Context, userID string, topicID int64) ([]Answer, error) {
	qs, err := m.catalog.ListQuestions(ctx, topicID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Answer{}
	for _, q := range qs {
		if a, ok := m.answers[memKey(userID, q.ID)]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) UpsertAnswer(_ context.Context, a Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.Selected = append([]int64{}, a.Selected...)
	m.answers[memKey(a.UserID, a.QuestionID)] = a
	return nil
}

func (m *memoryStore) ResetTopic(ctx context.Context, userID string, topicID int64, isTimed bool, limit *int) (Progress, error) {
	qs, err := m.catalog.ListQuestions(ctx, topicID)
	if err != nil {
		return Progress{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range qs {
		delete(m.answers, memKey(userID, q.ID))
	}
	k := memKey(userID, topicID)
	p, ok := m.progress[k]
	if !ok {
		m.seq++
		p = Progress{ID: m.seq, UserID: userID, TopicID: topicID}
	}
	p.Status = StatusNotStarted
	p.Score = nil
	p.IsTimed = isTimed
	p.TimeLimitSeconds = copyInt(limit)
	p.StartedAt = nil
	p.TimedOut = false
	p.CompletedAt = nil
	m.progress[k] = p
	return p, nil
}
