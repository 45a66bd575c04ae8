package memory

import (
	"context"
	"sort"
	"sync"

	"gurukulx/internal/domain"
)

// LearningStore holds assignments, doubts, and feedback in memory. It mirrors
// the Postgres document store contract so either can back the learning
// service.
type LearningStore struct {
	mu          sync.RWMutex
	assignments map[string]domain.Assignment
	doubts      map[string]domain.Doubt
	feedback    []domain.Feedback
}

func NewLearningStore() *LearningStore {
	return &LearningStore{
		assignments: make(map[string]domain.Assignment),
		doubts:      make(map[string]domain.Doubt),
	}
}

func (s *LearningStore) ListAssignments(_ context.Context, class string) ([]domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if class == "" || a.Class == "" || a.Class == class {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *LearningStore) GetAssignment(_ context.Context, id string) (domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	return a, nil
}

func (s *LearningStore) SaveAssignment(_ context.Context, a domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID] = a
	return nil
}

func (s *LearningStore) ListDoubts(_ context.Context, studentName string) ([]domain.Doubt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Doubt, 0, len(s.doubts))
	for _, d := range s.doubts {
		if studentName == "" || d.StudentName == studentName {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *LearningStore) GetDoubt(_ context.Context, id string) (domain.Doubt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doubts[id]
	if !ok {
		return domain.Doubt{}, domain.ErrDoubtNotFound
	}
	return d, nil
}

func (s *LearningStore) SaveDoubt(_ context.Context, d domain.Doubt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doubts[d.ID] = d
	return nil
}

func (s *LearningStore) SaveFeedback(_ context.Context, f domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, f)
	return nil
}

func (s *LearningStore) ListFeedback(_ context.Context) ([]domain.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out, nil
}
