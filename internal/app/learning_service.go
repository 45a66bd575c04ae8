package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gurukulx/internal/domain"
)

// LearningRepository persists the CRUD collections: assignments, doubts,
// and feedback.
type LearningRepository interface {
	ListAssignments(ctx context.Context, class string) ([]domain.Assignment, error)
	GetAssignment(ctx context.Context, id string) (domain.Assignment, error)
	SaveAssignment(ctx context.Context, a domain.Assignment) error
	ListDoubts(ctx context.Context, studentName string) ([]domain.Doubt, error)
	GetDoubt(ctx context.Context, id string) (domain.Doubt, error)
	SaveDoubt(ctx context.Context, d domain.Doubt) error
	SaveFeedback(ctx context.Context, f domain.Feedback) error
	ListFeedback(ctx context.Context) ([]domain.Feedback, error)
}

// LearningService covers the teacher/student CRUD surface: assignments with
// submissions, doubts with answers, and platform feedback.
type LearningService struct {
	repo LearningRepository
	now  func() time.Time
}

func NewLearningService(repo LearningRepository) *LearningService {
	return &LearningService{repo: repo, now: time.Now}
}

// CreateAssignment is teacher-only.
func (s *LearningService) CreateAssignment(ctx context.Context, teacher domain.User, a domain.Assignment) (domain.Assignment, error) {
	if teacher.Role != domain.RoleTeacher {
		return domain.Assignment{}, domain.ErrNotTeacher
	}
	a.ID = uuid.NewString()
	a.TeacherName = teacher.Name
	a.CreatedAt = s.now()
	a.Submissions = nil
	if err := s.repo.SaveAssignment(ctx, a); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

// ListAssignments returns assignments visible to a class; an empty class
// sees everything.
func (s *LearningService) ListAssignments(ctx context.Context, class string) ([]domain.Assignment, error) {
	return s.repo.ListAssignments(ctx, class)
}

// SubmitAssignment records a student's answer, replacing any earlier one.
func (s *LearningService) SubmitAssignment(ctx context.Context, id string, student domain.User, answer string) (domain.Assignment, error) {
	a, err := s.repo.GetAssignment(ctx, id)
	if err != nil {
		return domain.Assignment{}, err
	}
	submission := domain.Submission{
		StudentName: student.Name,
		Answer:      answer,
		SubmittedAt: s.now(),
	}
	replaced := false
	for i := range a.Submissions {
		if a.Submissions[i].StudentName == student.Name {
			a.Submissions[i] = submission
			replaced = true
			break
		}
	}
	if !replaced {
		a.Submissions = append(a.Submissions, submission)
	}
	if err := s.repo.SaveAssignment(ctx, a); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

// AskDoubt files a student question.
func (s *LearningService) AskDoubt(ctx context.Context, student domain.User, subject, question string) (domain.Doubt, error) {
	d := domain.Doubt{
		ID:          uuid.NewString(),
		StudentName: student.Name,
		Subject:     subject,
		Question:    question,
		Status:      domain.DoubtOpen,
		CreatedAt:   s.now(),
	}
	if err := s.repo.SaveDoubt(ctx, d); err != nil {
		return domain.Doubt{}, err
	}
	return d, nil
}

// ListDoubts shows teachers every doubt and students only their own.
func (s *LearningService) ListDoubts(ctx context.Context, user domain.User) ([]domain.Doubt, error) {
	if user.Role == domain.RoleTeacher {
		return s.repo.ListDoubts(ctx, "")
	}
	return s.repo.ListDoubts(ctx, user.Name)
}

// AnswerDoubt is teacher-only and marks the doubt answered.
func (s *LearningService) AnswerDoubt(ctx context.Context, id string, teacher domain.User, answer string) (domain.Doubt, error) {
	if teacher.Role != domain.RoleTeacher {
		return domain.Doubt{}, domain.ErrNotTeacher
	}
	d, err := s.repo.GetDoubt(ctx, id)
	if err != nil {
		return domain.Doubt{}, err
	}
	d.Answer = answer
	d.TeacherName = teacher.Name
	d.Status = domain.DoubtAnswered
	d.AnsweredAt = s.now()
	if err := s.repo.SaveDoubt(ctx, d); err != nil {
		return domain.Doubt{}, err
	}
	return d, nil
}

// SubmitFeedback stores a rating, clamped to 1..5.
func (s *LearningService) SubmitFeedback(ctx context.Context, user domain.User, message string, rating int) (domain.Feedback, error) {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	f := domain.Feedback{
		ID:        uuid.NewString(),
		Name:      user.Name,
		Role:      user.Role,
		Message:   message,
		Rating:    rating,
		CreatedAt: s.now(),
	}
	if err := s.repo.SaveFeedback(ctx, f); err != nil {
		return domain.Feedback{}, err
	}
	return f, nil
}

// ListFeedback is the teacher dashboard view of all feedback.
func (s *LearningService) ListFeedback(ctx context.Context, user domain.User) ([]domain.Feedback, error) {
	if user.Role != domain.RoleTeacher {
		return nil, domain.ErrNotTeacher
	}
	return s.repo.ListFeedback(ctx)
}
