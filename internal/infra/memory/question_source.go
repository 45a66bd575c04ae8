package memory

import (
	"context"
	"fmt"
	"math/rand"

	"gurukulx/internal/domain"
)

// QuestionSource serves the per-game question banks. Balloon equations and
// number comparisons are generated; quiz questions come from a fixed bank so
// a database-backed loader can replace it without touching the games.
type QuestionSource struct {
	banks map[domain.GameType][]domain.Question
	rnd   *rand.Rand
}

func NewQuestionSource(quizBank []domain.Question, seed int64) *QuestionSource {
	s := &QuestionSource{
		banks: map[domain.GameType][]domain.Question{
			domain.GameQuiz: quizBank,
		},
		rnd: rand.New(rand.NewSource(seed)),
	}
	s.banks[domain.GameBalloon] = s.equationBank(8)
	s.banks[domain.GameComparison] = s.comparisonBank(8)
	return s
}

func (s *QuestionSource) LoadQuestions(_ context.Context, gameType domain.GameType) ([]domain.Question, error) {
	bank, ok := s.banks[gameType]
	if !ok || len(bank) == 0 {
		return nil, domain.ErrGameNotFound
	}
	return bank, nil
}

// equationBank builds balloon-pop rounds: an addition prompt with three
// numeric balloons, exactly one carrying the right answer.
func (s *QuestionSource) equationBank(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		a := s.rnd.Intn(9) + 1
		b := s.rnd.Intn(9) + 1
		answer := a + b
		correct := s.rnd.Intn(3)
		used := map[int]bool{answer: true}
		options := make([]domain.Option, 3)
		for j := range options {
			value := answer
			if j != correct {
				// wrong balloons drift by 1..3 either side; redraw on a
				// collision with the answer or another balloon
				for {
					offset := s.rnd.Intn(3) + 1
					if s.rnd.Intn(2) == 0 {
						value = answer + offset
					} else {
						value = answer - offset
					}
					if value >= 0 && !used[value] {
						break
					}
				}
				used[value] = true
			}
			options[j] = domain.Option{
				ID:      fmt.Sprintf("b%d-%d", i, j),
				Text:    fmt.Sprintf("%d", value),
				Correct: j == correct,
			}
		}
		questions = append(questions, domain.Question{
			ID:      fmt.Sprintf("eq-%d", i),
			Prompt:  fmt.Sprintf("%d + %d = ?", a, b),
			Options: options,
			Points:  10,
		})
	}
	return questions
}

// comparisonBank builds number-comparison rounds with <, >, = choices.
func (s *QuestionSource) comparisonBank(n int) []domain.Question {
	symbols := []string{"<", ">", "="}
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		left := s.rnd.Intn(50)
		right := s.rnd.Intn(50)
		answer := "="
		if left < right {
			answer = "<"
		} else if left > right {
			answer = ">"
		}
		options := make([]domain.Option, len(symbols))
		for j, sym := range symbols {
			options[j] = domain.Option{
				ID:      fmt.Sprintf("c%d-%d", i, j),
				Text:    sym,
				Correct: sym == answer,
			}
		}
		questions = append(questions, domain.Question{
			ID:      fmt.Sprintf("cmp-%d", i),
			Prompt:  fmt.Sprintf("%d ? %d", left, right),
			Options: options,
			Points:  5,
		})
	}
	return questions
}

// DefaultQuizBank is a small built-in MCQ bank used when no database-backed
// bank is configured.
func DefaultQuizBank() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Prompt: "Which gas do plants absorb from the air?",
			Options: []domain.Option{
				{ID: "q1-a", Text: "Oxygen"},
				{ID: "q1-b", Text: "Carbon dioxide", Correct: true},
				{ID: "q1-c", Text: "Nitrogen"},
			},
			Points: 10,
		},
		{
			ID:     "q2",
			Prompt: "What is 7 x 8?",
			Options: []domain.Option{
				{ID: "q2-a", Text: "54"},
				{ID: "q2-b", Text: "56", Correct: true},
				{ID: "q2-c", Text: "64"},
			},
			Points: 10,
		},
		{
			ID:     "q3",
			Prompt: "Which of these is a renewable source of energy?",
			Options: []domain.Option{
				{ID: "q3-a", Text: "Coal"},
				{ID: "q3-b", Text: "Petrol"},
				{ID: "q3-c", Text: "Solar", Correct: true},
			},
			Points: 10,
		},
	}
}
