package app

import (
	"context"
	"sync"
	"time"

	"gurukulx/internal/domain"
)

// QuestionRepository loads the question bank for a game type.
type QuestionRepository interface {
	LoadQuestions(ctx context.Context, gameType domain.GameType) ([]domain.Question, error)
}

// ResultSink receives completed results for best-effort upstream delivery.
type ResultSink interface {
	Dispatch(ctx context.Context, upload domain.ResultUpload)
}

// GameService owns at most one live session per user. Starting a game always
// discards the user's previous session, whatever state it was in; the
// abandoned run keeps its all-or-nothing policy and emits nothing.
type GameService struct {
	questions   QuestionRepository
	ledger      *ProfileService
	boards      *ScoreboardService
	results     ResultSink // nil when no upstream endpoint is configured
	questionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*GameSession
}

func NewGameService(questions QuestionRepository, ledger *ProfileService, boards *ScoreboardService, questionTTL time.Duration) *GameService {
	return &GameService{
		questions:   questions,
		ledger:      ledger,
		boards:      boards,
		questionTTL: questionTTL,
		sessions:    make(map[string]*GameSession),
	}
}

func (s *GameService) WithResultSink(sink ResultSink) *GameService {
	s.results = sink
	return s
}

// Start begins a fresh session of gameType for name and returns it with its
// first question armed.
func (s *GameService) Start(ctx context.Context, name string, gameType domain.GameType) (*GameSession, error) {
	questions, err := s.questions.LoadQuestions(ctx, gameType)
	if err != nil {
		return nil, err
	}
	profile := s.ledger.Profile(name)

	var session *GameSession
	session = newGameSession(gameType, questions, profile, s.questionTTL, func(result domain.GameResult) {
		s.complete(name, session, result)
	})

	s.mu.Lock()
	prior := s.sessions[name]
	s.sessions[name] = session
	s.mu.Unlock()
	// abandon outside s.mu: the old session's end hook takes s.mu itself
	if prior != nil {
		prior.Abandon()
	}

	if err := session.Start(); err != nil {
		return nil, err
	}
	return session, nil
}

// Session returns the live session for name.
func (s *GameService) Session(name string) (*GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[name]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Submit forwards an answer to name's live session.
func (s *GameService) Submit(_ context.Context, name, questionID, optionID string) (SubmitOutcome, error) {
	session, err := s.Session(name)
	if err != nil {
		return SubmitOutcome{}, err
	}
	return session.Submit(questionID, optionID)
}

// Abandon discards name's live session without credit.
func (s *GameService) Abandon(name string) {
	s.mu.Lock()
	session, ok := s.sessions[name]
	if ok {
		delete(s.sessions, name)
	}
	s.mu.Unlock()
	if ok {
		session.Abandon()
	}
}

// complete is the single Ended hook: apply the result to the ledger once,
// sync both scoreboards once, then hand the upload to the dispatcher.
func (s *GameService) complete(name string, ended *GameSession, result domain.GameResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile := s.ledger.ApplyGameResult(name, result)
	s.boards.SyncScoreboards(ctx, name)

	s.mu.Lock()
	if s.sessions[name] == ended {
		delete(s.sessions, name)
	}
	s.mu.Unlock()

	if s.results != nil {
		s.results.Dispatch(ctx, domain.ResultUpload{
			Name:            profile.Name,
			GameType:        result.GameType,
			Score:           result.ScoreDelta,
			XPEarned:        result.XPDelta,
			ProgressEarned:  result.ProgressDelta,
			CompletedAtUnix: time.Now().Unix(),
		})
	}
}
