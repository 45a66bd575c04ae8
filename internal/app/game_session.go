package app

import (
	"sync"
	"time"

	"gurukulx/internal/domain"
)

// SessionState is the lifecycle of a single game run.
type SessionState string

const (
	StateIdle    SessionState = "idle"
	StateRunning SessionState = "running"
	StateEnded   SessionState = "ended"
)

// RewardFunc computes the points awarded for a correctly answered question,
// given the player's ledger at session start. Each game supplies its own.
type RewardFunc func(q domain.Question, p domain.Profile) int

// rewards maps each game to its scoring strategy and the progress it grants
// on completion.
func rewards(gameType domain.GameType) (RewardFunc, int) {
	switch gameType {
	case domain.GameBalloon:
		// level-scaled: higher-level players pop for more
		return func(q domain.Question, p domain.Profile) int {
			return questionPoints(q) * p.Level
		}, 15
	case domain.GameComparison:
		// streak-scaled: daily visits compound the bonus
		return func(q domain.Question, p domain.Profile) int {
			return questionPoints(q) + 2*p.Streak
		}, 10
	default:
		// quiz: flat per-question points
		return func(q domain.Question, _ domain.Profile) int {
			return questionPoints(q)
		}, 20
	}
}

func questionPoints(q domain.Question) int {
	if q.Points > 0 {
		return q.Points
	}
	return 1
}

// SubmitOutcome reports the effect of one answer submission.
type SubmitOutcome struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	Score      int    `json:"score"`
	NextIndex  int    `json:"nextIndex"`
	Done       bool   `json:"done"`
}

// GameSession is the per-run transient state machine: question index, running
// score, and the per-question countdown. Its only durable output is the single
// GameResult emitted on the Running -> Ended transition; an abandoned session
// emits nothing.
type GameSession struct {
	gameType    domain.GameType
	questions   []domain.Question
	reward      RewardFunc
	progress    int
	profile     domain.Profile
	questionTTL time.Duration
	after       func(d time.Duration, f func()) *time.Timer
	onEnd       func(domain.GameResult)

	mu      sync.Mutex
	state   SessionState
	index   int
	score   int
	timer   *time.Timer
	epoch   int
	emitted bool
}

func newGameSession(gameType domain.GameType, questions []domain.Question, profile domain.Profile, questionTTL time.Duration, onEnd func(domain.GameResult)) *GameSession {
	reward, progress := rewards(gameType)
	return &GameSession{
		gameType:    gameType,
		questions:   questions,
		reward:      reward,
		progress:    progress,
		profile:     profile,
		questionTTL: questionTTL,
		after:       time.AfterFunc,
		onEnd:       onEnd,
		state:       StateIdle,
	}
}

// withTimerFunc is test-only: it replaces the countdown scheduler so tests
// can fire expiries by hand.
func (g *GameSession) withTimerFunc(after func(d time.Duration, f func()) *time.Timer) *GameSession {
	g.after = after
	return g
}

// Start moves Idle -> Running, resetting score, index, and timer.
func (g *GameSession) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateRunning {
		return domain.ErrSessionAlreadyRunning
	}
	g.state = StateRunning
	g.index = 0
	g.score = 0
	g.emitted = false
	g.armTimerLocked()
	return nil
}

// Submit records an answer for the current question. The mutex enforces the
// advance-then-accept-next-input contract: a submission advances state before
// the next one is considered.
func (g *GameSession) Submit(questionID, optionID string) (SubmitOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateRunning {
		return SubmitOutcome{}, domain.ErrSessionNotRunning
	}
	question := g.questions[g.index]
	if question.ID != questionID {
		return SubmitOutcome{}, domain.ErrQuestionNotFound
	}

	var selected *domain.Option
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			selected = &question.Options[i]
			break
		}
	}
	if selected == nil {
		return SubmitOutcome{}, domain.ErrOptionNotFound
	}

	awarded := 0
	if selected.Correct {
		awarded = g.reward(question, g.profile)
		g.score += awarded
	}
	g.advanceLocked()

	return SubmitOutcome{
		QuestionID: question.ID,
		Correct:    selected.Correct,
		Awarded:    awarded,
		Score:      g.score,
		NextIndex:  g.index,
		Done:       g.state == StateEnded,
	}, nil
}

// Question returns the question at the current index.
func (g *GameSession) Question() (domain.Question, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateRunning || g.index >= len(g.questions) {
		return domain.Question{}, false
	}
	return g.questions[g.index], true
}

// State reports the lifecycle state and running score.
func (g *GameSession) State() (SessionState, int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.index, g.score
}

// Abandon discards a Running session without emitting a result. Partial
// credit is never granted.
func (g *GameSession) Abandon() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
	if g.state == StateRunning {
		g.state = StateEnded
		g.emitted = true // suppress any emission path
	}
}

// expire is the countdown callback: an expired question counts as a timeout
// answer and the session advances. The epoch guard drops callbacks from
// timers that were already replaced or stopped.
func (g *GameSession) expire(epoch int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateRunning || epoch != g.epoch {
		return
	}
	g.advanceLocked()
}

func (g *GameSession) advanceLocked() {
	g.index++
	if g.index >= len(g.questions) {
		g.endLocked()
		return
	}
	g.armTimerLocked()
}

// armTimerLocked serializes countdowns: the prior timer is always stopped
// before a new one starts, so at most one is live per session.
func (g *GameSession) armTimerLocked() {
	g.stopTimerLocked()
	if g.questionTTL <= 0 {
		return
	}
	g.epoch++
	epoch := g.epoch
	g.timer = g.after(g.questionTTL, func() { g.expire(epoch) })
}

func (g *GameSession) stopTimerLocked() {
	g.epoch++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *GameSession) endLocked() {
	g.stopTimerLocked()
	g.state = StateEnded
	if g.emitted || g.onEnd == nil {
		return
	}
	g.emitted = true
	g.onEnd(domain.GameResult{
		GameType:      g.gameType,
		ScoreDelta:    g.score,
		XPDelta:       g.score,
		ProgressDelta: g.progress,
	})
}
