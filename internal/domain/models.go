package domain

import "time"

// Role distinguishes student and teacher accounts. It routes UI surfaces and
// teacher-only endpoints; for local ledger state it is advisory only.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is the resolved identity of the active session.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Class string `json:"class,omitempty"`
}

// GuestUser is the identity used when no session exists.
func GuestUser() User {
	return User{Name: "Guest", Role: RoleStudent}
}

// Account is the stored credential record behind a User.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Class        string    `json:"class,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is the per-user score ledger. Level and Badges are derived fields:
// Level from XP via LevelForXP, Badges from Score/Streak via BadgesFor. They
// are stored for display but resynced on every mutation.
type Profile struct {
	Name      string   `json:"name"`
	Score     int      `json:"score"`
	XP        int      `json:"xp"`
	Level     int      `json:"level"`
	Progress  int      `json:"progress"`
	Streak    int      `json:"streak"`
	Badges    []string `json:"badges"`
	LastVisit string   `json:"lastVisit,omitempty"` // calendar date, YYYY-MM-DD
}

// XPPerLevel is the fixed level divisor: level = 1 + xp/500.
const XPPerLevel = 500

// LevelForXP computes the level implied by an XP total.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}

// GameType identifies which arcade game produced a result.
type GameType string

const (
	GameQuiz       GameType = "quiz"
	GameBalloon    GameType = "balloon"
	GameComparison GameType = "comparison"
)

// GameResult is the single event a completed game session emits to the ledger.
type GameResult struct {
	GameType      GameType `json:"gameType"`
	ScoreDelta    int      `json:"score"`
	XPDelta       int      `json:"xpEarned"`
	ProgressDelta int      `json:"progressEarned"`
}

// LeaderboardEntry is one row of the ranked scoreboard, keyed by name.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Badge string `json:"badge,omitempty"`
	Class string `json:"class,omitempty"`
}

// Leaderboard is the ordered scoreboard snapshot pushed to subscribers.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// RosterEntry is one row of the teacher-facing students list.
type RosterEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Class string `json:"class,omitempty"`
}

// ClassStats aggregates roster scores for the teacher dashboard.
type ClassStats struct {
	Class    string  `json:"class"`
	Students int     `json:"students"`
	Average  float64 `json:"average"`
	Top      int     `json:"top"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option. All three
// games reduce to this shape: quiz questions natively, balloon equations and
// number comparisons via generated options.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	Points  int      `json:"points"` // defaults to 1 if zero
}

// Assignment is a teacher-owned task with student submissions.
type Assignment struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Subject     string       `json:"subject,omitempty"`
	Class       string       `json:"class,omitempty"`
	TeacherName string       `json:"teacherName"`
	DueDate     string       `json:"dueDate,omitempty"`
	Submissions []Submission `json:"submissions,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Submission is a student's answer to an assignment.
type Submission struct {
	StudentName string    `json:"studentName"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// DoubtStatus tracks whether a doubt has been answered.
type DoubtStatus string

const (
	DoubtOpen     DoubtStatus = "open"
	DoubtAnswered DoubtStatus = "answered"
)

// Doubt is a student question awaiting a teacher answer.
type Doubt struct {
	ID          string      `json:"id"`
	StudentName string      `json:"studentName"`
	Subject     string      `json:"subject,omitempty"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer,omitempty"`
	TeacherName string      `json:"teacherName,omitempty"`
	Status      DoubtStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	AnsweredAt  time.Time   `json:"answeredAt,omitempty"`
}

// Feedback is a free-form platform rating from any user.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"` // 1..5
	CreatedAt time.Time `json:"createdAt"`
}

// ResultUpload is the outbound wire form of a GameResult for the upstream
// aggregation endpoint.
type ResultUpload struct {
	Name            string   `json:"name"`
	GameType        GameType `json:"gameType"`
	Score           int      `json:"score"`
	XPEarned        int      `json:"xpEarned"`
	ProgressEarned  int      `json:"progressEarned"`
	CompletedAtUnix int64    `json:"completedAt"`
}
