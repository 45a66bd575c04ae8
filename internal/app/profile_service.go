package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gurukulx/internal/domain"
)

// ProfileRepository abstracts local profile persistence (KV-backed map plus
// the flat current-session mirror).
type ProfileRepository interface {
	Load(name string) (domain.Profile, bool)
	Save(p domain.Profile, activeName string)
	SeedIfAbsent(p domain.Profile)
}

// IdentityRepository resolves and updates the active session user.
type IdentityRepository interface {
	CurrentUser() domain.User
	SetUser(patch domain.User) domain.User
}

// RemoteProfileStore is the optional server-side document copy of a profile.
// All calls through it are best-effort: a failure downgrades to local-only
// state, never to a caller-visible error.
type RemoteProfileStore interface {
	LoadProfile(ctx context.Context, name string) (domain.Profile, error)
	SaveProfile(ctx context.Context, p domain.Profile) error
}

// ScoreboardRepository persists the derived leaderboard and roster
// collections and seeds them on first run.
type ScoreboardRepository interface {
	Leaderboard() []domain.LeaderboardEntry
	SaveLeaderboard(entries []domain.LeaderboardEntry)
	Roster() []domain.RosterEntry
	SaveRoster(entries []domain.RosterEntry)
	Classes() []string
	SeedLeaderboardIfAbsent(entries []domain.LeaderboardEntry)
	SeedRosterIfAbsent(entries []domain.RosterEntry)
	SeedClassesIfAbsent(classes []string)
}

// ProfileService is the score/xp/level/progress/streak/badge ledger. It is
// the single writer of profile state; scoreboard projections read through it.
type ProfileService struct {
	profiles ProfileRepository
	identity IdentityRepository
	boards   ScoreboardRepository
	remote   RemoteProfileStore // nil when running purely local
	now      func() time.Time

	mu       sync.Mutex
	hydrated map[string]bool
}

func NewProfileService(profiles ProfileRepository, identity IdentityRepository, boards ScoreboardRepository) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		identity: identity,
		boards:   boards,
		now:      time.Now,
		hydrated: make(map[string]bool),
	}
}

// WithRemote attaches the server-side document store used for hydration and
// best-effort saves.
func (s *ProfileService) WithRemote(remote RemoteProfileStore) *ProfileService {
	s.remote = remote
	return s
}

// WithClock is test-only for deterministic dates.
func (s *ProfileService) WithClock(now func() time.Time) *ProfileService {
	s.now = now
	return s
}

// Profile returns the ledger snapshot for name, defaulting to the active
// session user when name is empty. A missing profile reads as the zero
// ledger, never as an error.
func (s *ProfileService) Profile(name string) domain.Profile {
	name = s.resolve(name)
	p, _ := s.profiles.Load(name)
	return p
}

// ApplyGameResult increments score, xp, and progress by the result's deltas,
// recomputes level from the fixed divisor and badges from the thresholds,
// persists, and returns the updated snapshot. Progress is clamped to [0,100];
// score and xp never go below zero.
func (s *ProfileService) ApplyGameResult(name string, res domain.GameResult) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	p, _ := s.profiles.Load(name)

	p.Score = clampMin(p.Score+res.ScoreDelta, 0)
	p.XP = clampMin(p.XP+res.XPDelta, 0)
	p.Progress = clamp(p.Progress+res.ProgressDelta, 0, 100)
	p.Level = domain.LevelForXP(p.XP)
	p.Badges = domain.BadgesFor(p.Score, p.Streak)

	s.profiles.Save(p, s.identity.CurrentUser().Name)
	s.saveRemote(p)
	return p
}

// MaintainStreak increments the streak on the first call of a new calendar
// day and records the visit date. Further calls on the same day are no-ops.
func (s *ProfileService) MaintainStreak(name string) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	p, _ := s.profiles.Load(name)

	today := s.now().Format("2006-01-02")
	if p.LastVisit == today {
		return p
	}
	p.Streak++
	p.LastVisit = today
	p.Badges = domain.BadgesFor(p.Score, p.Streak)

	s.profiles.Save(p, s.identity.CurrentUser().Name)
	s.saveRemote(p)
	return p
}

// ComputeBadges re-derives the badge set from the stored score and streak.
func (s *ProfileService) ComputeBadges(name string) []string {
	p := s.Profile(name)
	return domain.BadgesFor(p.Score, p.Streak)
}

// ResetProgress is the one sanctioned way progress moves backwards.
func (s *ProfileService) ResetProgress(name string) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	p, _ := s.profiles.Load(name)
	p.Progress = 0
	s.profiles.Save(p, s.identity.CurrentUser().Name)
	s.saveRemote(p)
	return p
}

// BootstrapDefaults seeds first-run state: a zero ledger for the active user,
// a sample leaderboard, the class list, and a roster containing a placeholder
// for the active user. Each target is checked per-key, so a partially seeded
// store is completed without disturbing existing keys.
func (s *ProfileService) BootstrapDefaults() {
	user := s.identity.CurrentUser()

	s.profiles.SeedIfAbsent(domain.Profile{
		Name:   user.Name,
		Level:  domain.LevelForXP(0),
		Badges: domain.BadgesFor(0, 0),
	})

	s.boards.SeedLeaderboardIfAbsent([]domain.LeaderboardEntry{
		{Name: "Aditi", Score: 820, Badge: domain.TopBadgeFor(820), Class: "6A"},
		{Name: "Rahul", Score: 640, Badge: domain.TopBadgeFor(640), Class: "6B"},
		{Name: "Meera", Score: 455, Badge: domain.TopBadgeFor(455), Class: "6A"},
		{Name: user.Name, Score: 0, Class: user.Class},
	})
	s.boards.SeedClassesIfAbsent([]string{"6A", "6B", "7A"})
	s.boards.SeedRosterIfAbsent([]domain.RosterEntry{
		{Name: "Aditi", Score: 820, Class: "6A"},
		{Name: "Rahul", Score: 640, Class: "6B"},
		{Name: "Meera", Score: 455, Class: "6A"},
		{Name: user.Name, Score: 0, Class: user.Class},
	})
}

// Hydrate pulls the remote profile copy for name. The remote copy wins on the
// first hydration of a session; afterwards local state wins and the call is a
// no-op. Remote failures leave local state untouched.
func (s *ProfileService) Hydrate(ctx context.Context, name string) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	if s.remote == nil || s.hydrated[name] {
		p, _ := s.profiles.Load(name)
		return p
	}

	remote, err := s.remote.LoadProfile(ctx, name)
	if err != nil {
		// a definitive miss settles hydration; a transient failure
		// leaves it open so the next login retries
		if errors.Is(err, domain.ErrProfileNotFound) {
			s.hydrated[name] = true
		} else {
			log.Printf("profile hydration for %s skipped: %v", name, err)
		}
		p, _ := s.profiles.Load(name)
		return p
	}
	s.hydrated[name] = true
	remote.Name = name
	remote.Level = domain.LevelForXP(remote.XP)
	remote.Badges = domain.BadgesFor(remote.Score, remote.Streak)
	s.profiles.Save(remote, s.identity.CurrentUser().Name)
	return remote
}

func (s *ProfileService) resolve(name string) string {
	if name == "" {
		return s.identity.CurrentUser().Name
	}
	return name
}

func (s *ProfileService) saveRemote(p domain.Profile) {
	if s.remote == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.remote.SaveProfile(ctx, p); err != nil {
		log.Printf("remote profile save for %s failed, kept local: %v", p.Name, err)
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}
