package app

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"gurukulx/internal/domain"
)

// LeaderboardMirror is an optional remote projection of the leaderboard
// (Redis sorted set). Publishing is best-effort.
type LeaderboardMirror interface {
	Publish(ctx context.Context, entries []domain.LeaderboardEntry) error
}

// ScoreboardService maintains the derived read-models: the ranked
// leaderboard, the teacher roster, and aggregate class stats. Both
// collections are rebuilt from the profile ledger by upsert-by-name:
// update the matching entry in place if present, else append, then re-sort.
type ScoreboardService struct {
	boards   ScoreboardRepository
	profiles ProfileRepository
	identity IdentityRepository
	mirror   LeaderboardMirror // nil when no Redis is configured
	now      func() time.Time

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewScoreboardService(boards ScoreboardRepository, profiles ProfileRepository, identity IdentityRepository) *ScoreboardService {
	return &ScoreboardService{
		boards:      boards,
		profiles:    profiles,
		identity:    identity,
		now:         time.Now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

func (s *ScoreboardService) WithMirror(mirror LeaderboardMirror) *ScoreboardService {
	s.mirror = mirror
	return s
}

// WithClock is test-only for deterministic snapshot timestamps.
func (s *ScoreboardService) WithClock(now func() time.Time) *ScoreboardService {
	s.now = now
	return s
}

// UpsertLeaderboard reconciles the named user's ledger score into the
// leaderboard. Sorting is descending by score and stable, so entries with
// equal scores keep their insertion order.
func (s *ScoreboardService) UpsertLeaderboard(ctx context.Context, name string) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	profile, _ := s.profiles.Load(name)
	user := s.identity.CurrentUser()

	entries := s.boards.Leaderboard()
	found := false
	for i := range entries {
		if entries[i].Name == name {
			entries[i].Score = profile.Score
			entries[i].Badge = domain.TopBadgeFor(profile.Score)
			if user.Name == name && user.Class != "" {
				entries[i].Class = user.Class
			}
			found = true
			break
		}
	}
	if !found {
		entry := domain.LeaderboardEntry{
			Name:  name,
			Score: profile.Score,
			Badge: domain.TopBadgeFor(profile.Score),
		}
		if user.Name == name {
			entry.Class = user.Class
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	s.boards.SaveLeaderboard(entries)
	s.publish(ctx, entries)
	return s.broadcastLocked(entries)
}

// UpsertRoster applies the same upsert-by-name discipline to the students
// roster, propagating the user's class when known.
func (s *ScoreboardService) UpsertRoster(_ context.Context, name string) []domain.RosterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	profile, _ := s.profiles.Load(name)
	user := s.identity.CurrentUser()

	entries := s.boards.Roster()
	found := false
	for i := range entries {
		if entries[i].Name == name {
			entries[i].Score = profile.Score
			if user.Name == name && user.Class != "" {
				entries[i].Class = user.Class
			}
			found = true
			break
		}
	}
	if !found {
		entry := domain.RosterEntry{Name: name, Score: profile.Score}
		if user.Name == name {
			entry.Class = user.Class
		}
		entries = append(entries, entry)
	}
	s.boards.SaveRoster(entries)
	return entries
}

// SetClass stamps class onto name's leaderboard and roster rows, upserting
// them from the ledger when absent. Unlike the upserts it takes the name
// directly and never consults the session identity.
func (s *ScoreboardService) SetClass(ctx context.Context, name, class string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	profile, _ := s.profiles.Load(name)

	entries := s.boards.Leaderboard()
	found := false
	for i := range entries {
		if entries[i].Name == name {
			entries[i].Class = class
			found = true
		}
	}
	if !found {
		entries = append(entries, domain.LeaderboardEntry{
			Name:  name,
			Score: profile.Score,
			Badge: domain.TopBadgeFor(profile.Score),
			Class: class,
		})
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Score > entries[j].Score
		})
	}
	s.boards.SaveLeaderboard(entries)
	s.publish(ctx, entries)
	s.broadcastLocked(entries)

	roster := s.boards.Roster()
	found = false
	for i := range roster {
		if roster[i].Name == name {
			roster[i].Class = class
			found = true
		}
	}
	if !found {
		roster = append(roster, domain.RosterEntry{Name: name, Score: profile.Score, Class: class})
	}
	s.boards.SaveRoster(roster)
}

// SyncScoreboards runs both upserts. It must follow every score mutation and
// is safe to call redundantly: with unchanged inputs both collections come
// out byte-identical.
func (s *ScoreboardService) SyncScoreboards(ctx context.Context, name string) {
	s.UpsertLeaderboard(ctx, name)
	s.UpsertRoster(ctx, name)
}

// Snapshot returns the current ordered leaderboard.
func (s *ScoreboardService) Snapshot() domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.boards.Leaderboard())
}

// TopN returns the first n leaderboard entries.
func (s *ScoreboardService) TopN(n int) []domain.LeaderboardEntry {
	entries := s.Snapshot().Entries
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// RankOf reports the positional rank of name: 1 plus the count of entries
// with a strictly greater score. Ties therefore share the first occurrence's
// rank. The second value is false when the name is not on the board.
func (s *ScoreboardService) RankOf(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.boards.Leaderboard()
	var score int
	found := false
	for _, e := range entries {
		if e.Name == name {
			score = e.Score
			found = true
			break
		}
	}
	if !found {
		return 0, false
	}
	rank := 1
	for _, e := range entries {
		if e.Score > score {
			rank++
		}
	}
	return rank, true
}

// Roster returns the students list.
func (s *ScoreboardService) Roster() []domain.RosterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boards.Roster()
}

// ClassStats aggregates roster scores per class for the teacher dashboard.
func (s *ScoreboardService) ClassStats() []domain.ClassStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	byClass := make(map[string]*domain.ClassStats)
	for _, e := range s.boards.Roster() {
		class := e.Class
		if class == "" {
			class = "unassigned"
		}
		stats, ok := byClass[class]
		if !ok {
			stats = &domain.ClassStats{Class: class}
			byClass[class] = stats
		}
		stats.Students++
		stats.Average += float64(e.Score)
		if e.Score > stats.Top {
			stats.Top = e.Score
		}
	}

	out := make([]domain.ClassStats, 0, len(byClass))
	for _, stats := range byClass {
		stats.Average /= float64(stats.Students)
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

// Subscribe returns a channel fed with leaderboard snapshots on every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ScoreboardService) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked(s.boards.Leaderboard())
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *ScoreboardService) broadcastLocked(entries []domain.LeaderboardEntry) domain.Leaderboard {
	lb := s.snapshotLocked(entries)
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// drop the stale update so a slow reader never blocks the board
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (s *ScoreboardService) snapshotLocked(entries []domain.LeaderboardEntry) domain.Leaderboard {
	out := make([]domain.LeaderboardEntry, len(entries))
	copy(out, entries)
	return domain.Leaderboard{Entries: out, UpdatedAt: s.now()}
}

func (s *ScoreboardService) publish(ctx context.Context, entries []domain.LeaderboardEntry) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Publish(ctx, entries); err != nil {
		log.Printf("leaderboard mirror publish failed, local list is authoritative: %v", err)
	}
}

func (s *ScoreboardService) resolve(name string) string {
	if name == "" {
		return s.identity.CurrentUser().Name
	}
	return name
}
