package memory

import "gurukulx/internal/domain"

const (
	keyLeaderboard = "leaderboard"
	keyStudents    = "students"
	keyClasses     = "classes"
)

// ScoreboardStore persists the leaderboard and roster collections. Ordering
// is owned by the projection layer; this store round-trips slices verbatim.
type ScoreboardStore struct {
	kv *KV
}

func NewScoreboardStore(kv *KV) *ScoreboardStore {
	return &ScoreboardStore{kv: kv}
}

func (s *ScoreboardStore) Leaderboard() []domain.LeaderboardEntry {
	var entries []domain.LeaderboardEntry
	s.kv.GetJSON(keyLeaderboard, &entries)
	return entries
}

func (s *ScoreboardStore) SaveLeaderboard(entries []domain.LeaderboardEntry) {
	s.kv.SetJSON(keyLeaderboard, entries)
}

func (s *ScoreboardStore) Roster() []domain.RosterEntry {
	var entries []domain.RosterEntry
	s.kv.GetJSON(keyStudents, &entries)
	return entries
}

func (s *ScoreboardStore) SaveRoster(entries []domain.RosterEntry) {
	s.kv.SetJSON(keyStudents, entries)
}

func (s *ScoreboardStore) Classes() []string {
	var classes []string
	s.kv.GetJSON(keyClasses, &classes)
	return classes
}

// Seed*IfAbsent follow the per-key bootstrap rule: each collection is seeded
// independently and only when its own key is missing.

func (s *ScoreboardStore) SeedLeaderboardIfAbsent(entries []domain.LeaderboardEntry) {
	if !s.kv.Has(keyLeaderboard) {
		s.SaveLeaderboard(entries)
	}
}

func (s *ScoreboardStore) SeedRosterIfAbsent(entries []domain.RosterEntry) {
	if !s.kv.Has(keyStudents) {
		s.SaveRoster(entries)
	}
}

func (s *ScoreboardStore) SeedClassesIfAbsent(classes []string) {
	if !s.kv.Has(keyClasses) {
		s.kv.SetJSON(keyClasses, classes)
	}
}
