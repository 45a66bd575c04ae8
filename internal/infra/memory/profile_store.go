package memory

import "gurukulx/internal/domain"

// Storage keys for the profile map and the flat current-session mirror.
const (
	keyProfiles  = "profiles"
	keyScore     = "score"
	keyXP        = "xp"
	keyLevel     = "level"
	keyProgress  = "progress"
	keyStreak    = "streak"
	keyLastVisit = "lastVisit"
)

const maxCounter = 1_000_000_000

// ProfileStore keeps one profile per user name in a KV-backed map, and mirrors
// the active user's profile into flat scalar keys the way the session state
// does. All persisted fields are owned here; nothing else writes these keys.
type ProfileStore struct {
	kv *KV
}

func NewProfileStore(kv *KV) *ProfileStore {
	return &ProfileStore{kv: kv}
}

// Load returns the profile stored for name, or a zero profile and false.
func (s *ProfileStore) Load(name string) (domain.Profile, bool) {
	profiles := s.profiles()
	if p, ok := profiles[name]; ok {
		return p, true
	}
	return zeroProfile(name), false
}

// Save upserts a profile into the map and refreshes the flat mirror when it
// belongs to the active session's name.
func (s *ProfileStore) Save(p domain.Profile, activeName string) {
	profiles := s.profiles()
	profiles[p.Name] = p
	s.kv.SetJSON(keyProfiles, profiles)
	if p.Name == activeName {
		s.mirror(p)
	}
}

// SeedIfAbsent writes p only when no profile exists for its name. Each flat
// mirror key is likewise seeded per-key, matching first-run detection by
// absence of each key rather than a global flag.
func (s *ProfileStore) SeedIfAbsent(p domain.Profile) {
	profiles := s.profiles()
	if _, ok := profiles[p.Name]; !ok {
		profiles[p.Name] = p
		s.kv.SetJSON(keyProfiles, profiles)
	}
	for key, val := range map[string]int{
		keyScore:    p.Score,
		keyXP:       p.XP,
		keyLevel:    p.Level,
		keyProgress: p.Progress,
		keyStreak:   p.Streak,
	} {
		if !s.kv.Has(key) {
			s.kv.SetNumber(key, val, 0, maxCounter)
		}
	}
}

func (s *ProfileStore) profiles() map[string]domain.Profile {
	profiles := make(map[string]domain.Profile)
	s.kv.GetJSON(keyProfiles, &profiles)
	return profiles
}

func (s *ProfileStore) mirror(p domain.Profile) {
	s.kv.SetNumber(keyScore, p.Score, 0, maxCounter)
	s.kv.SetNumber(keyXP, p.XP, 0, maxCounter)
	s.kv.SetNumber(keyLevel, p.Level, 1, maxCounter)
	s.kv.SetNumber(keyProgress, p.Progress, 0, 100)
	s.kv.SetNumber(keyStreak, p.Streak, 0, maxCounter)
	if p.LastVisit != "" {
		s.kv.SetRaw(keyLastVisit, p.LastVisit)
	}
}

func zeroProfile(name string) domain.Profile {
	return domain.Profile{
		Name:   name,
		Level:  domain.LevelForXP(0),
		Badges: domain.BadgesFor(0, 0),
	}
}
