package memory

import "gurukulx/internal/domain"

const keyUser = "user"

// IdentityStore resolves the active user from KV-backed session state.
type IdentityStore struct {
	kv *KV
}

func NewIdentityStore(kv *KV) *IdentityStore {
	return &IdentityStore{kv: kv}
}

// CurrentUser returns the stored identity, or Guest when none exists.
func (s *IdentityStore) CurrentUser() domain.User {
	user := domain.GuestUser()
	s.kv.GetJSON(keyUser, &user)
	if user.Name == "" {
		user = domain.GuestUser()
	}
	return user
}

// SetUser merges the non-empty fields of patch into the stored identity and
// persists the result.
func (s *IdentityStore) SetUser(patch domain.User) domain.User {
	user := s.CurrentUser()
	if patch.ID != "" {
		user.ID = patch.ID
	}
	if patch.Name != "" {
		user.Name = patch.Name
	}
	if patch.Role != "" {
		user.Role = patch.Role
	}
	if patch.Class != "" {
		user.Class = patch.Class
	}
	s.kv.SetJSON(keyUser, user)
	return user
}
