package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gurukulx/internal/domain"
)

// AccountRepository stores credential records, keyed by user name.
type AccountRepository interface {
	GetAccount(ctx context.Context, name string) (domain.Account, error)
	SaveAccount(ctx context.Context, account domain.Account) error
}

// PasswordHasher abstracts bcrypt for tests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer mints and validates access/refresh token pairs.
type TokenIssuer interface {
	Generate(subject string) (access, refresh string, err error)
	ValidateRefreshToken(token string) (string, error)
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService handles registration, login, and token refresh. Login also
// resolves the session identity and hydrates the profile ledger from the
// remote copy (remote wins on first load, local wins thereafter).
type AuthService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	identity IdentityRepository
	ledger   *ProfileService
	now      func() time.Time
}

func NewAuthService(accounts AccountRepository, hasher PasswordHasher, tokens TokenIssuer, identity IdentityRepository, ledger *ProfileService) *AuthService {
	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		identity: identity,
		ledger:   ledger,
		now:      time.Now,
	}
}

// Register creates an account. Names are the identity key across the ledger
// and scoreboards, so a taken name is rejected outright.
func (s *AuthService) Register(ctx context.Context, name, password string, role domain.Role, class string) (domain.User, error) {
	if _, err := s.accounts.GetAccount(ctx, name); err == nil {
		return domain.User{}, domain.ErrAccountExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}
	if role != domain.RoleTeacher {
		role = domain.RoleStudent
	}
	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Role:         role,
		Class:        class,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		return domain.User{}, err
	}
	return accountUser(account), nil
}

// Login verifies credentials, issues tokens, sets the session identity, and
// hydrates the user's profile.
func (s *AuthService) Login(ctx context.Context, name, password string) (domain.User, TokenPair, error) {
	account, err := s.accounts.GetAccount(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.User{}, TokenPair{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, TokenPair{}, err
	}
	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return domain.User{}, TokenPair{}, domain.ErrInvalidCredentials
	}

	access, refresh, err := s.tokens.Generate(account.Name)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	user := s.identity.SetUser(accountUser(account))
	s.ledger.Hydrate(ctx, user.Name)
	s.ledger.MaintainStreak(user.Name)

	return user, TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (TokenPair, error) {
	name, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, domain.ErrInvalidCredentials
	}
	access, refresh, err := s.tokens.Generate(name)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// UpdateClass patches the stored class for name's account. The session
// identity is only touched when it belongs to the same user, so one user's
// patch can never leak into another's session state.
func (s *AuthService) UpdateClass(ctx context.Context, name, class string) (domain.User, error) {
	account, err := s.accounts.GetAccount(ctx, name)
	if err != nil {
		return domain.User{}, err
	}
	account.Class = class
	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		return domain.User{}, err
	}
	if s.identity.CurrentUser().Name == name {
		s.identity.SetUser(domain.User{Class: class})
	}
	return accountUser(account), nil
}

// Lookup resolves a user from a stored account, for the auth middleware.
func (s *AuthService) Lookup(ctx context.Context, name string) (domain.User, error) {
	account, err := s.accounts.GetAccount(ctx, name)
	if err != nil {
		return domain.User{}, err
	}
	return accountUser(account), nil
}

func accountUser(account domain.Account) domain.User {
	return domain.User{
		ID:    account.ID,
		Name:  account.Name,
		Role:  account.Role,
		Class: account.Class,
	}
}
