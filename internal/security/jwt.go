package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

// TokenManager mints and validates HS256 access/refresh token pairs.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// Generate returns an access token and a refresh token for subject.
func (m *TokenManager) Generate(subject string) (string, string, error) {
	access, err := m.sign(subject, "access", accessTTL, m.accessSecret)
	if err != nil {
		return "", "", err
	}
	refresh, err := m.sign(subject, "refresh", refreshTTL, m.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (m *TokenManager) ValidateAccessToken(token string) (string, error) {
	return m.validate(token, m.accessSecret)
}

func (m *TokenManager) ValidateRefreshToken(token string) (string, error) {
	return m.validate(token, m.refreshSecret)
}

func (m *TokenManager) sign(subject, kind string, ttl time.Duration, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"exp":  m.now().Add(ttl).Unix(),
		"type": kind,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *TokenManager) validate(tokenStr string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing subject")
	}
	return sub, nil
}
