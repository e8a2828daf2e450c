// Package session issues and reads the signed tokens that carry who is logged in to a
// portal and, for department users, which stocktake table is active.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stocktake/m/domain"
)

type Portal string

const (
	PortalAdmin Portal = "admin"
	PortalUser  Portal = "user"
)

var ErrInvalidToken = errors.New("invalid session token")

// Session is the immutable per-request login state. Handlers receive it through the
// request context and never mutate it; changing state means issuing a new token.
type Session struct {
	Portal     Portal `json:"portal"`
	Username   string `json:"username,omitempty"`
	Department string `json:"department"`
	TableID    int64  `json:"table_id,omitempty"`
	TableName  string `json:"table_name,omitempty"`
}

type claims struct {
	Session
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with an HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs s and returns the token with its expiry.
func (m *Manager) Issue(s Session) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Session: s,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(s.Portal),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns the session it carries. The token must have been
// issued for the given portal.
func (m *Manager) Parse(tokenString string, portal Portal) (Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.Portal != portal {
		return Session{}, ErrInvalidToken
	}
	return c.Session, nil
}

type ctxKey struct{}

func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// IsSuperAdmin reports whether the session may see every department.
func (s Session) IsSuperAdmin() bool {
	return s.Portal == PortalAdmin && s.Department == domain.SuperAdmin
}
