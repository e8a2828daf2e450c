package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"stocktake/m/domain"
	"stocktake/m/internal/database"
)

// NewUser carries a plaintext password; it is hashed before it reaches the database.
type NewUser struct {
	Username   string
	Password   string
	Department string
	IsAdmin    bool
}

type Users struct {
	db   *sqlx.DB
	now  Clock
	cost int
}

func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db, now: utcNow, cost: bcrypt.DefaultCost}
}

// Create stores a user with a bcrypt hash of the password.
func (s *Users) Create(ctx context.Context, in NewUser) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := domain.User{
		Username:   strings.TrimSpace(in.Username),
		Password:   string(hashed),
		Department: in.Department,
		IsAdmin:    in.IsAdmin,
		CreatedAt:  s.now(),
	}
	user.ID, err = insertID(ctx, s.db,
		`INSERT INTO users (username, password, department, is_admin, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Password, user.Department, user.IsAdmin, user.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", user.Username, ErrDuplicate)
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &user, nil
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(
		`SELECT id, username, password, department, is_admin, created_at FROM users WHERE username = ?`),
		strings.TrimSpace(username))
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Authenticate returns the user whose username and password match. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Users) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
