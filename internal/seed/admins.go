package seed

import (
	"context"
	"errors"
	"fmt"

	"stocktake/m/domain"
	"stocktake/m/internal/store"
)

type Admin struct {
	Username   string
	Password   string
	Department string
}

// DefaultAdmins are the department administrator accounts the hospital starts with.
var DefaultAdmins = []Admin{
	{"er_admin", "er_password123", "ER"},
	{"admission_admin", "admission_password123", "ADMISSION"},
	{"martenity_admin", "martenity_password123", "MARTENITY"},
	{"theatre_admin", "theatre_password123", "THEATRE"},
	{"lab_admin", "lab_password123", "LAB"},
	{"radiology_admin", "radiology_password123", "RADIOLOGY"},
	{"dentist_admin", "dentist_password123", "DENTIST"},
	{"super_admin", "super_password123", domain.SuperAdmin},
}

type UserCreator interface {
	Create(ctx context.Context, in store.NewUser) (*domain.User, error)
}

// LoadAdmins creates the given admin accounts, skipping usernames that already exist.
// It returns how many accounts were created.
func LoadAdmins(ctx context.Context, users UserCreator, admins []Admin) (int, error) {
	created := 0
	for _, a := range admins {
		_, err := users.Create(ctx, store.NewUser{
			Username:   a.Username,
			Password:   a.Password,
			Department: a.Department,
			IsAdmin:    true,
		})
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("creating admin %s: %w", a.Username, err)
		}
		created++
	}
	return created, nil
}
