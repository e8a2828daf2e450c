package domain

import "time"

type User struct {
	ID         int64     `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	Password   string    `db:"password" json:"-"`
	Department string    `db:"department" json:"department"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
