package models

import "time"

// User is a registered account. PasswordHash holds a bcrypt hash and is
// never serialized.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         *string   `db:"name" json:"name"`
	PhoneNumber  *string   `db:"phone_number" json:"phone_number"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}
