package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Users are never physically deleted; deactivation
// clears IsActive and stamps DeletedAt.
type User struct {
	ID           string     `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password"`
	NationalID   string     `db:"national_id"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	PhoneNumber  *string    `db:"phone_number"`
	IsActive     bool       `db:"is_active"`
	IsSuperRoot  bool       `db:"is_super_root"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

// Summary is the redacted view of a user returned to clients. It never carries the password hash.
type Summary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	IsSuperRoot bool   `json:"isSuperRoot,omitempty"`
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	switch {
	case u.ID == "":
		return errors.New("id is required")
	case u.Username == "":
		return errors.New("username is required")
	case u.Email == "":
		return errors.New("email is required")
	case u.NationalID == "":
		return errors.New("national id is required")
	case u.PasswordHash == "":
		return errors.New("password hash is required")
	}
	return nil
}

// Summary returns the redacted client view of u.
func (u *User) Summary() Summary {
	s := Summary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsSuperRoot: u.IsSuperRoot,
	}
	if u.PhoneNumber != nil {
		s.PhoneNumber = *u.PhoneNumber
	}
	return s
}
