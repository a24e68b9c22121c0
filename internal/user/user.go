package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Password  string    `json:"-"`
	Role      Role      `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch carries the fields an admin may change. Nil fields are left as is.
type Patch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *Role   `json:"user_type"`
}

func (p Patch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Phone == nil && p.Role == nil
}

func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return ErrMissingFields
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) == "" {
		return ErrMissingFields
	}
	if p.Role != nil && !p.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
