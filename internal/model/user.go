package model

import "time"

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleTester = "tester"
)

// User represents a signed-in identity. Email is unique.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasUnlimitedAccess reports whether the user bypasses word quotas.
func (u *User) HasUnlimitedAccess() bool {
	return u.Role == RoleAdmin || u.Role == RoleTester
}
