package dto

import "time"

type UserResponseDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

// SessionResponseDTO is returned after a successful Google sign-in. The same
// token is also set as the session cookie.
type SessionResponseDTO struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      UserResponseDTO `json:"user"`
}
