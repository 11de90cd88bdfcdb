package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Avatar       *string   `json:"avatar,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	PasswordResetToken     *string    `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`
}

// Profile — пользователь вместе с агрегированной статистикой
// (аналог представления profiles_with_stats).
type Profile struct {
	User
	TournamentsJoined  int `json:"tournaments_joined"`
	TournamentsCreated int `json:"tournaments_created"`
	Wins               int `json:"wins"`
	Losses             int `json:"losses"`
}
