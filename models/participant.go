package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant — запись о регистрации пользователя в турнире.
// Пара (tournament_id, user_id) уникальна: участие существует, пока существует строка.
type Participant struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	UserID       uuid.UUID `json:"user_id"`
	JoinedAt     time.Time `json:"joined_at"`

	// Профиль пользователя, подгружается join'ом при чтении.
	Username string  `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}
