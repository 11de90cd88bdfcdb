package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusLive, MatchStatusCompleted:
		return true
	}
	return false
}

// MatchSide — краткий профиль участника матча, подгружается join'ом.
type MatchSide struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar,omitempty"`
}

// Match — матч в сетке турнира. Участники опциональны: в поздних раундах
// они ещё не определены. Если winner_id задан, он обязан совпадать с одним
// из двух участников.
type Match struct {
	ID                uuid.UUID   `json:"id"`
	TournamentID      uuid.UUID   `json:"tournament_id"`
	Round             int         `json:"round"`
	MatchNumber       int         `json:"match_number"`
	Participant1ID    *uuid.UUID  `json:"participant1_id,omitempty"`
	Participant2ID    *uuid.UUID  `json:"participant2_id,omitempty"`
	Participant1Score int         `json:"participant1_score"`
	Participant2Score int         `json:"participant2_score"`
	WinnerID          *uuid.UUID  `json:"winner_id,omitempty"`
	Status            MatchStatus `json:"status"`
	ScheduledAt       *time.Time  `json:"scheduled_at,omitempty"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`

	Participant1 *MatchSide `json:"participant1,omitempty"`
	Participant2 *MatchSide `json:"participant2,omitempty"`
	Winner       *MatchSide `json:"winner,omitempty"`
}

// HasParticipant reports whether id is one of the two sides of the match.
func (m *Match) HasParticipant(id uuid.UUID) bool {
	if m.Participant1ID != nil && *m.Participant1ID == id {
		return true
	}
	if m.Participant2ID != nil && *m.Participant2ID == id {
		return true
	}
	return false
}
