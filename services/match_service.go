package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/repositories"
)

// UpdateMatchInput — частичное обновление результата матча организатором.
type UpdateMatchInput struct {
	Participant1Score *int                `json:"participant1_score,omitempty"`
	Participant2Score *int                `json:"participant2_score,omitempty"`
	WinnerID          *uuid.UUID          `json:"winner_id,omitempty"`
	Status            *models.MatchStatus `json:"status,omitempty"`
}

type MatchService interface {
	ListMatchesByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error)
	UpdateMatch(ctx context.Context, matchID, currentUserID uuid.UUID, input UpdateMatchInput) (*models.Match, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	hub            Broadcaster
	now            func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	hub Broadcaster,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		hub:            hub,
		now:            time.Now,
	}
}

func (s *matchService) ListMatchesByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	return matches, nil
}

// UpdateMatch изменяет счёт/победителя/статус. Победитель обязан быть одной
// из сторон матча; переход в completed проставляет completed_at.
func (s *matchService) UpdateMatch(ctx context.Context, matchID, currentUserID uuid.UUID, input UpdateMatchInput) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	t, err := s.tournamentRepo.GetByID(ctx, m.TournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if t.OrganizerID != currentUserID {
		return nil, ErrNotOrganizer
	}

	if input.Participant1Score != nil {
		if *input.Participant1Score < 0 {
			return nil, ErrMatchNegativeScore
		}
		m.Participant1Score = *input.Participant1Score
	}
	if input.Participant2Score != nil {
		if *input.Participant2Score < 0 {
			return nil, ErrMatchNegativeScore
		}
		m.Participant2Score = *input.Participant2Score
	}
	if input.WinnerID != nil {
		if !m.HasParticipant(*input.WinnerID) {
			return nil, ErrMatchWinnerNotInMatch
		}
		m.WinnerID = input.WinnerID
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrMatchInvalidStatus
		}
		m.Status = *input.Status
		if m.Status == models.MatchStatusCompleted && m.CompletedAt == nil {
			completedAt := s.now()
			m.CompletedAt = &completedAt
		}
	}

	if err := s.matchRepo.Update(ctx, nil, m); err != nil {
		if errors.Is(err, repositories.ErrMatchWinnerInvalid) {
			return nil, ErrMatchWinnerNotInMatch
		}
		return nil, err
	}

	updated, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		room := TournamentRoom(m.TournamentID)
		s.hub.BroadcastToRoom(room, Event{Type: EventMatchUpdated, Payload: updated, RoomID: room})
	}
	return updated, nil
}
