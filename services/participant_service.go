package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/repositories"
)

// ParticipantService инкапсулирует машину состояний участия:
// {не участник} -> join -> {участник} -> leave -> {не участник}.
type ParticipantService interface {
	JoinTournament(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Participant, error)
	LeaveTournament(ctx context.Context, tournamentID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, tournamentID, organizerID, userID uuid.UUID) error
	ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error)
}

type participantService struct {
	db              *sql.DB
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	hub             Broadcaster
	now             func() time.Time
}

func NewParticipantService(
	db *sql.DB,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	hub Broadcaster,
) ParticipantService {
	return &participantService{
		db:              db,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		hub:             hub,
		now:             time.Now,
	}
}

// JoinTournament регистрирует пользователя. Предварительные проверки дают
// конкретную причину отказа; авторитетная защита от гонки — уникальный
// constraint на (tournament_id, user_id) и guarded-инкремент счётчика,
// оба выполняются в одной транзакции.
func (s *participantService) JoinTournament(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Participant, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	if t.Status != models.StatusUpcoming {
		return nil, ErrRegistrationClosed
	}
	if s.now().After(t.RegistrationDeadline) {
		return nil, ErrRegistrationClosed
	}
	if t.Full() {
		return nil, ErrTournamentFull
	}
	if t.OrganizerID == userID {
		return nil, ErrOrganizerCannotJoin
	}

	existing, err := s.participantRepo.FindByUserAndTournament(ctx, userID, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		return nil, ErrRegistrationConflict
	}

	p := &models.Participant{TournamentID: tournamentID, UserID: userID}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.participantRepo.Create(ctx, tx, p); err != nil {
			return err
		}
		return s.tournamentRepo.IncrementParticipants(ctx, tx, tournamentID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrTournamentCapacity):
			return nil, ErrTournamentFull
		}
		return nil, fmt.Errorf("failed to join tournament: %w", err)
	}

	s.broadcast(tournamentID, EventParticipantJoined, p)
	return p, nil
}

// LeaveTournament снимает регистрацию. Допустимо только пока турнир upcoming.
func (s *participantService) LeaveTournament(ctx context.Context, tournamentID, userID uuid.UUID) error {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if t.Status != models.StatusUpcoming {
		return ErrLeaveClosed
	}
	return s.deleteRegistration(ctx, tournamentID, userID)
}

// RemoveParticipant снимает чужую регистрацию по решению организатора.
// Действует та же машина состояний, что и для самостоятельного выхода.
func (s *participantService) RemoveParticipant(ctx context.Context, tournamentID, organizerID, userID uuid.UUID) error {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if t.OrganizerID != organizerID {
		return ErrNotOrganizer
	}
	if t.Status != models.StatusUpcoming {
		return ErrLeaveClosed
	}
	return s.deleteRegistration(ctx, tournamentID, userID)
}

func (s *participantService) deleteRegistration(ctx context.Context, tournamentID, userID uuid.UUID) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.participantRepo.Delete(ctx, tx, userID, tournamentID); err != nil {
			return err
		}
		return s.tournamentRepo.DecrementParticipants(ctx, tx, tournamentID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrNotAParticipant
		}
		return fmt.Errorf("failed to remove registration: %w", err)
	}

	s.broadcast(tournamentID, EventParticipantLeft, map[string]string{
		"tournament_id": tournamentID.String(),
		"user_id":       userID.String(),
	})
	return nil
}

func (s *participantService) ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (s *participantService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return fn(nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *participantService) broadcast(tournamentID uuid.UUID, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	room := TournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, Event{Type: eventType, Payload: payload, RoomID: room})
}
