package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/playgrid/arena/models"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant conflict: user already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	FindByUserAndTournament(ctx context.Context, userID, tournamentID uuid.UUID) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error)
	Delete(ctx context.Context, exec SQLExecutor, userID, tournamentID uuid.UUID) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (id, tournament_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING joined_at`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := executor.QueryRowContext(ctx, query, p.ID, p.TournamentID, p.UserID).Scan(&p.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "participants_tournament_id_user_id_key" {
					return ErrParticipantConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID uuid.UUID) (*models.Participant, error) {
	query := `
		SELECT p.id, p.tournament_id, p.user_id, p.joined_at, u.username, u.avatar
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1 AND p.tournament_id = $2`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, userID, tournamentID).Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.JoinedAt, &p.Username, &p.Avatar,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error) {
	query := `
		SELECT p.id, p.tournament_id, p.user_id, p.joined_at, u.username, u.avatar
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.tournament_id = $1
		ORDER BY p.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.JoinedAt, &p.Username, &p.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, userID, tournamentID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM participants WHERE user_id = $1 AND tournament_id = $2`
	result, err := executor.ExecContext(ctx, query, userID, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
