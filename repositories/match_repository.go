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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchWinnerInvalid = errors.New("match winner must be one of the match participants")
)

type MatchRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, m *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Чтение матча вместе с профилями обеих сторон и победителя (LEFT JOIN,
// участники в поздних раундах могут быть ещё не определены).
const matchSelectQuery = `
	SELECT
		m.id, m.tournament_id, m.round, m.match_number,
		m.participant1_id, m.participant2_id,
		m.participant1_score, m.participant2_score,
		m.winner_id, m.status, m.scheduled_at, m.completed_at,
		u1.id, u1.username, u1.avatar,
		u2.id, u2.username, u2.avatar,
		uw.id, uw.username
	FROM matches m
	LEFT JOIN users u1 ON u1.id = m.participant1_id
	LEFT JOIN users u2 ON u2.id = m.participant2_id
	LEFT JOIN users uw ON uw.id = m.winner_id`

func scanMatch(scanner interface{ Scan(dest ...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var (
		p1ID, p2ID, wID             uuid.NullUUID
		p1Name, p2Name, wName       sql.NullString
		p1Avatar, p2Avatar          sql.NullString
	)

	err := scanner.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.MatchNumber,
		&m.Participant1ID, &m.Participant2ID,
		&m.Participant1Score, &m.Participant2Score,
		&m.WinnerID, &m.Status, &m.ScheduledAt, &m.CompletedAt,
		&p1ID, &p1Name, &p1Avatar,
		&p2ID, &p2Name, &p2Avatar,
		&wID, &wName,
	)
	if err != nil {
		return nil, err
	}

	if p1ID.Valid {
		m.Participant1 = &models.MatchSide{ID: p1ID.UUID, Username: p1Name.String}
		if p1Avatar.Valid {
			m.Participant1.Avatar = &p1Avatar.String
		}
	}
	if p2ID.Valid {
		m.Participant2 = &models.MatchSide{ID: p2ID.UUID, Username: p2Name.String}
		if p2Avatar.Valid {
			m.Participant2.Avatar = &p2Avatar.String
		}
	}
	if wID.Valid {
		m.Winner = &models.MatchSide{ID: wID.UUID, Username: wName.String}
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	executor := r.getExecutor(nil)
	query := matchSelectQuery + ` WHERE m.id = $1`

	m, err := scanMatch(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	executor := r.getExecutor(nil)
	query := matchSelectQuery + `
	WHERE m.tournament_id = $1
	ORDER BY m.round ASC, m.match_number ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches by tournament: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			participant1_score = $1,
			participant2_score = $2,
			winner_id = $3,
			status = $4,
			completed_at = $5
		WHERE id = $6`

	result, err := executor.ExecContext(ctx, query,
		m.Participant1Score, m.Participant2Score, m.WinnerID, m.Status, m.CompletedAt, m.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			if pqErr.Constraint == "matches_winner_is_participant_chk" {
				return ErrMatchWinnerInvalid
			}
		}
		return fmt.Errorf("failed to update match: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
