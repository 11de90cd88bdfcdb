package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/playgrid/arena/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("email already in use")
	ErrUserUsernameConflict = errors.New("username already in use")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfileWithStats(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, user *models.User) error
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userSelectColumns = `
	id, username, email, avatar, bio, password_hash, created_at, updated_at,
	password_reset_token, password_reset_expires_at`

func scanUser(scanner interface{ Scan(dest ...interface{}) error }, u *models.User) error {
	return scanner.Scan(
		&u.ID, &u.Username, &u.Email, &u.Avatar, &u.Bio, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt,
		&u.PasswordResetToken, &u.PasswordResetExpiresAt,
	)
}

func (r *postgresUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username, email, avatar, bio, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.Username, u.Email, u.Avatar, u.Bio, u.PasswordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)

	return r.handleUserError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userSelectColumns)
	return r.findOne(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userSelectColumns)
	return r.findOne(ctx, query, email)
}

func (r *postgresUserRepository) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE password_reset_token = $1`, userSelectColumns)
	return r.findOne(ctx, query, token)
}

func (r *postgresUserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	u := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, args...), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

// GetProfileWithStats возвращает пользователя с агрегированной статистикой:
// счётчики участий/созданных турниров и победы/поражения по завершённым матчам.
func (r *postgresUserRepository) GetProfileWithStats(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT count(*) FROM participants p WHERE p.user_id = u.id) AS tournaments_joined,
			(SELECT count(*) FROM tournaments t WHERE t.organizer_id = u.id) AS tournaments_created,
			(SELECT count(*) FROM matches m WHERE m.winner_id = u.id AND m.status = 'completed') AS wins,
			(SELECT count(*) FROM matches m
				WHERE m.status = 'completed' AND m.winner_id IS NOT NULL AND m.winner_id <> u.id
				AND (m.participant1_id = u.id OR m.participant2_id = u.id)) AS losses
		FROM users u
		WHERE u.id = $1`,
		`u.id, u.username, u.email, u.avatar, u.bio, u.password_hash, u.created_at, u.updated_at,
		u.password_reset_token, u.password_reset_expires_at`)

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Username, &p.Email, &p.Avatar, &p.Bio, &p.PasswordHash,
		&p.CreatedAt, &p.UpdatedAt,
		&p.PasswordResetToken, &p.PasswordResetExpiresAt,
		&p.TournamentsJoined, &p.TournamentsCreated, &p.Wins, &p.Losses,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile with stats: %w", err)
	}
	return p, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users SET
			username = $1,
			avatar = $2,
			bio = $3,
			password_hash = $4,
			password_reset_token = $5,
			password_reset_expires_at = $6,
			updated_at = now()
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		u.Username, u.Avatar, u.Bio, u.PasswordHash,
		u.PasswordResetToken, u.PasswordResetExpiresAt,
		u.ID,
	)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $1, password_reset_expires_at = $2, updated_at = now()
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, token, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to set password reset token: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrUserEmailConflict
		case "users_username_key":
			return ErrUserUsernameConflict
		}
	}
	return err
}
