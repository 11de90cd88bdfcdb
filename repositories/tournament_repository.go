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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict for this organizer")
	ErrTournamentInvalidOrg   = errors.New("invalid organizer reference")
	ErrTournamentCapacity     = errors.New("tournament capacity reached")
)

// ListTournamentsFilter — фасеты каталога; nil-поле означает отсутствие ограничения.
// Search матчится регистронезависимо по name ИЛИ game.
type ListTournamentsFilter struct {
	Game     *string
	Platform *models.GamePlatform
	Region   *models.Region
	Status   *models.TournamentStatus
	Search   *string
	Limit    int
	Offset   int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Tournament, error)
	ListJoinedByUser(ctx context.Context, userID uuid.UUID) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementParticipants(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	DecrementParticipants(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	GetTournamentsForAutoStatusUpdate(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Колонки турнира вместе с денормализованным организатором.
const tournamentSelectColumns = `
	t.id, t.name, t.game, t.description, t.organizer_id,
	t.status, t.format, t.platform, t.region,
	t.max_participants, t.current_participants, t.prize_pool, t.rules, t.image,
	t.start_date, t.end_date, t.registration_deadline, t.created_at, t.updated_at,
	u.username, u.avatar`

func scanTournament(scanner interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	return scanner.Scan(
		&t.ID, &t.Name, &t.Game, &t.Description, &t.OrganizerID,
		&t.Status, &t.Format, &t.Platform, &t.Region,
		&t.MaxParticipants, &t.CurrentParticipants, &t.PrizePool, &t.Rules, &t.Image,
		&t.StartDate, &t.EndDate, &t.RegistrationDeadline, &t.CreatedAt, &t.UpdatedAt,
		&t.OrganizerName, &t.OrganizerAvatar,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	executor := r.getExecutor(nil)
	query := `
		INSERT INTO tournaments (
			id, name, game, description, organizer_id, status, format, platform, region,
			max_participants, current_participants, prize_pool, rules, image,
			start_date, end_date, registration_deadline
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := executor.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Game, t.Description, t.OrganizerID, t.Status, t.Format, t.Platform, t.Region,
		t.MaxParticipants, t.CurrentParticipants, t.PrizePool, t.Rules, t.Image,
		t.StartDate, t.EndDate, t.RegistrationDeadline,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	executor := r.getExecutor(nil)
	query := fmt.Sprintf(`
		SELECT %s
		FROM tournaments t
		JOIN users u ON u.id = t.organizer_id
		WHERE t.id = $1`, tournamentSelectColumns)

	t := &models.Tournament{}
	err := scanTournament(executor.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	executor := r.getExecutor(nil)
	query := fmt.Sprintf(`
		SELECT %s
		FROM tournaments t
		JOIN users u ON u.id = t.organizer_id
		WHERE 1=1`, tournamentSelectColumns)

	args := []interface{}{}
	argID := 1

	if filter.Game != nil {
		query += fmt.Sprintf(" AND t.game = $%d", argID)
		args = append(args, *filter.Game)
		argID++
	}
	if filter.Platform != nil {
		query += fmt.Sprintf(" AND t.platform = $%d", argID)
		args = append(args, *filter.Platform)
		argID++
	}
	if filter.Region != nil {
		query += fmt.Sprintf(" AND t.region = $%d", argID)
		args = append(args, *filter.Region)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Search != nil && *filter.Search != "" {
		// Подстрока без учёта регистра по имени или игре.
		query += fmt.Sprintf(" AND (t.name ILIKE $%d OR t.game ILIKE $%d)", argID, argID)
		args = append(args, "%"+escapeLikePattern(*filter.Search)+"%")
		argID++
	}

	query += " ORDER BY t.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	return r.queryTournaments(ctx, executor, query, args...)
}

func (r *postgresTournamentRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Tournament, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tournaments t
		JOIN users u ON u.id = t.organizer_id
		WHERE t.organizer_id = $1
		ORDER BY t.created_at DESC`, tournamentSelectColumns)
	return r.queryTournaments(ctx, r.getExecutor(nil), query, organizerID)
}

func (r *postgresTournamentRepository) ListJoinedByUser(ctx context.Context, userID uuid.UUID) ([]models.Tournament, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tournaments t
		JOIN users u ON u.id = t.organizer_id
		JOIN participants p ON p.tournament_id = t.id
		WHERE p.user_id = $1
		ORDER BY t.created_at DESC`, tournamentSelectColumns)
	return r.queryTournaments(ctx, r.getExecutor(nil), query, userID)
}

func (r *postgresTournamentRepository) queryTournaments(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.Tournament, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	executor := r.getExecutor(nil)
	query := `
		UPDATE tournaments SET
			name = $1,
			game = $2,
			description = $3,
			format = $4,
			platform = $5,
			region = $6,
			max_participants = $7,
			prize_pool = $8,
			rules = $9,
			image = $10,
			start_date = $11,
			end_date = $12,
			registration_deadline = $13,
			updated_at = now()
		WHERE id = $14`

	result, err := executor.ExecContext(ctx, query,
		t.Name, t.Game, t.Description, t.Format, t.Platform, t.Region,
		t.MaxParticipants, t.PrizePool, t.Rules, t.Image,
		t.StartDate, t.EndDate, t.RegistrationDeadline,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1, updated_at = now() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Участники и матчи удаляются каскадом (ON DELETE CASCADE).
	executor := r.getExecutor(nil)
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// IncrementParticipants увеличивает счётчик участников, только если ёмкость
// ещё не исчерпана. Нулевое число затронутых строк означает, что турнир либо
// не существует, либо заполнен — гонка "проверить и вставить" закрывается
// этим условием на стороне БД.
func (r *postgresTournamentRepository) IncrementParticipants(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET current_participants = current_participants + 1, updated_at = now()
		WHERE id = $1 AND current_participants < max_participants`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentCapacity)
}

// DecrementParticipants уменьшает счётчик с нижней границей в ноль.
func (r *postgresTournamentRepository) DecrementParticipants(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET current_participants = GREATEST(current_participants - 1, 0), updated_at = now()
		WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) GetTournamentsForAutoStatusUpdate(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`
		SELECT %s
		FROM tournaments t
		JOIN users u ON u.id = t.organizer_id
		WHERE
			(t.status = $1 AND t.start_date <= $2) OR
			(t.status = $3 AND t.end_date IS NOT NULL AND t.end_date <= $2)`, tournamentSelectColumns)

	rows, err := executor.QueryContext(ctx, query, models.StatusUpcoming, currentTime, models.StatusLive)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for auto status update: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament for auto status update: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration for auto status update: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_organizer_id_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503":
			if pqErr.Constraint == "tournaments_organizer_id_fkey" {
				return ErrTournamentInvalidOrg
			}
		}
	}
	return err
}
