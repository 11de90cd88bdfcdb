package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/repositories"
)

// fakeHub записывает рассылки для проверок.
type fakeHub struct {
	mu     sync.Mutex
	events []Event
}

func (h *fakeHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ev, ok := message.(Event); ok {
		h.events = append(h.events, ev)
	}
}

func (h *fakeHub) eventTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]string, 0, len(h.events))
	for _, ev := range h.events {
		types = append(types, ev.Type)
	}
	return types
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[uuid.UUID]*models.Tournament
	lastFilter  repositories.ListTournamentsFilter
	listResult  []models.Tournament
	due         []*models.Tournament

	// incrementErr подменяет результат IncrementParticipants, имитируя
	// срабатывание guarded-инкремента при гонке.
	incrementErr error
}

func newFakeTournamentRepo(seed ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{tournaments: make(map[uuid.UUID]*models.Tournament)}
	for _, t := range seed {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		r.tournaments[t.ID] = t
	}
	return r
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	for _, existing := range r.tournaments {
		if existing.Name == t.Name && existing.OrganizerID == t.OrganizerID {
			return repositories.ErrTournamentNameConflict
		}
	}
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	return r.listResult, nil
}

func (r *fakeTournamentRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.tournaments {
		if t.OrganizerID == organizerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) ListJoinedByUser(ctx context.Context, userID uuid.UUID) ([]models.Tournament, error) {
	return nil, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) IncrementParticipants(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return r.incrementErr
	}
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.CurrentParticipants >= t.MaxParticipants {
		return repositories.ErrTournamentCapacity
	}
	t.CurrentParticipants++
	return nil
}

func (r *fakeTournamentRepo) DecrementParticipants(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.CurrentParticipants > 0 {
		t.CurrentParticipants--
	}
	return nil
}

func (r *fakeTournamentRepo) GetTournamentsForAutoStatusUpdate(ctx context.Context, exec repositories.SQLExecutor, currentTime time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.due, nil
}

type participantKey struct {
	userID       uuid.UUID
	tournamentID uuid.UUID
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[participantKey]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[participantKey]*models.Participant)}
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := participantKey{p.UserID, p.TournamentID}
	if _, ok := r.participants[key]; ok {
		return repositories.ErrParticipantConflict
	}
	p.ID = uuid.New()
	p.JoinedAt = time.Now()
	copied := *p
	r.participants[key] = &copied
	return nil
}

func (r *fakeParticipantRepo) FindByUserAndTournament(ctx context.Context, userID, tournamentID uuid.UUID) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[participantKey{userID, tournamentID}]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Participant
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, userID, tournamentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := participantKey{userID, tournamentID}
	if _, ok := r.participants[key]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.participants, key)
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*models.Match
}

func newFakeMatchRepo(seed ...*models.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{matches: make(map[uuid.UUID]*models.Match)}
	for _, m := range seed {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		r.matches[m.ID] = m
	}
	return r
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	copied := *m
	r.matches[m.ID] = &copied
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo(seed ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range seed {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = uuid.New()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetProfileWithStats(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: *u}, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordResetToken = &token
	u.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}
