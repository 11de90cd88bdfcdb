package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upcomingTournament(organizerID uuid.UUID, max int) *models.Tournament {
	return &models.Tournament{
		ID:                   uuid.New(),
		Name:                 "Spring Cup",
		Game:                 "Street Fighter 6",
		OrganizerID:          organizerID,
		Status:               models.StatusUpcoming,
		Format:               models.FormatSingleElimination,
		Platform:             models.PlatformPC,
		Region:               models.RegionEurope,
		MaxParticipants:      max,
		StartDate:            time.Now().Add(48 * time.Hour),
		RegistrationDeadline: time.Now().Add(24 * time.Hour),
	}
}

func newParticipantServiceForTest(tr *fakeTournamentRepo, pr *fakeParticipantRepo, hub *fakeHub) ParticipantService {
	return NewParticipantService(nil, pr, tr, hub)
}

func TestJoinTournamentSuccess(t *testing.T) {
	organizerID := uuid.New()
	tournament := upcomingTournament(organizerID, 8)
	tr := newFakeTournamentRepo(tournament)
	pr := newFakeParticipantRepo()
	hub := &fakeHub{}
	svc := newParticipantServiceForTest(tr, pr, hub)

	userID := uuid.New()
	p, err := svc.JoinTournament(context.Background(), tournament.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, tournament.ID, p.TournamentID)

	updated, err := tr.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentParticipants)
	assert.Contains(t, hub.eventTypes(), EventParticipantJoined)
}

func TestJoinTournamentFull(t *testing.T) {
	tournament := upcomingTournament(uuid.New(), 1)
	tournament.CurrentParticipants = 1
	tr := newFakeTournamentRepo(tournament)
	svc := newParticipantServiceForTest(tr, newFakeParticipantRepo(), &fakeHub{})

	_, err := svc.JoinTournament(context.Background(), tournament.ID, uuid.New())
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestJoinTournamentCapacityRace(t *testing.T) {
	// Предпроверка видит свободное место, но guarded-инкремент проигрывает
	// гонку; сервис транслирует это в ErrTournamentFull.
	tournament := upcomingTournament(uuid.New(), 8)
	tr := newFakeTournamentRepo(tournament)
	tr.incrementErr = repositories.ErrTournamentCapacity
	svc := newParticipantServiceForTest(tr, newFakeParticipantRepo(), &fakeHub{})

	_, err := svc.JoinTournament(context.Background(), tournament.ID, uuid.New())
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestJoinTournamentRegistrationStates(t *testing.T) {
	organizerID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(*models.Tournament)
		userID  uuid.UUID
		wantErr error
	}{
		{
			name:    "live tournament",
			mutate:  func(t *models.Tournament) { t.Status = models.StatusLive },
			userID:  uuid.New(),
			wantErr: ErrRegistrationClosed,
		},
		{
			name:    "cancelled tournament",
			mutate:  func(t *models.Tournament) { t.Status = models.StatusCancelled },
			userID:  uuid.New(),
			wantErr: ErrRegistrationClosed,
		},
		{
			name: "deadline passed",
			mutate: func(t *models.Tournament) {
				t.RegistrationDeadline = time.Now().Add(-time.Hour)
			},
			userID:  uuid.New(),
			wantErr: ErrRegistrationClosed,
		},
		{
			name:    "organizer joining own tournament",
			mutate:  func(t *models.Tournament) {},
			userID:  organizerID,
			wantErr: ErrOrganizerCannotJoin,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tournament := upcomingTournament(organizerID, 8)
			tc.mutate(tournament)
			tr := newFakeTournamentRepo(tournament)
			svc := newParticipantServiceForTest(tr, newFakeParticipantRepo(), &fakeHub{})

			_, err := svc.JoinTournament(context.Background(), tournament.ID, tc.userID)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestJoinTournamentTwice(t *testing.T) {
	tournament := upcomingTournament(uuid.New(), 8)
	tr := newFakeTournamentRepo(tournament)
	pr := newFakeParticipantRepo()
	svc := newParticipantServiceForTest(tr, pr, &fakeHub{})

	userID := uuid.New()
	_, err := svc.JoinTournament(context.Background(), tournament.ID, userID)
	require.NoError(t, err)

	_, err = svc.JoinTournament(context.Background(), tournament.ID, userID)
	assert.ErrorIs(t, err, ErrRegistrationConflict)

	updated, err := tr.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentParticipants)
}

func TestJoinThenLeaveRestoresCount(t *testing.T) {
	tournament := upcomingTournament(uuid.New(), 8)
	tr := newFakeTournamentRepo(tournament)
	pr := newFakeParticipantRepo()
	hub := &fakeHub{}
	svc := newParticipantServiceForTest(tr, pr, hub)

	userID := uuid.New()
	_, err := svc.JoinTournament(context.Background(), tournament.ID, userID)
	require.NoError(t, err)

	require.NoError(t, svc.LeaveTournament(context.Background(), tournament.ID, userID))

	updated, err := tr.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentParticipants)
	assert.Contains(t, hub.eventTypes(), EventParticipantLeft)

	// Регистрация действительно снята.
	participants, err := svc.ListParticipants(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestLeaveTournamentNotParticipant(t *testing.T) {
	tournament := upcomingTournament(uuid.New(), 8)
	tr := newFakeTournamentRepo(tournament)
	svc := newParticipantServiceForTest(tr, newFakeParticipantRepo(), &fakeHub{})

	err := svc.LeaveTournament(context.Background(), tournament.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestLeaveTournamentAfterStart(t *testing.T) {
	tournament := upcomingTournament(uuid.New(), 8)
	tournament.Status = models.StatusLive
	tr := newFakeTournamentRepo(tournament)
	svc := newParticipantServiceForTest(tr, newFakeParticipantRepo(), &fakeHub{})

	err := svc.LeaveTournament(context.Background(), tournament.ID, uuid.New())
	assert.ErrorIs(t, err, ErrLeaveClosed)
}

func TestRemoveParticipantByOrganizer(t *testing.T) {
	organizerID := uuid.New()
	tournament := upcomingTournament(organizerID, 8)
	tr := newFakeTournamentRepo(tournament)
	pr := newFakeParticipantRepo()
	hub := &fakeHub{}
	svc := newParticipantServiceForTest(tr, pr, hub)

	userID := uuid.New()
	_, err := svc.JoinTournament(context.Background(), tournament.ID, userID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveParticipant(context.Background(), tournament.ID, organizerID, userID))

	updated, err := tr.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentParticipants)
	assert.Contains(t, hub.eventTypes(), EventParticipantLeft)

	participants, err := svc.ListParticipants(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestRemoveParticipantRequiresOrganizer(t *testing.T) {
	tournament := upcomingTournament(uuid.New(), 8)
	tr := newFakeTournamentRepo(tournament)
	pr := newFakeParticipantRepo()
	svc := newParticipantServiceForTest(tr, pr, &fakeHub{})

	userID := uuid.New()
	_, err := svc.JoinTournament(context.Background(), tournament.ID, userID)
	require.NoError(t, err)

	err = svc.RemoveParticipant(context.Background(), tournament.ID, uuid.New(), userID)
	assert.ErrorIs(t, err, ErrNotOrganizer)

	// Регистрация не тронута.
	participants, err := svc.ListParticipants(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 1)
}

func TestRemoveParticipantNotRegistered(t *testing.T) {
	organizerID := uuid.New()
	tournament := upcomingTournament(organizerID, 8)
	tr := newFakeTournamentRepo(tournament)
	svc := newParticipantServiceForTest(tr, newFakeParticipantRepo(), &fakeHub{})

	err := svc.RemoveParticipant(context.Background(), tournament.ID, organizerID, uuid.New())
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestRemoveParticipantAfterStart(t *testing.T) {
	organizerID := uuid.New()
	tournament := upcomingTournament(organizerID, 8)
	tournament.Status = models.StatusLive
	tr := newFakeTournamentRepo(tournament)
	svc := newParticipantServiceForTest(tr, newFakeParticipantRepo(), &fakeHub{})

	err := svc.RemoveParticipant(context.Background(), tournament.ID, organizerID, uuid.New())
	assert.ErrorIs(t, err, ErrLeaveClosed)
}

func TestJoinTournamentNotFound(t *testing.T) {
	svc := newParticipantServiceForTest(newFakeTournamentRepo(), newFakeParticipantRepo(), &fakeHub{})

	_, err := svc.JoinTournament(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
