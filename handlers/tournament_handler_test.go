package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/playgrid/arena/browse"
	"github.com/playgrid/arena/cache"
	"github.com/playgrid/arena/middleware"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTournamentService struct {
	services.TournamentService

	tournament *models.Tournament
	listOpts   services.ListTournamentsOptions
	listResult []models.Tournament
	getCalls   int
}

func (f *fakeTournamentService) GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	f.getCalls++
	if f.tournament == nil || f.tournament.ID != id {
		return nil, services.ErrTournamentNotFound
	}
	return f.tournament, nil
}

func (f *fakeTournamentService) ListTournaments(ctx context.Context, opts services.ListTournamentsOptions) ([]models.Tournament, error) {
	f.listOpts = opts
	return f.listResult, nil
}

type fakeParticipantService struct {
	services.ParticipantService

	joinErr      error
	participants []*models.Participant
}

func (f *fakeParticipantService) JoinTournament(ctx context.Context, tournamentID, userID uuid.UUID) (*models.Participant, error) {
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return &models.Participant{ID: uuid.New(), TournamentID: tournamentID, UserID: userID}, nil
}

func (f *fakeParticipantService) ListParticipants(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error) {
	return f.participants, nil
}

func newTournamentRouter(ts *fakeTournamentService, ps *fakeParticipantService) *chi.Mux {
	snapshot := struct {
		*fakeTournamentService
		*fakeParticipantService
	}{ts, ps}
	detailCache := cache.NewTournamentCache(snapshot, slog.Default())
	feed := browse.NewFeed(ts, slog.Default())
	th := NewTournamentHandler(ts, detailCache, feed)
	ph := NewParticipantHandler(ps, detailCache)

	router := chi.NewRouter()
	router.Get("/tournaments", th.ListHandler)
	router.Get("/tournaments/feed", th.FeedHandler)
	router.Get("/tournaments/{tournamentID}", th.GetByIDHandler)
	router.Post("/tournaments/{tournamentID}/join", func(w http.ResponseWriter, r *http.Request) {
		ph.JoinHandler(w, r.WithContext(middleware.ContextWithClaims(r.Context(), uuid.New())))
	})
	return router
}

func TestListHandlerParsesFacets(t *testing.T) {
	ts := &fakeTournamentService{}
	router := newTournamentRouter(ts, &fakeParticipantService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/tournaments?search=street&platform=pc&region=all&status=upcoming&limit=5&offset=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "street", ts.listOpts.Filter.Search)
	assert.Equal(t, "pc", ts.listOpts.Filter.Platform)
	assert.Equal(t, models.FilterAll, ts.listOpts.Filter.Region)
	assert.Equal(t, 5, ts.listOpts.Limit)
	assert.Equal(t, 10, ts.listOpts.Offset)
}

func TestListHandlerRejectsBadPagination(t *testing.T) {
	router := newTournamentRouter(&fakeTournamentService{}, &fakeParticipantService{})

	for _, target := range []string{
		"/tournaments?limit=0",
		"/tournaments?limit=9000",
		"/tournaments?offset=-1",
		"/tournaments?limit=abc",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetByIDServesSnapshotFromCache(t *testing.T) {
	id := uuid.New()
	ts := &fakeTournamentService{tournament: &models.Tournament{ID: id, Name: "Spring Cup"}}
	router := newTournamentRouter(ts, &fakeParticipantService{
		participants: []*models.Participant{{ID: uuid.New(), TournamentID: id}},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tournament   models.Tournament     `json:"tournament"`
		Participants []*models.Participant `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Spring Cup", body.Tournament.Name)
	assert.Len(t, body.Participants, 1)

	// Повторный запрос внутри окна свежести не ходит в сервис.
	callsAfterFirst := ts.getCalls
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, callsAfterFirst, ts.getCalls)
}

func TestGetByIDUnknownTournament(t *testing.T) {
	router := newTournamentRouter(&fakeTournamentService{}, &fakeParticipantService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByIDInvalidUUID(t *testing.T) {
	router := newTournamentRouter(&fakeTournamentService{}, &fakeParticipantService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/42", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		joinErr  error
		wantCode int
	}{
		{name: "success", joinErr: nil, wantCode: http.StatusCreated},
		{name: "full tournament", joinErr: services.ErrTournamentFull, wantCode: http.StatusConflict},
		{name: "already registered", joinErr: services.ErrRegistrationConflict, wantCode: http.StatusConflict},
		{name: "registration closed", joinErr: services.ErrRegistrationClosed, wantCode: http.StatusForbidden},
		{name: "organizer", joinErr: services.ErrOrganizerCannotJoin, wantCode: http.StatusForbidden},
		{name: "unknown tournament", joinErr: services.ErrTournamentNotFound, wantCode: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTournamentRouter(&fakeTournamentService{}, &fakeParticipantService{joinErr: tc.joinErr})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
				"/tournaments/"+uuid.NewString()+"/join", nil))
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestFeedHandlerReturnsTournaments(t *testing.T) {
	ts := &fakeTournamentService{listResult: []models.Tournament{{Name: "a"}, {Name: "b"}}}
	router := newTournamentRouter(ts, &fakeParticipantService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tournaments []models.Tournament `json:"tournaments"`
		Count       int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}
