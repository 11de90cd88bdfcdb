package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/playgrid/arena/browse"
	"github.com/playgrid/arena/cache"
	"github.com/playgrid/arena/middleware"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/services"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	prefetchTimeout = 10 * time.Second

	maxImageSize = 10 << 20
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	detailCache       *cache.TournamentCache
	feed              *browse.Feed
}

func NewTournamentHandler(
	ts services.TournamentService,
	detailCache *cache.TournamentCache,
	feed *browse.Feed,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		detailCache:       detailCache,
		feed:              feed,
	}
}

// ListHandler обрабатывает GET /tournaments с фасетами в query-параметрах.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptionsFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tournaments": tournaments,
		"count":       len(tournaments),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FeedHandler обрабатывает GET /tournaments/feed. Лента перезагружается под
// свежим токеном; при конкурентных запросах побеждает последний, при ошибке
// загрузки отдаётся прошлый удачный список с полем error.
func (h *TournamentHandler) FeedHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptionsFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	h.feed.Reload(r.Context(), opts)
	state := h.feed.State()

	response := jsonResponse{
		"tournaments": state.Tournaments,
		"count":       len(state.Tournaments),
	}
	if state.Err != nil {
		response["error"] = state.Err.Error()
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}. Ответ идёт из
// префетч-кэша: свежий снимок отдаётся без обращений к базе, устаревший
// обновляется, а при ошибке обновления отдаётся прошлый снимок.
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prefetchErr := h.detailCache.Prefetch(r.Context(), id)
	snapshot, ok := h.detailCache.GetCached(id)
	if !ok {
		if prefetchErr != nil {
			mapServiceErrorToHTTP(w, r, prefetchErr)
			return
		}
		notFoundResponse(w, r)
		return
	}

	response := jsonResponse{
		"tournament":   snapshot.Tournament,
		"participants": snapshot.Participants,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PrefetchHandler обрабатывает POST /tournaments/{tournamentID}/prefetch.
// Загрузка идёт в фоне; ошибка префетча клиенту не возвращается.
func (h *TournamentHandler) PrefetchHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), prefetchTimeout)
		defer cancel()
		_ = h.detailCache.Prefetch(ctx, id)
	}()

	w.WriteHeader(http.StatusAccepted)
}

// CreateHandler обрабатывает POST /tournaments.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PATCH /tournaments/{tournamentID}.
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateTournamentDetailsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentDetails(r.Context(), id, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(id)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatusHandler обрабатывает PATCH /tournaments/{tournamentID}/status.
func (h *TournamentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.TournamentStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentStatus(r.Context(), id, currentUserID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(id)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /tournaments/{tournamentID}.
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.DeleteTournament(r.Context(), id, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(id)

	w.WriteHeader(http.StatusNoContent)
}

// UploadImageHandler обрабатывает POST /tournaments/{tournamentID}/image с
// телом multipart/form-data (поле "image"). Доступно только организатору.
func (h *TournamentHandler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, errors.New("image file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	tournament, err := h.tournamentService.UploadTournamentImage(r.Context(), id, currentUserID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(id)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyTournamentsHandler обрабатывает GET /me/tournaments — созданные и
// сыгранные турниры текущего пользователя.
func (h *TournamentHandler) MyTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	h.writeUserTournaments(w, r, currentUserID)
}

// UserTournamentsHandler обрабатывает GET /users/{userID}/tournaments.
func (h *TournamentHandler) UserTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getUUIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.writeUserTournaments(w, r, userID)
}

func (h *TournamentHandler) writeUserTournaments(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	tournaments, err := h.tournamentService.GetUserTournaments(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func listOptionsFromQuery(r *http.Request) (services.ListTournamentsOptions, error) {
	query := r.URL.Query()
	opts := services.ListTournamentsOptions{
		Filter: models.FilterState{
			Search:   query.Get("search"),
			Game:     query.Get("game"),
			Platform: query.Get("platform"),
			Region:   query.Get("region"),
			Status:   query.Get("status"),
		},
		Limit: defaultListLimit,
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxListLimit {
			return opts, errors.New("invalid limit query parameter")
		}
		opts.Limit = limit
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return opts, errors.New("invalid offset query parameter")
		}
		opts.Offset = offset
	}

	return opts, nil
}
