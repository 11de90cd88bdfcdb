package handlers

import (
	"net/http"

	"github.com/playgrid/arena/cache"
	"github.com/playgrid/arena/middleware"
	"github.com/playgrid/arena/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
	detailCache        *cache.TournamentCache
}

func NewParticipantHandler(ps services.ParticipantService, detailCache *cache.TournamentCache) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: ps,
		detailCache:        detailCache,
	}
}

// JoinHandler обрабатывает POST /tournaments/{tournamentID}/join.
func (h *ParticipantHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to join tournament")
		return
	}

	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.JoinTournament(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(tournamentID)

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LeaveHandler обрабатывает DELETE /tournaments/{tournamentID}/leave.
func (h *ParticipantHandler) LeaveHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to leave tournament")
		return
	}

	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.LeaveTournament(r.Context(), tournamentID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(tournamentID)

	w.WriteHeader(http.StatusNoContent)
}

// RemoveHandler обрабатывает DELETE /tournaments/{tournamentID}/participants/{userID} —
// исключение участника организатором.
func (h *ParticipantHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to manage participants")
		return
	}

	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getUUIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.RemoveParticipant(r.Context(), tournamentID, currentUserID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(tournamentID)

	w.WriteHeader(http.StatusNoContent)
}

// ListHandler обрабатывает GET /tournaments/{tournamentID}/participants.
func (h *ParticipantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.participantService.ListParticipants(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"participants": participants,
		"count":        len(participants),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
