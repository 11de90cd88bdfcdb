package handlers

import (
	"net/http"

	"github.com/playgrid/arena/brackets"
	"github.com/playgrid/arena/cache"
	"github.com/playgrid/arena/middleware"
	"github.com/playgrid/arena/services"
)

type MatchHandler struct {
	matchService      services.MatchService
	tournamentService services.TournamentService
	detailCache       *cache.TournamentCache
}

func NewMatchHandler(
	ms services.MatchService,
	ts services.TournamentService,
	detailCache *cache.TournamentCache,
) *MatchHandler {
	return &MatchHandler{
		matchService:      ms,
		tournamentService: ts,
		detailCache:       detailCache,
	}
}

// ListByTournamentHandler обрабатывает GET /tournaments/{tournamentID}/matches.
// Матчи возвращаются сгруппированными под сетку: элиминационные форматы —
// по раундам, круговой — плоским списком.
func (h *MatchHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournamentByID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatchesByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	view := brackets.Group(tournament.Format, matches)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PATCH /matches/{matchID}. Только организатор
// турнира может вносить результат.
func (h *MatchHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), matchID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.detailCache.Invalidate(match.TournamentID)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
