package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/playgrid/arena/realtime"
	"github.com/playgrid/arena/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: ограничить origin доменом фронтенда перед запуском в прод.
		return true
	},
}

type WebSocketHandler struct {
	hub               *realtime.Hub
	tournamentService services.TournamentService
}

func NewWebSocketHandler(hub *realtime.Hub, ts services.TournamentService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
	}
}

// ServeWs обрабатывает GET /ws/tournaments/{tournamentID}: подключает клиента
// к комнате турнира для живых обновлений.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Комната создаётся только для существующего турнира.
	if _, err := h.tournamentService.GetTournamentByID(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		slog.Warn("websocket upgrade failed",
			slog.String("tournament_id", tournamentID.String()),
			slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, services.TournamentRoom(tournamentID))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
