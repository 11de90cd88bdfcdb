package services

// Event — типизированное сообщение для websocket-комнаты турнира.
// Формат повторяет сообщения хаба: тип, полезная нагрузка, комната.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

const (
	EventTournamentUpdated = "TOURNAMENT_UPDATED"
	EventTournamentDeleted = "TOURNAMENT_DELETED"
	EventParticipantJoined = "PARTICIPANT_JOINED"
	EventParticipantLeft   = "PARTICIPANT_LEFT"
	EventMatchUpdated      = "MATCH_UPDATED"
)
