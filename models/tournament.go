package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusLive      TournamentStatus = "live"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TournamentFormat описывает тип сетки турнира.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single-elimination"
	FormatDoubleElimination TournamentFormat = "double-elimination"
	FormatRoundRobin        TournamentFormat = "round-robin"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatRoundRobin:
		return true
	}
	return false
}

type GamePlatform string

const (
	PlatformPC            GamePlatform = "pc"
	PlatformPlaystation   GamePlatform = "playstation"
	PlatformXbox          GamePlatform = "xbox"
	PlatformNintendo      GamePlatform = "nintendo"
	PlatformMobile        GamePlatform = "mobile"
	PlatformCrossPlatform GamePlatform = "cross-platform"
)

func (p GamePlatform) Valid() bool {
	switch p {
	case PlatformPC, PlatformPlaystation, PlatformXbox, PlatformNintendo, PlatformMobile, PlatformCrossPlatform:
		return true
	}
	return false
}

type Region string

const (
	RegionNorthAmerica Region = "north-america"
	RegionEurope       Region = "europe"
	RegionAsia         Region = "asia"
	RegionOceania      Region = "oceania"
	RegionSouthAmerica Region = "south-america"
	RegionGlobal       Region = "global"
)

func (r Region) Valid() bool {
	switch r {
	case RegionNorthAmerica, RegionEurope, RegionAsia, RegionOceania, RegionSouthAmerica, RegionGlobal:
		return true
	}
	return false
}

// Tournament представляет турнир.
// Поля organizer_name/organizer_avatar денормализуются из users при чтении.
type Tournament struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	Name                 string           `json:"name" db:"name"`
	Game                 string           `json:"game" db:"game"`
	Description          string           `json:"description" db:"description"`
	OrganizerID          uuid.UUID        `json:"organizer_id" db:"organizer_id"`
	OrganizerName        string           `json:"organizer_name" db:"-"`
	OrganizerAvatar      *string          `json:"organizer_avatar,omitempty" db:"-"`
	Status               TournamentStatus `json:"status" db:"status"`
	Format               TournamentFormat `json:"format" db:"format"`
	Platform             GamePlatform     `json:"platform" db:"platform"`
	Region               Region           `json:"region" db:"region"`
	MaxParticipants      int              `json:"max_participants" db:"max_participants"`
	CurrentParticipants  int              `json:"current_participants" db:"current_participants"`
	PrizePool            *string          `json:"prize_pool,omitempty" db:"prize_pool"`
	Rules                string           `json:"rules" db:"rules"`
	Image                *string          `json:"image,omitempty" db:"image"`
	StartDate            time.Time        `json:"start_date" db:"start_date"`
	EndDate              *time.Time       `json:"end_date,omitempty" db:"end_date"`
	RegistrationDeadline time.Time        `json:"registration_deadline" db:"registration_deadline"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Participants []*Participant `json:"participants,omitempty" db:"-"`
	Matches      []*Match       `json:"matches,omitempty" db:"-"`
}

func (t *Tournament) Full() bool {
	return t.CurrentParticipants >= t.MaxParticipants
}
