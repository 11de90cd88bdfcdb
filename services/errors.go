package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed         = errors.New("validation failed")
	ErrPasswordTooShort         = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrInvalidResetToken        = errors.New("invalid or expired password reset token")
	ErrRegistrationClosed       = errors.New("tournament registration is closed")
	ErrTournamentFull           = errors.New("tournament is full")
	ErrOrganizerCannotJoin      = errors.New("the organizer cannot join their own tournament")
	ErrNotAParticipant          = errors.New("user is not a participant of this tournament")
	ErrLeaveClosed              = errors.New("cannot leave a tournament that has already started")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserUsernameConflict   = errors.New("username is already in use")
	ErrRegistrationConflict   = errors.New("already registered for this tournament")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrNotOrganizer         = errors.New("only the organizer can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")

	// Ошибки турниров
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTournamentGameRequired            = errors.New("tournament game is required")
	ErrTournamentDatesRequired           = errors.New("tournament start date and registration deadline are required")
	ErrTournamentInvalidDeadline         = errors.New("registration must close before the tournament starts")
	ErrTournamentInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCapacity         = errors.New("tournament max participants must be positive")
	ErrTournamentInvalidFormat           = errors.New("invalid tournament format provided")
	ErrTournamentInvalidPlatform         = errors.New("invalid tournament platform provided")
	ErrTournamentInvalidRegion           = errors.New("invalid tournament region provided")
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")

	// Ошибки матчей
	ErrMatchWinnerNotInMatch = errors.New("winner must be one of the match participants")
	ErrMatchInvalidStatus    = errors.New("invalid match status provided")
	ErrMatchNegativeScore    = errors.New("match scores must not be negative")
)
