package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/repositories"
	"github.com/playgrid/arena/storage"
)

// Broadcaster рассылает событие всем подписчикам комнаты турнира.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// TournamentRoom возвращает идентификатор websocket-комнаты турнира.
func TournamentRoom(id uuid.UUID) string {
	return "tournament:" + id.String()
}

type CreateTournamentInput struct {
	Name                 string                  `json:"name"`
	Game                 string                  `json:"game"`
	Description          string                  `json:"description"`
	Format               models.TournamentFormat `json:"format"`
	Platform             models.GamePlatform     `json:"platform"`
	Region               models.Region           `json:"region"`
	MaxParticipants      int                     `json:"max_participants"`
	PrizePool            *string                 `json:"prize_pool,omitempty"`
	Rules                string                  `json:"rules"`
	Image                *string                 `json:"image,omitempty"`
	StartDate            time.Time               `json:"start_date"`
	EndDate              *time.Time              `json:"end_date,omitempty"`
	RegistrationDeadline time.Time               `json:"registration_deadline"`
}

// UpdateTournamentDetailsInput — частичное обновление: nil-поле не трогается.
type UpdateTournamentDetailsInput struct {
	Name                 *string                  `json:"name,omitempty"`
	Game                 *string                  `json:"game,omitempty"`
	Description          *string                  `json:"description,omitempty"`
	Format               *models.TournamentFormat `json:"format,omitempty"`
	Platform             *models.GamePlatform     `json:"platform,omitempty"`
	Region               *models.Region           `json:"region,omitempty"`
	MaxParticipants      *int                     `json:"max_participants,omitempty"`
	PrizePool            *string                  `json:"prize_pool,omitempty"`
	Rules                *string                  `json:"rules,omitempty"`
	Image                *string                  `json:"image,omitempty"`
	StartDate            *time.Time               `json:"start_date,omitempty"`
	EndDate              *time.Time               `json:"end_date,omitempty"`
	RegistrationDeadline *time.Time               `json:"registration_deadline,omitempty"`
}

// UserTournaments — турниры пользователя для дашборда.
type UserTournaments struct {
	Created []models.Tournament `json:"created"`
	Joined  []models.Tournament `json:"joined"`
}

type ListTournamentsOptions struct {
	Filter models.FilterState
	Limit  int
	Offset int
}

type TournamentService interface {
	CreateTournament(ctx context.Context, organizerID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListTournaments(ctx context.Context, opts ListTournamentsOptions) ([]models.Tournament, error)
	GetUserTournaments(ctx context.Context, userID uuid.UUID) (*UserTournaments, error)
	UpdateTournamentDetails(ctx context.Context, id, currentUserID uuid.UUID, input UpdateTournamentDetailsInput) (*models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id, currentUserID uuid.UUID, status models.TournamentStatus) (*models.Tournament, error)
	UploadTournamentImage(ctx context.Context, id, currentUserID uuid.UUID, contentType string, r io.Reader) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id, currentUserID uuid.UUID) error
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	hub            Broadcaster
	uploader       storage.FileUploader
	logger         *slog.Logger
	now            func() time.Time
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	hub Broadcaster,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		hub:            hub,
		uploader:       uploader,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizerID uuid.UUID, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	t := &models.Tournament{
		Name:                 input.Name,
		Game:                 input.Game,
		Description:          input.Description,
		OrganizerID:          organizerID,
		Status:               models.StatusUpcoming,
		Format:               input.Format,
		Platform:             input.Platform,
		Region:               input.Region,
		MaxParticipants:      input.MaxParticipants,
		CurrentParticipants:  0,
		PrizePool:            input.PrizePool,
		Rules:                input.Rules,
		Image:                input.Image,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		RegistrationDeadline: input.RegistrationDeadline,
	}

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, mapTournamentRepoError(err)
	}

	// Перечитываем, чтобы получить денормализованные поля организатора.
	created, err := s.tournamentRepo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return created, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return t, nil
}

// ListTournaments транслирует фасеты в фильтр репозитория. Активные фасеты
// комбинируются конъюнкцией; сентинел "all" и пустые строки снимают фасет.
func (s *tournamentService) ListTournaments(ctx context.Context, opts ListTournamentsOptions) ([]models.Tournament, error) {
	filter := repositories.ListTournamentsFilter{
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}

	f := opts.Filter
	if f.Game != "" {
		filter.Game = &f.Game
	}
	if platform, ok := f.PlatformFacet(); ok {
		if !platform.Valid() {
			return nil, ErrTournamentInvalidPlatform
		}
		filter.Platform = &platform
	}
	if region, ok := f.RegionFacet(); ok {
		if !region.Valid() {
			return nil, ErrTournamentInvalidRegion
		}
		filter.Region = &region
	}
	if status, ok := f.StatusFacet(); ok {
		if !status.Valid() {
			return nil, ErrTournamentInvalidStatus
		}
		filter.Status = &status
	}
	if f.Search != "" {
		filter.Search = &f.Search
	}

	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) GetUserTournaments(ctx context.Context, userID uuid.UUID) (*UserTournaments, error) {
	created, err := s.tournamentRepo.ListByOrganizer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created tournaments: %w", err)
	}
	joined, err := s.tournamentRepo.ListJoinedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list joined tournaments: %w", err)
	}
	return &UserTournaments{Created: created, Joined: joined}, nil
}

func (s *tournamentService) UpdateTournamentDetails(ctx context.Context, id, currentUserID uuid.UUID, input UpdateTournamentDetailsInput) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if t.OrganizerID != currentUserID {
		return nil, ErrNotOrganizer
	}

	applyTournamentUpdates(t, input)

	if err := validateTournamentInput(CreateTournamentInput{
		Name:                 t.Name,
		Game:                 t.Game,
		Format:               t.Format,
		Platform:             t.Platform,
		Region:               t.Region,
		MaxParticipants:      t.MaxParticipants,
		StartDate:            t.StartDate,
		EndDate:              t.EndDate,
		RegistrationDeadline: t.RegistrationDeadline,
	}); err != nil {
		return nil, err
	}

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		return nil, mapTournamentRepoError(err)
	}

	updated, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	s.broadcast(TournamentRoom(id), EventTournamentUpdated, updated)
	return updated, nil
}

// UploadTournamentImage загружает обложку турнира в объектное хранилище
// и сохраняет публичный URL. Доступно только организатору.
func (s *tournamentService) UploadTournamentImage(ctx context.Context, id, currentUserID uuid.UUID, contentType string, r io.Reader) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if t.OrganizerID != currentUserID {
		return nil, ErrNotOrganizer
	}
	if s.uploader == nil {
		return nil, errors.New("file uploads are not configured")
	}

	key := fmt.Sprintf("tournaments/%s", id)
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament image: %w", err)
	}

	return s.UpdateTournamentDetails(ctx, id, currentUserID, UpdateTournamentDetailsInput{Image: &result.Location})
}

func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id, currentUserID uuid.UUID, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.Valid() {
		return nil, ErrTournamentInvalidStatus
	}

	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if t.OrganizerID != currentUserID {
		return nil, ErrNotOrganizer
	}
	if !validStatusTransition(t.Status, status) {
		return nil, ErrTournamentInvalidStatusTransition
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, mapTournamentRepoError(err)
	}

	updated, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	s.broadcast(TournamentRoom(id), EventTournamentUpdated, updated)
	return updated, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id, currentUserID uuid.UUID) error {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if t.OrganizerID != currentUserID {
		return ErrNotOrganizer
	}

	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return mapTournamentRepoError(err)
	}
	s.broadcast(TournamentRoom(id), EventTournamentDeleted, map[string]string{"id": id.String()})
	return nil
}

// AutoUpdateTournamentStatusesByDates переводит турниры по датам:
// upcoming -> live после start_date, live -> completed после end_date.
// Отмена всегда остаётся ручной операцией организатора.
func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	now := s.now()
	due, err := s.tournamentRepo.GetTournamentsForAutoStatusUpdate(ctx, nil, now)
	if err != nil {
		return fmt.Errorf("failed to find tournaments due for status update: %w", err)
	}

	for _, t := range due {
		var next models.TournamentStatus
		switch {
		case t.Status == models.StatusUpcoming && !t.StartDate.After(now):
			next = models.StatusLive
		case t.Status == models.StatusLive && t.EndDate != nil && !t.EndDate.After(now):
			next = models.StatusCompleted
		default:
			continue
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, next); err != nil {
			s.logger.Error("scheduler: failed to update tournament status",
				slog.String("tournament_id", t.ID.String()),
				slog.String("next_status", string(next)),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("scheduler: tournament status updated",
			slog.String("tournament_id", t.ID.String()),
			slog.String("from", string(t.Status)),
			slog.String("to", string(next)))

		t.Status = next
		s.broadcast(TournamentRoom(t.ID), EventTournamentUpdated, t)
	}
	return nil
}

func (s *tournamentService) broadcast(room, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(room, Event{Type: eventType, Payload: payload, RoomID: room})
}

func applyTournamentUpdates(t *models.Tournament, input UpdateTournamentDetailsInput) {
	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Game != nil {
		t.Game = *input.Game
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Format != nil {
		t.Format = *input.Format
	}
	if input.Platform != nil {
		t.Platform = *input.Platform
	}
	if input.Region != nil {
		t.Region = *input.Region
	}
	if input.MaxParticipants != nil {
		t.MaxParticipants = *input.MaxParticipants
	}
	if input.PrizePool != nil {
		t.PrizePool = input.PrizePool
	}
	if input.Rules != nil {
		t.Rules = *input.Rules
	}
	if input.Image != nil {
		t.Image = input.Image
	}
	if input.StartDate != nil {
		t.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		t.EndDate = input.EndDate
	}
	if input.RegistrationDeadline != nil {
		t.RegistrationDeadline = *input.RegistrationDeadline
	}
}

func validateTournamentInput(input CreateTournamentInput) error {
	if input.Name == "" {
		return ErrTournamentNameRequired
	}
	if input.Game == "" {
		return ErrTournamentGameRequired
	}
	if !input.Format.Valid() {
		return ErrTournamentInvalidFormat
	}
	if !input.Platform.Valid() {
		return ErrTournamentInvalidPlatform
	}
	if !input.Region.Valid() {
		return ErrTournamentInvalidRegion
	}
	if input.MaxParticipants <= 0 {
		return ErrTournamentInvalidCapacity
	}
	if input.StartDate.IsZero() || input.RegistrationDeadline.IsZero() {
		return ErrTournamentDatesRequired
	}
	if !input.RegistrationDeadline.Before(input.StartDate) {
		return ErrTournamentInvalidDeadline
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return ErrTournamentInvalidDateRange
	}
	return nil
}

// validStatusTransition описывает ручные переходы статуса организатором.
func validStatusTransition(from, to models.TournamentStatus) bool {
	switch from {
	case models.StatusUpcoming:
		return to == models.StatusLive || to == models.StatusCancelled
	case models.StatusLive:
		return to == models.StatusCompleted || to == models.StatusCancelled
	}
	return false
}

func mapTournamentRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentNameConflict):
		return ErrTournamentNameConflict
	default:
		return err
	}
}
