package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"github.com/playgrid/arena/repositories"
	"github.com/playgrid/arena/storage"
)

// UpdateProfileInput — частичное обновление собственного профиля.
type UpdateProfileInput struct {
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

type UserService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id, currentUserID uuid.UUID, input UpdateProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, id, currentUserID uuid.UUID, contentType string, r io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

// GetProfile возвращает профиль с агрегированной статистикой
// (турниры, победы, поражения).
func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := s.userRepo.GetProfileWithStats(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	profile.PasswordHash = ""
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id, currentUserID uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	if id != currentUserID {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Username != nil {
		if *input.Username == "" {
			return nil, ErrValidationFailed
		}
		user.Username = *input.Username
	}
	if input.Avatar != nil {
		user.Avatar = input.Avatar
	}
	if input.Bio != nil {
		user.Bio = input.Bio
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserUsernameConflict) {
			return nil, ErrUserUsernameConflict
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// UploadAvatar загружает аватар в объектное хранилище и сохраняет публичный URL.
func (s *userService) UploadAvatar(ctx context.Context, id, currentUserID uuid.UUID, contentType string, r io.Reader) (*models.User, error) {
	if id != currentUserID {
		return nil, ErrForbiddenOperation
	}
	if s.uploader == nil {
		return nil, errors.New("file uploads are not configured")
	}

	key := fmt.Sprintf("avatars/%s", id)
	result, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	return s.UpdateProfile(ctx, id, currentUserID, UpdateProfileInput{Avatar: &result.Location})
}
