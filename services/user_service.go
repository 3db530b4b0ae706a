package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/repositories"
	"github.com/Dosada05/wishly/storage"
)

type UserService interface {
	GetMe(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID string, file io.Reader, contentType string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.UserSummary, error)
}

type UpdateProfileInput struct {
	DisplayName string `json:"display_name"`
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewUserService принимает nil uploader, если хранилище не настроено.
func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader, logger *slog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *userService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get user")
	}
	populateUserPhotoURL(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, ErrDisplayNameRequired
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get user")
	}
	user.DisplayName = name

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "failed to update user")
	}
	populateUserPhotoURL(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID string, file io.Reader, contentType string) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get user")
	}

	key, err := storage.NewObjectKey(storage.AvatarPrefix, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, ErrInvalidFileType
		}
		return nil, err
	}

	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdatePhotoKey(ctx, userID, &key); err != nil {
		// Загруженный объект больше не нужен.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, mapRepoError(err, "failed to save avatar key")
	}

	if old := derefString(user.PhotoKey); old != "" && old != key {
		if err := s.uploader.Delete(ctx, old); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar", slog.String("key", old), slog.Any("error", err))
		}
	}

	user.PhotoKey = &key
	populateUserPhotoURL(user, s.uploader)
	return user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*models.UserSummary, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, mapRepoError(err, "failed to find user")
	}
	return &models.UserSummary{ID: user.ID, DisplayName: user.DisplayName, Email: user.Email}, nil
}
