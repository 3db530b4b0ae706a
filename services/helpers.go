package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/repositories"
	"github.com/Dosada05/wishly/storage"
)

// EventPublisher рассылает события участникам повода (реализуется realtime.Hub).
type EventPublisher interface {
	PublishOccasionEvent(occasionID, eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) PublishOccasionEvent(string, string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// repoErrors переводит ошибки репозиториев в ошибки сервисного слоя.
var repoErrors = []struct {
	repo, svc error
}{
	{repositories.ErrUserNotFound, ErrUserNotFound},
	{repositories.ErrUserEmailConflict, ErrUserEmailConflict},
	{repositories.ErrOccasionNotFound, ErrOccasionNotFound},
	{repositories.ErrOccasionAlreadyMatched, ErrOccasionAlreadyMatched},
	{repositories.ErrOccasionNotMatched, ErrOccasionNotMatched},
	{repositories.ErrMemberNotFound, ErrMemberNotFound},
	{repositories.ErrMemberConflict, ErrAlreadyMember},
	{repositories.ErrMembershipChanged, ErrMembershipChanged},
	{repositories.ErrInviteNotFound, ErrInviteNotFound},
	{repositories.ErrInvitePendingExists, ErrInviteAlreadyPending},
	{repositories.ErrInviteNotPending, ErrInviteNotPending},
	{repositories.ErrInviteOccasionInvalid, ErrOccasionNotFound},
	{repositories.ErrItemNotFound, ErrItemNotFound},
	{repositories.ErrItemAlreadyPurchased, ErrItemAlreadyPurchased},
	{repositories.ErrItemNotPurchasedByUser, ErrNotPurchaser},
	{repositories.ErrItemInvalidPriority, ErrItemInvalidPriority},
	{repositories.ErrAssignmentNotFound, ErrAssignmentNotFound},
}

func mapRepoError(err error, op string) error {
	if err == nil {
		return nil
	}
	for _, m := range repoErrors {
		if errors.Is(err, m.repo) {
			return m.svc
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func populateUserPhotoURL(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.PhotoKey != nil && *user.PhotoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*user.PhotoKey); url != "" {
			user.PhotoURL = &url
		}
	}
}

// requireMember возвращает повод, если userID в нём состоит.
func requireMember(ctx context.Context, occasionRepo repositories.OccasionRepository, occasionID, userID string) (*models.Occasion, error) {
	occasion, err := occasionRepo.GetByID(ctx, occasionID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get occasion")
	}
	if occasion.CreatedBy == userID {
		return occasion, nil
	}
	isMember, err := occasionRepo.IsMember(ctx, occasionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotOccasionMember
	}
	return occasion, nil
}

func requireCreator(ctx context.Context, occasionRepo repositories.OccasionRepository, occasionID, userID string) (*models.Occasion, error) {
	occasion, err := occasionRepo.GetByID(ctx, occasionID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get occasion")
	}
	if occasion.CreatedBy != userID {
		return nil, ErrCreatorActionForbidden
	}
	return occasion, nil
}
