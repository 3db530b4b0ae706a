package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/realtime"
	"github.com/Dosada05/wishly/repositories"
)

const (
	inviteTokenLength      = 16 // байт, 32 символа в hex
	inviteDuration         = 14 * 24 * time.Hour
	inviteTokenMaxAttempts = 3
)

var ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")

type InviteService interface {
	SendInvite(ctx context.Context, occasionID, inviterID, email string) (*models.OccasionInvite, error)
	ListMyInvites(ctx context.Context, userID string) ([]*models.OccasionInvite, error)
	ListOccasionInvites(ctx context.Context, occasionID, userID string) ([]*models.OccasionInvite, error)
	GetInviteByToken(ctx context.Context, token string) (*models.OccasionInvite, error)
	AcceptInvite(ctx context.Context, inviteID, userID string) (*models.Occasion, error)
	AcceptInviteByToken(ctx context.Context, token, userID string) (*models.Occasion, error)
	DeclineInvite(ctx context.Context, inviteID, userID string) error
	DeleteExpiredInvites(ctx context.Context) (int64, error)
}

type inviteService struct {
	inviteRepo   repositories.InviteRepository
	occasionRepo repositories.OccasionRepository
	userRepo     repositories.UserRepository
	tx           repositories.Transactor
	mailer       InviteMailer
	events       EventPublisher
	publicURL    string
	logger       *slog.Logger
	now          func() time.Time
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	occasionRepo repositories.OccasionRepository,
	userRepo repositories.UserRepository,
	tx repositories.Transactor,
	mailer InviteMailer,
	events EventPublisher,
	publicURL string,
	logger *slog.Logger,
) InviteService {
	return &inviteService{
		inviteRepo:   inviteRepo,
		occasionRepo: occasionRepo,
		userRepo:     userRepo,
		tx:           tx,
		mailer:       mailer,
		events:       publisherOrNop(events),
		publicURL:    publicURL,
		logger:       logger,
		now:          time.Now,
	}
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *inviteService) SendInvite(ctx context.Context, occasionID, inviterID, email string) (*models.OccasionInvite, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	occasion, err := requireMember(ctx, s.occasionRepo, occasionID, inviterID)
	if err != nil {
		return nil, err
	}
	if occasion.Matched {
		return nil, ErrOccasionAlreadyMatched
	}

	members, err := s.occasionRepo.ListMembers(ctx, occasionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	var inviterName string
	for _, m := range members {
		if normalizeEmail(m.Email) == email {
			return nil, ErrAlreadyMember
		}
		if m.UserID == inviterID {
			inviterName = m.Name
		}
	}

	invite := &models.OccasionInvite{
		OccasionID:       occasion.ID,
		OccasionName:     occasion.Name,
		OccasionEmoji:    occasion.Emoji,
		InvitedByUserID:  inviterID,
		InvitedByName:    inviterName,
		InvitedUserEmail: email,
		Status:           models.InviteStatusPending,
	}

	if invitee, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		invite.InvitedUserID = &invitee.ID
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}

	if err := s.createWithUniqueToken(ctx, invite); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/invites/%s", s.publicURL, invite.Token)
	if s.mailer != nil {
		err := s.mailer.SendInviteEmail(email, InviteEmailData{
			OccasionName:  occasion.Name,
			OccasionEmoji: occasion.Emoji,
			InviterName:   inviterName,
			InviteLink:    link,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to send invite email",
				slog.String("invite_id", invite.ID), slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "invite sent",
		slog.String("invite_id", invite.ID), slog.String("occasion_id", occasionID), slog.String("invited_by", inviterID))
	return invite, nil
}

func (s *inviteService) createWithUniqueToken(ctx context.Context, invite *models.OccasionInvite) error {
	for attempt := 0; attempt < inviteTokenMaxAttempts; attempt++ {
		token, err := generateSecureToken(inviteTokenLength)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInviteTokenGeneration, err)
		}
		invite.Token = token
		invite.ExpiresAt = s.now().Add(inviteDuration)

		err = s.inviteRepo.Create(ctx, invite)
		if err == nil {
			return nil
		}
		// Конфликт токена: пробуем снова.
		if !errors.Is(err, repositories.ErrInviteTokenConflict) {
			return mapRepoError(err, "failed to create invite")
		}
		invite.ID = ""
	}
	return fmt.Errorf("%w after %d attempts", ErrInviteTokenGeneration, inviteTokenMaxAttempts)
}

func (s *inviteService) ListMyInvites(ctx context.Context, userID string) ([]*models.OccasionInvite, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get user")
	}
	invites, err := s.inviteRepo.ListPendingByEmail(ctx, normalizeEmail(user.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

func (s *inviteService) ListOccasionInvites(ctx context.Context, occasionID, userID string) ([]*models.OccasionInvite, error) {
	if _, err := requireMember(ctx, s.occasionRepo, occasionID, userID); err != nil {
		return nil, err
	}
	invites, err := s.inviteRepo.ListByOccasion(ctx, occasionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

func (s *inviteService) GetInviteByToken(ctx context.Context, token string) (*models.OccasionInvite, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, mapRepoError(err, "failed to get invite by token")
	}
	if invite.Expired(s.now()) {
		return nil, ErrInviteExpired
	}
	return invite, nil
}

func (s *inviteService) AcceptInvite(ctx context.Context, inviteID, userID string) (*models.Occasion, error) {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get invite")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get user")
	}
	if !isInvitee(invite, user) {
		return nil, ErrNotInvitee
	}
	return s.accept(ctx, invite, user)
}

func (s *inviteService) AcceptInviteByToken(ctx context.Context, token, userID string) (*models.Occasion, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, mapRepoError(err, "failed to get invite by token")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get user")
	}
	// Ссылку можно переслать, поэтому принять её может любой владелец токена.
	return s.accept(ctx, invite, user)
}

func isInvitee(invite *models.OccasionInvite, user *models.User) bool {
	if invite.InvitedUserID != nil && *invite.InvitedUserID == user.ID {
		return true
	}
	return normalizeEmail(invite.InvitedUserEmail) == normalizeEmail(user.Email)
}

func (s *inviteService) accept(ctx context.Context, invite *models.OccasionInvite, user *models.User) (*models.Occasion, error) {
	if invite.Status != models.InviteStatusPending {
		return nil, ErrInviteNotPending
	}
	if invite.Expired(s.now()) {
		return nil, ErrInviteExpired
	}

	member := &models.OccasionMember{
		OccasionID: invite.OccasionID,
		UserID:     user.ID,
		Name:       user.DisplayName,
		Email:      user.Email,
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.inviteRepo.UpdateStatus(ctx, exec, invite.ID, models.InviteStatusAccepted); err != nil {
			return err
		}
		return s.occasionRepo.AddMember(ctx, exec, member)
	})
	if err != nil {
		return nil, mapRepoError(err, "failed to accept invite")
	}

	s.events.PublishOccasionEvent(invite.OccasionID, realtime.EventMemberJoined, member)
	s.logger.InfoContext(ctx, "invite accepted",
		slog.String("invite_id", invite.ID), slog.String("occasion_id", invite.OccasionID), slog.String("user_id", user.ID))

	occasion, err := s.occasionRepo.GetByID(ctx, invite.OccasionID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get occasion")
	}
	return occasion, nil
}

func (s *inviteService) DeclineInvite(ctx context.Context, inviteID, userID string) error {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return mapRepoError(err, "failed to get invite")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return mapRepoError(err, "failed to get user")
	}
	if !isInvitee(invite, user) {
		return ErrNotInvitee
	}
	if err := s.inviteRepo.UpdateStatus(ctx, nil, invite.ID, models.InviteStatusDeclined); err != nil {
		return mapRepoError(err, "failed to decline invite")
	}
	return nil
}

func (s *inviteService) DeleteExpiredInvites(ctx context.Context) (int64, error) {
	n, err := s.inviteRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invites: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired invites deleted", slog.Int64("count", n))
	}
	return n, nil
}
