package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/realtime"
	"github.com/Dosada05/wishly/repositories"
)

const dateLayout = "2006-01-02"

type OccasionService interface {
	CreateOccasion(ctx context.Context, userID string, input CreateOccasionInput) (*models.Occasion, error)
	ListMyOccasions(ctx context.Context, userID string) ([]*models.Occasion, error)
	GetOccasionDetails(ctx context.Context, occasionID, userID string) (*OccasionDetails, error)
	UpdateOccasion(ctx context.Context, occasionID, userID string, input UpdateOccasionInput) (*models.Occasion, error)
	DeleteOccasion(ctx context.Context, occasionID, userID string) error
	LeaveOccasion(ctx context.Context, occasionID, userID string) error
	RemoveMember(ctx context.Context, occasionID, actorID, memberID string) error
}

type CreateOccasionInput struct {
	Name      string              `json:"name"`
	Budget    *float64            `json:"budget,omitempty"`
	Date      *string             `json:"date,omitempty"`
	Type      models.OccasionType `json:"type,omitempty"`
	IsPrivate bool                `json:"is_private"`
}

// UpdateOccasionInput: nil fields are left unchanged.
type UpdateOccasionInput struct {
	Name      *string              `json:"name,omitempty"`
	Budget    *float64             `json:"budget,omitempty"`
	Date      *string              `json:"date,omitempty"`
	Type      *models.OccasionType `json:"type,omitempty"`
	IsPrivate *bool                `json:"is_private,omitempty"`
}

type OccasionDetails struct {
	Occasion     *models.Occasion        `json:"occasion"`
	Members      []models.OccasionMember `json:"members"`
	MyAssignment *models.MyAssignment    `json:"my_assignment,omitempty"`
}

type occasionService struct {
	occasionRepo   repositories.OccasionRepository
	userRepo       repositories.UserRepository
	assignmentRepo repositories.AssignmentRepository
	events         EventPublisher
	logger         *slog.Logger
	pickAccent     func(n int) int
}

func NewOccasionService(
	occasionRepo repositories.OccasionRepository,
	userRepo repositories.UserRepository,
	assignmentRepo repositories.AssignmentRepository,
	events EventPublisher,
	logger *slog.Logger,
) OccasionService {
	return &occasionService{
		occasionRepo:   occasionRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		events:         publisherOrNop(events),
		logger:         logger,
		pickAccent:     rand.IntN,
	}
}

func validateOccasionFields(name string, budget *float64, date *string, typ models.OccasionType) error {
	if strings.TrimSpace(name) == "" {
		return ErrOccasionNameRequired
	}
	if budget != nil && *budget < 0 {
		return ErrOccasionInvalidBudget
	}
	if date != nil && *date != "" {
		if _, err := time.Parse(dateLayout, *date); err != nil {
			return ErrOccasionInvalidDate
		}
	}
	if !typ.Valid() {
		return ErrOccasionInvalidType
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func (s *occasionService) CreateOccasion(ctx context.Context, userID string, input CreateOccasionInput) (*models.Occasion, error) {
	if input.Type == "" {
		input.Type = models.OccasionOther
	}
	if err := validateOccasionFields(input.Name, input.Budget, input.Date, input.Type); err != nil {
		return nil, err
	}

	creator, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get creator")
	}

	occasion := &models.Occasion{
		Name:        strings.TrimSpace(input.Name),
		Budget:      input.Budget,
		Date:        emptyToNil(input.Date),
		Type:        input.Type,
		Emoji:       input.Type.Emoji(),
		Accent:      models.OccasionAccents[s.pickAccent(len(models.OccasionAccents))],
		CreatedBy:   creator.ID,
		CreatorName: creator.DisplayName,
		IsPrivate:   input.IsPrivate,
	}

	member := models.OccasionMember{UserID: creator.ID, Name: creator.DisplayName, Email: creator.Email}
	if err := s.occasionRepo.Create(ctx, occasion, member); err != nil {
		return nil, mapRepoError(err, "failed to create occasion")
	}

	s.logger.InfoContext(ctx, "occasion created",
		slog.String("occasion_id", occasion.ID), slog.String("type", string(occasion.Type)), slog.String("user_id", userID))
	return occasion, nil
}

func (s *occasionService) ListMyOccasions(ctx context.Context, userID string) ([]*models.Occasion, error) {
	occasions, err := s.occasionRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occasions: %w", err)
	}
	return occasions, nil
}

func (s *occasionService) GetOccasionDetails(ctx context.Context, occasionID, userID string) (*OccasionDetails, error) {
	occasion, err := requireMember(ctx, s.occasionRepo, occasionID, userID)
	if err != nil {
		return nil, err
	}

	details := &OccasionDetails{Occasion: occasion}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		members, err := s.occasionRepo.ListMembers(gctx, occasionID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		details.Members = members
		return nil
	})

	if occasion.Matched {
		g.Go(func() error {
			assignment, err := s.assignmentRepo.GetReceiver(gctx, occasionID, userID)
			if err != nil {
				// Участник без пары не мешает показать повод.
				if errors.Is(err, repositories.ErrAssignmentNotFound) || errors.Is(err, repositories.ErrOccasionNotMatched) {
					s.logger.WarnContext(gctx, "matched occasion without assignment for member",
						slog.String("occasion_id", occasionID), slog.String("user_id", userID))
					return nil
				}
				return fmt.Errorf("failed to get assignment: %w", err)
			}
			details.MyAssignment = assignment
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	occasion.Members = details.Members
	return details, nil
}

func (s *occasionService) UpdateOccasion(ctx context.Context, occasionID, userID string, input UpdateOccasionInput) (*models.Occasion, error) {
	occasion, err := requireCreator(ctx, s.occasionRepo, occasionID, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		occasion.Name = strings.TrimSpace(*input.Name)
	}
	if input.Budget != nil {
		occasion.Budget = input.Budget
	}
	if input.Date != nil {
		occasion.Date = emptyToNil(input.Date)
	}
	if input.Type != nil {
		occasion.Type = *input.Type
		occasion.Emoji = occasion.Type.Emoji()
	}
	if input.IsPrivate != nil {
		occasion.IsPrivate = *input.IsPrivate
	}

	if err := validateOccasionFields(occasion.Name, occasion.Budget, occasion.Date, occasion.Type); err != nil {
		return nil, err
	}

	if err := s.occasionRepo.Update(ctx, occasion); err != nil {
		return nil, mapRepoError(err, "failed to update occasion")
	}

	s.events.PublishOccasionEvent(occasionID, realtime.EventOccasionUpdated, occasion)
	return occasion, nil
}

func (s *occasionService) DeleteOccasion(ctx context.Context, occasionID, userID string) error {
	if _, err := requireCreator(ctx, s.occasionRepo, occasionID, userID); err != nil {
		return err
	}
	if err := s.occasionRepo.Delete(ctx, occasionID); err != nil {
		return mapRepoError(err, "failed to delete occasion")
	}
	s.logger.InfoContext(ctx, "occasion deleted", slog.String("occasion_id", occasionID), slog.String("user_id", userID))
	return nil
}

func (s *occasionService) LeaveOccasion(ctx context.Context, occasionID, userID string) error {
	occasion, err := s.occasionRepo.GetByID(ctx, occasionID)
	if err != nil {
		return mapRepoError(err, "failed to get occasion")
	}
	if occasion.CreatedBy == userID {
		return ErrCreatorCannotLeave
	}
	return s.removeMember(ctx, occasion, userID)
}

func (s *occasionService) RemoveMember(ctx context.Context, occasionID, actorID, memberID string) error {
	if actorID == memberID {
		return s.LeaveOccasion(ctx, occasionID, actorID)
	}
	occasion, err := requireCreator(ctx, s.occasionRepo, occasionID, actorID)
	if err != nil {
		return err
	}
	return s.removeMember(ctx, occasion, memberID)
}

func (s *occasionService) removeMember(ctx context.Context, occasion *models.Occasion, userID string) error {
	if occasion.Matched {
		return ErrOccasionAlreadyMatched
	}
	if err := s.occasionRepo.RemoveMember(ctx, occasion.ID, userID); err != nil {
		return mapRepoError(err, "failed to remove member")
	}
	s.events.PublishOccasionEvent(occasion.ID, realtime.EventMemberLeft, map[string]string{"user_id": userID})
	return nil
}
