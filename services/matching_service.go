package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/wishly/matching"
	"github.com/Dosada05/wishly/metrics"
	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/realtime"
	"github.com/Dosada05/wishly/repositories"
)

type MatchingService interface {
	// MatchOccasion runs the draw on behalf of the occasion creator.
	MatchOccasion(ctx context.Context, occasionID, userID string) (*models.MatchResult, error)
	// RunMatching runs the draw without an ownership check (CLI).
	RunMatching(ctx context.Context, occasionID string) (*models.MatchResult, error)
	GetMyAssignment(ctx context.Context, occasionID, userID string) (*models.MyAssignment, error)
	ResetMatch(ctx context.Context, occasionID, userID string) error
}

type matchingService struct {
	occasionRepo   repositories.OccasionRepository
	assignmentRepo repositories.AssignmentRepository
	matcher        matching.Matcher
	metrics        metrics.Collector
	events         EventPublisher
	logger         *slog.Logger
}

func NewMatchingService(
	occasionRepo repositories.OccasionRepository,
	assignmentRepo repositories.AssignmentRepository,
	matcher matching.Matcher,
	collector metrics.Collector,
	events EventPublisher,
	logger *slog.Logger,
) MatchingService {
	if collector == nil {
		collector = metrics.NewNop()
	}
	return &matchingService{
		occasionRepo:   occasionRepo,
		assignmentRepo: assignmentRepo,
		matcher:        matcher,
		metrics:        collector,
		events:         publisherOrNop(events),
		logger:         logger,
	}
}

func (s *matchingService) MatchOccasion(ctx context.Context, occasionID, userID string) (*models.MatchResult, error) {
	occasion, err := requireCreator(ctx, s.occasionRepo, occasionID, userID)
	if err != nil {
		return nil, err
	}
	if occasion.Matched {
		s.metrics.RecordMatchRun(metrics.ResultAlreadyMatched, 0)
		return nil, ErrOccasionAlreadyMatched
	}
	return s.RunMatching(ctx, occasionID)
}

func (s *matchingService) RunMatching(ctx context.Context, occasionID string) (*models.MatchResult, error) {
	members, err := s.occasionRepo.ListMembers(ctx, occasionID)
	if err != nil {
		s.metrics.RecordMatchRun(metrics.ResultError, 0)
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	participants := make([]matching.Participant, len(members))
	for i, m := range members {
		participants[i] = matching.Participant{ID: m.UserID, Name: m.Name}
	}

	assignments, err := s.matcher.Assign(participants)
	if err != nil {
		s.metrics.RecordMatchRun(engineResult(err), len(participants))
		if !errors.Is(err, matching.ErrInsufficientParticipants) && !errors.Is(err, matching.ErrInvalidInput) {
			s.logger.ErrorContext(ctx, "matching engine failed",
				slog.String("occasion_id", occasionID), slog.Int("participants", len(participants)), slog.Any("error", err))
		}
		return nil, err
	}

	pairs := make([]models.SecretSantaAssignment, len(assignments))
	for i, a := range assignments {
		pairs[i] = models.SecretSantaAssignment{OccasionID: occasionID, GiverID: a.GiverID, ReceiverID: a.ReceiverID}
	}

	matchedAt, err := s.assignmentRepo.SaveMatching(ctx, occasionID, pairs)
	if err != nil {
		err = mapRepoError(err, "failed to save assignments")
		if errors.Is(err, ErrOccasionAlreadyMatched) {
			s.metrics.RecordMatchRun(metrics.ResultAlreadyMatched, len(participants))
		} else {
			s.metrics.RecordMatchRun(metrics.ResultError, len(participants))
		}
		return nil, err
	}

	s.metrics.RecordMatchRun(metrics.ResultSuccess, len(participants))
	result := &models.MatchResult{
		OccasionID:   occasionID,
		Participants: len(participants),
		MatchedAt:    matchedAt,
	}

	// Пары не рассылаются: каждый узнаёт только своего получателя.
	s.events.PublishOccasionEvent(occasionID, realtime.EventOccasionMatched, result)
	s.logger.InfoContext(ctx, "occasion matched",
		slog.String("occasion_id", occasionID), slog.Int("participants", len(participants)))
	return result, nil
}

func engineResult(err error) string {
	switch {
	case errors.Is(err, matching.ErrInsufficientParticipants):
		return metrics.ResultInsufficient
	case errors.Is(err, matching.ErrInvalidInput):
		return metrics.ResultInvalidInput
	default:
		return metrics.ResultError
	}
}

func (s *matchingService) GetMyAssignment(ctx context.Context, occasionID, userID string) (*models.MyAssignment, error) {
	if _, err := requireMember(ctx, s.occasionRepo, occasionID, userID); err != nil {
		return nil, err
	}
	assignment, err := s.assignmentRepo.GetReceiver(ctx, occasionID, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get assignment")
	}
	return assignment, nil
}

func (s *matchingService) ResetMatch(ctx context.Context, occasionID, userID string) error {
	if _, err := requireCreator(ctx, s.occasionRepo, occasionID, userID); err != nil {
		return err
	}
	if err := s.assignmentRepo.Reset(ctx, occasionID); err != nil {
		return mapRepoError(err, "failed to reset match")
	}

	s.events.PublishOccasionEvent(occasionID, realtime.EventOccasionMatchReset, map[string]string{"occasion_id": occasionID})
	s.logger.InfoContext(ctx, "occasion match reset", slog.String("occasion_id", occasionID), slog.String("user_id", userID))
	return nil
}
