package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/wishly/matching"
	"github.com/Dosada05/wishly/metrics"
	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/realtime"
)

type countingMetrics struct {
	metrics.NopMetrics
	mu      sync.Mutex
	results map[string]int
}

func (c *countingMetrics) RecordMatchRun(result string, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func (f *fixture) matchingService(seed uint64) MatchingService {
	return f.matchingServiceWith(seed, nil)
}

func (f *fixture) matchingServiceWith(seed uint64, collector metrics.Collector) MatchingService {
	engine := matching.NewEngine(matching.NewLockedSource(seed))
	return NewMatchingService(f.occasions, assignmentStore{f.occasions}, engine, collector, f.events, discardLogger())
}

func TestMatchOccasionStoresDerangement(t *testing.T) {
	f := newFixture()
	dave := &models.User{ID: "dave", Email: "dave@example.com", DisplayName: "Dave"}
	f.users.users[dave.ID] = dave
	occ := f.occasionWith(f.bob, f.carol, dave)
	collector := &countingMetrics{}
	svc := f.matchingServiceWith(7, collector)
	ctx := context.Background()

	result, err := svc.MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.NoError(t, err)
	require.Equal(t, 4, result.Participants)
	require.False(t, result.MatchedAt.IsZero())

	pairs := f.occasions.assignments[occ.ID]
	require.Len(t, pairs, 4)
	receivers := map[string]bool{}
	for _, p := range pairs {
		require.NotEqual(t, p.GiverID, p.ReceiverID)
		receivers[p.ReceiverID] = true
	}
	require.Len(t, receivers, 4)

	stored, err := f.occasions.GetByID(ctx, occ.ID)
	require.NoError(t, err)
	require.True(t, stored.Matched)

	require.Contains(t, f.events.types(), realtime.EventOccasionMatched)
	for _, e := range f.events.events {
		if e.Type == realtime.EventOccasionMatched {
			require.IsType(t, &models.MatchResult{}, e.Payload)
		}
	}
	require.Equal(t, 1, collector.results[metrics.ResultSuccess])
}

func TestMatchOccasionCreatorOnly(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.bob)

	_, err := f.matchingService(1).MatchOccasion(context.Background(), occ.ID, f.bob.ID)
	require.ErrorIs(t, err, ErrCreatorActionForbidden)
}

func TestMatchOccasionTwiceConflicts(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.bob, f.carol)
	svc := f.matchingService(1)
	ctx := context.Background()

	_, err := svc.MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.NoError(t, err)
	first := append([]models.SecretSantaAssignment(nil), f.occasions.assignments[occ.ID]...)

	_, err = svc.MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.ErrorIs(t, err, ErrOccasionAlreadyMatched)
	require.Equal(t, first, f.occasions.assignments[occ.ID])
}

func TestMatchOccasionInsufficientParticipants(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	collector := &countingMetrics{}
	ctx := context.Background()

	_, err := f.matchingServiceWith(1, collector).MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.ErrorIs(t, err, matching.ErrInsufficientParticipants)

	stored, _ := f.occasions.GetByID(ctx, occ.ID)
	require.False(t, stored.Matched)
	require.Equal(t, 1, collector.results[metrics.ResultInsufficient])
}

func TestConcurrentMatchingOnlyOneWins(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.bob, f.carol)
	svc := f.matchingService(3)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RunMatching(context.Background(), occ.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrOccasionAlreadyMatched)
	}
	require.Equal(t, 1, wins)
}

func TestGetMyAssignment(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.bob)
	svc := f.matchingService(1)
	ctx := context.Background()

	_, err := svc.GetMyAssignment(ctx, occ.ID, f.bob.ID)
	require.ErrorIs(t, err, ErrOccasionNotMatched)

	_, err = svc.MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.NoError(t, err)

	mine, err := svc.GetMyAssignment(ctx, occ.ID, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, f.alice.ID, mine.ReceiverID)
	require.Equal(t, "Alice", mine.ReceiverName)

	_, err = svc.GetMyAssignment(ctx, occ.ID, f.carol.ID)
	require.ErrorIs(t, err, ErrNotOccasionMember)
}

func TestResetMatchAllowsRematch(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.bob, f.carol)
	svc := f.matchingService(1)
	ctx := context.Background()

	require.ErrorIs(t, svc.ResetMatch(ctx, occ.ID, f.alice.ID), ErrOccasionNotMatched)

	_, err := svc.MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.ResetMatch(ctx, occ.ID, f.bob.ID), ErrCreatorActionForbidden)
	require.NoError(t, svc.ResetMatch(ctx, occ.ID, f.alice.ID))
	require.Contains(t, f.events.types(), realtime.EventOccasionMatchReset)

	_, err = svc.MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.NoError(t, err)
}
