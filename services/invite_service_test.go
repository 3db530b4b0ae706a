package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/realtime"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestSendInvite(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	svc := f.inviteService()

	invite, err := svc.SendInvite(context.Background(), occ.ID, f.alice.ID, " Bob@Example.com ")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", invite.InvitedUserEmail)
	require.Equal(t, models.InviteStatusPending, invite.Status)
	require.Regexp(t, hexToken, invite.Token)
	require.WithinDuration(t, time.Now().Add(14*24*time.Hour), invite.ExpiresAt, time.Minute)
	require.NotNil(t, invite.InvitedUserID)
	require.Equal(t, f.bob.ID, *invite.InvitedUserID)
	require.Equal(t, "Alice", invite.InvitedByName)

	require.Equal(t, []string{"bob@example.com"}, f.mailer.to)
	require.Equal(t, "https://wishly.test/invites/"+invite.Token, f.mailer.sent[0].InviteLink)
}

func TestSendInviteRules(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.bob)
	svc := f.inviteService()
	ctx := context.Background()

	_, err := svc.SendInvite(ctx, occ.ID, f.carol.ID, "dave@example.com")
	require.ErrorIs(t, err, ErrNotOccasionMember)

	_, err = svc.SendInvite(ctx, occ.ID, f.alice.ID, "bob@example.com")
	require.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.SendInvite(ctx, occ.ID, f.bob.ID, "carol@example.com")
	require.NoError(t, err)
	_, err = svc.SendInvite(ctx, occ.ID, f.alice.ID, "carol@example.com")
	require.ErrorIs(t, err, ErrInviteAlreadyPending)
}

func TestSendInviteAfterMatchingRefused(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.bob)
	_, err := f.matchingService(1).MatchOccasion(context.Background(), occ.ID, f.alice.ID)
	require.NoError(t, err)

	_, err = f.inviteService().SendInvite(context.Background(), occ.ID, f.alice.ID, "carol@example.com")
	require.ErrorIs(t, err, ErrOccasionAlreadyMatched)
}

func TestSendInviteRetriesTokenConflicts(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	f.invites.tokenConflicts = 2

	_, err := f.inviteService().SendInvite(context.Background(), occ.ID, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	f.invites.tokenConflicts = inviteTokenMaxAttempts
	_, err = f.inviteService().SendInvite(context.Background(), occ.ID, f.alice.ID, "carol@example.com")
	require.ErrorIs(t, err, ErrInviteTokenGeneration)
}

func TestSendInviteMailFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	f.mailer.err = errors.New("smtp down")

	_, err := f.inviteService().SendInvite(context.Background(), occ.ID, f.alice.ID, "bob@example.com")
	require.NoError(t, err)
}

func TestAcceptInvite(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	svc := f.inviteService()
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, occ.ID, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = svc.AcceptInvite(ctx, invite.ID, f.carol.ID)
	require.ErrorIs(t, err, ErrNotInvitee)

	joined, err := svc.AcceptInvite(ctx, invite.ID, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, occ.ID, joined.ID)

	isMember, _ := f.occasions.IsMember(ctx, occ.ID, f.bob.ID)
	require.True(t, isMember)
	require.Contains(t, f.events.types(), realtime.EventMemberJoined)

	_, err = svc.AcceptInvite(ctx, invite.ID, f.bob.ID)
	require.ErrorIs(t, err, ErrInviteNotPending)
}

func TestAcceptInviteByToken(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	svc := f.inviteService()
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, occ.ID, f.alice.ID, "someone@example.com")
	require.NoError(t, err)

	got, err := svc.GetInviteByToken(ctx, invite.Token)
	require.NoError(t, err)
	require.Equal(t, invite.ID, got.ID)

	_, err = svc.AcceptInviteByToken(ctx, invite.Token, f.carol.ID)
	require.NoError(t, err)
	isMember, _ := f.occasions.IsMember(ctx, occ.ID, f.carol.ID)
	require.True(t, isMember)
}

func TestAcceptExpiredInvite(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	svc := f.inviteService().(*inviteService)
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, occ.ID, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(15 * 24 * time.Hour) }
	_, err = svc.AcceptInvite(ctx, invite.ID, f.bob.ID)
	require.ErrorIs(t, err, ErrInviteExpired)
	_, err = svc.GetInviteByToken(ctx, invite.Token)
	require.ErrorIs(t, err, ErrInviteExpired)
}

func TestAcceptInviteAfterMatchingRefused(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith(f.carol)
	svc := f.inviteService()
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, occ.ID, f.alice.ID, "bob@example.com")
	require.NoError(t, err)
	_, err = f.matchingService(1).MatchOccasion(ctx, occ.ID, f.alice.ID)
	require.NoError(t, err)

	_, err = svc.AcceptInvite(ctx, invite.ID, f.bob.ID)
	require.ErrorIs(t, err, ErrOccasionAlreadyMatched)
}

func TestDeclineInviteAndListMine(t *testing.T) {
	f := newFixture()
	occ := f.occasionWith()
	svc := f.inviteService()
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, occ.ID, f.alice.ID, "bob@example.com")
	require.NoError(t, err)

	mine, err := svc.ListMyInvites(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.ErrorIs(t, svc.DeclineInvite(ctx, invite.ID, f.carol.ID), ErrNotInvitee)
	require.NoError(t, svc.DeclineInvite(ctx, invite.ID, f.bob.ID))

	mine, err = svc.ListMyInvites(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Empty(t, mine)
}
