package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/wishly/storage"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string]string{}}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = string(data)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.wishly.test/" + key
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	f := newFixture()
	uploader := newFakeUploader()
	svc := NewUserService(f.users, uploader, discardLogger())
	ctx := context.Background()

	first, err := svc.UploadAvatar(ctx, f.alice.ID, strings.NewReader("one"), "image/png")
	require.NoError(t, err)
	require.NotNil(t, first.PhotoURL)
	require.True(t, strings.HasPrefix(*first.PhotoURL, "https://cdn.wishly.test/avatars/"))
	require.True(t, strings.HasSuffix(*first.PhotoURL, ".png"))
	firstKey := *first.PhotoKey

	second, err := svc.UploadAvatar(ctx, f.alice.ID, strings.NewReader("two"), "image/jpeg")
	require.NoError(t, err)
	require.NotEqual(t, firstKey, *second.PhotoKey)
	require.Equal(t, []string{firstKey}, uploader.deleted)
	require.Len(t, uploader.objects, 1)

	me, err := svc.GetMe(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Equal(t, *second.PhotoURL, *me.PhotoURL)
	require.Empty(t, me.PasswordHash)
}

func TestUploadAvatarRejectsUnsupportedType(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.users, newFakeUploader(), discardLogger())

	_, err := svc.UploadAvatar(context.Background(), f.alice.ID, strings.NewReader("%PDF"), "application/pdf")
	require.ErrorIs(t, err, ErrInvalidFileType)
}

func TestUploadAvatarWithoutStorage(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.users, nil, discardLogger())

	_, err := svc.UploadAvatar(context.Background(), f.alice.ID, strings.NewReader("x"), "image/png")
	require.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestUpdateProfileAndFindByEmail(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.users, nil, discardLogger())
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, f.bob.ID, UpdateProfileInput{DisplayName: "   "})
	require.ErrorIs(t, err, ErrDisplayNameRequired)

	updated, err := svc.UpdateProfile(ctx, f.bob.ID, UpdateProfileInput{DisplayName: " Robert "})
	require.NoError(t, err)
	require.Equal(t, "Robert", updated.DisplayName)

	found, err := svc.FindByEmail(ctx, "  BOB@example.com")
	require.NoError(t, err)
	require.Equal(t, f.bob.ID, found.ID)
	require.Equal(t, "Robert", found.DisplayName)

	_, err = svc.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}
