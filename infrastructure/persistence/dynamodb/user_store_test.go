package dynamodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskboard/application/ports"
	"taskboard/domain/entities"
	apperrors "taskboard/pkg/errors"
)

type recordingAvatars struct {
	deleted []string
	err     error
}

func (r *recordingAvatars) Delete(_ context.Context, avatarURL string) error {
	r.deleted = append(r.deleted, avatarURL)
	return r.err
}

func newTestUserStore(fake *fakeStore, avatars ports.AvatarStore) *UserStore {
	return NewUserStore(fake, testConfig(), avatars, nil, zap.NewNop())
}

func validUserInput() ports.CreateUserInput {
	return ports.CreateUserInput{
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
	}
}

func TestUserStoreCreateAndLookups(t *testing.T) {
	ctx := context.Background()
	store := newTestUserStore(newFakeStore(), nil)

	created, err := store.Create(ctx, validUserInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.UserID)
	assert.Equal(t, entities.RoleUser, created.Role)
	require.NotNil(t, created.NotificationSettings)
	assert.True(t, created.NotificationSettings.EmailNotifications)
	assert.True(t, created.NotificationSettings.PushNotifications)
	assert.False(t, created.NotificationSettings.WeeklyDigest)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	byID, err := store.GetByID(ctx, created.UserID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := store.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.UserID, byEmail.UserID)

	byUsername, err := store.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, created.UserID, byUsername.UserID)

	missing, err := store.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStoreCreateValidation(t *testing.T) {
	store := newTestUserStore(newFakeStore(), nil)

	in := validUserInput()
	in.Email = "not-an-email"
	_, err := store.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUserStoreCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := newTestUserStore(newFakeStore(), nil)

	_, err := store.Create(ctx, validUserInput())
	require.NoError(t, err)

	dup := validUserInput()
	dup.Username = "ada2"
	_, err = store.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestUserStoreCreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store := newTestUserStore(newFakeStore(), nil)

	_, err := store.Create(ctx, validUserInput())
	require.NoError(t, err)

	dup := validUserInput()
	dup.Email = "other@example.com"
	_, err = store.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

// The uniqueness check and the write are separate calls. Interleaving a
// second registration between them shows both can succeed with the same
// email; the check is advisory, not a guarantee.
func TestUserStoreCreateRaceBypassesUniquenessCheck(t *testing.T) {
	ctx := context.Background()
	fake := newFakeStore()
	store := newTestUserStore(fake, nil)

	var racer *entities.User
	var racerErr error
	fake.beforePut = func(string, Item) {
		in := validUserInput()
		in.Username = "ada-racer"
		racer, racerErr = store.Create(ctx, in)
	}

	first, err := store.Create(ctx, validUserInput())
	require.NoError(t, err)
	require.NoError(t, racerErr)
	require.NotNil(t, racer)
	assert.NotEqual(t, first.UserID, racer.UserID)

	all, err := store.ScanAll(ctx)
	require.NoError(t, err)
	duplicates := 0
	for _, u := range all {
		if u.Email == "ada@example.com" {
			duplicates++
		}
	}
	assert.Equal(t, 2, duplicates)
}

func TestUserStoreUpdateIgnoresImmutableFields(t *testing.T) {
	ctx := context.Background()
	store := newTestUserStore(newFakeStore(), nil)

	created, err := store.Create(ctx, validUserInput())
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.UserID, map[string]any{
		"firstName": "Augusta",
		"email":     "stolen@example.com",
		"username":  "stolen",
		"userId":    "stolen",
		"createdAt": "1970-01-01T00:00:00.000000000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, created.Username, updated.Username)
	assert.Equal(t, created.UserID, updated.UserID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUserStoreUpdateEmptyPatchReadsThrough(t *testing.T) {
	ctx := context.Background()
	store := newTestUserStore(newFakeStore(), nil)

	created, err := store.Create(ctx, validUserInput())
	require.NoError(t, err)

	same, err := store.Update(ctx, created.UserID, map[string]any{
		"email":     "stolen@example.com",
		"updatedAt": "1970-01-01T00:00:00.000000000Z",
	})
	require.NoError(t, err)
	require.NotNil(t, same)
	assert.Equal(t, created.UpdatedAt, same.UpdatedAt)
}

func TestUserStoreUpdateMissingUser(t *testing.T) {
	store := newTestUserStore(newFakeStore(), nil)

	_, err := store.Update(context.Background(), "ghost", map[string]any{"firstName": "X"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserStoreGetByIDsDeduplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestUserStore(newFakeStore(), nil)

	a, err := store.Create(ctx, validUserInput())
	require.NoError(t, err)
	bIn := validUserInput()
	bIn.Email = "b@example.com"
	bIn.Username = "bee"
	b, err := store.Create(ctx, bIn)
	require.NoError(t, err)

	users, err := store.GetByIDs(ctx, []string{a.UserID, b.UserID, a.UserID, "ghost"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	none, err := store.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserStoreDeleteCleansUpAvatar(t *testing.T) {
	ctx := context.Background()
	avatars := &recordingAvatars{}
	store := newTestUserStore(newFakeStore(), avatars)

	in := validUserInput()
	in.Avatar = "https://avatars.example.com/ada.png"
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.UserID))
	assert.Equal(t, []string{"https://avatars.example.com/ada.png"}, avatars.deleted)

	gone, err := store.GetByID(ctx, created.UserID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUserStoreDeleteMissingUserIsNoop(t *testing.T) {
	avatars := &recordingAvatars{}
	store := newTestUserStore(newFakeStore(), avatars)

	require.NoError(t, store.Delete(context.Background(), "ghost"))
	assert.Empty(t, avatars.deleted)
}

func TestUserStoreDeleteSurvivesAvatarFailure(t *testing.T) {
	ctx := context.Background()
	avatars := &recordingAvatars{err: assert.AnError}
	store := newTestUserStore(newFakeStore(), avatars)

	in := validUserInput()
	in.Avatar = "https://avatars.example.com/ada.png"
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.UserID))

	gone, err := store.GetByID(ctx, created.UserID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
