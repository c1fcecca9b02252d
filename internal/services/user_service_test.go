package services_test

import (
	"context"
	"testing"

	"qaforum_backend/internal/services/dto"
	"qaforum_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRegister_OptsIntoEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.UserService.Register(ctx, f.db, "dave", "dave@test.com", "password123")
	require.NoError(t, err)
	assert.True(t, user.EmailNotifications)

	stored, err := f.svc.UserService.GetByID(ctx, f.db, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailNotifications)
}

func TestUserUpdatePreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.svc.UserService.Register(ctx, f.db, "dave", "dave@test.com", "password123")
	require.NoError(t, err)

	off := false
	updated, err := f.svc.UserService.UpdatePreferences(ctx, f.db, user.ID, &dto.UpdatePreferencesRequest{EmailNotifications: &off})
	require.NoError(t, err)
	assert.False(t, updated.EmailNotifications)

	// пустой запрос ничего не меняет
	same, err := f.svc.UserService.UpdatePreferences(ctx, f.db, user.ID, &dto.UpdatePreferencesRequest{})
	require.NoError(t, err)
	assert.False(t, same.EmailNotifications)

	_, err = f.svc.UserService.UpdatePreferences(ctx, f.db, "missing", &dto.UpdatePreferencesRequest{EmailNotifications: &off})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
