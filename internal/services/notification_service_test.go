package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"qaforum_backend/internal/models"
	"qaforum_backend/internal/services"
	"qaforum_backend/internal/services/dto"
	"qaforum_backend/internal/testutil"
	"qaforum_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createNotification(t *testing.T, f *fixture, recipient, sender string, typ models.NotificationType) *models.Notification {
	t.Helper()
	n, err := f.svc.NotificationService.Create(context.Background(), f.db, services.NotificationDraft{
		Type:        typ,
		RecipientID: recipient,
		SenderID:    sender,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return n
}

func TestNotificationCreate_DefaultsAndLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := createNotification(t, f, "u1", "u2", models.NotificationTypeAnswer)
	assert.Equal(t, "Someone answered your question", n.Content)
	assert.False(t, n.IsRead)
	assert.Equal(t, epoch.Add(services.DefaultNotificationTTL), n.ExpiresAt)

	long, err := f.svc.NotificationService.Create(ctx, f.db, services.NotificationDraft{
		Type:        models.NotificationTypeSystem,
		RecipientID: "u1",
		SenderID:    "u2",
		Content:     strings.Repeat("я", 600),
	})
	require.NoError(t, err)
	assert.Equal(t, services.MaxNotificationContent, len([]rune(long.Content)))

	_, err = f.svc.NotificationService.Create(ctx, f.db, services.NotificationDraft{Type: "bogus", RecipientID: "u1", SenderID: "u2"})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestNotificationList_NewestFirstWithPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created []*models.Notification
	for i := 0; i < 5; i++ {
		created = append(created, createNotification(t, f, "me", "them", models.NotificationTypeComment))
	}
	createNotification(t, f, "someone-else", "them", models.NotificationTypeComment)

	_, err := f.svc.NotificationService.MarkRead(ctx, f.db, "me", created[0].ID)
	require.NoError(t, err)

	page, err := f.svc.NotificationService.List(ctx, f.db, "me", dto.NotificationCriteria{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(4), page.UnreadCount)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, created[4].ID, page.Notifications[0].ID)
	assert.Equal(t, created[3].ID, page.Notifications[1].ID)

	last, err := f.svc.NotificationService.List(ctx, f.db, "me", dto.NotificationCriteria{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Notifications, 1)
	assert.Equal(t, created[0].ID, last.Notifications[0].ID)

	unread, err := f.svc.NotificationService.List(ctx, f.db, "me", dto.NotificationCriteria{UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(4), unread.Total)
	assert.Equal(t, 20, unread.Limit)
}

func TestNotificationOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := createNotification(t, f, "owner", "sender", models.NotificationTypeVote)

	_, err := f.svc.NotificationService.Get(ctx, f.db, "intruder", n.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationAccessDenied)

	_, err = f.svc.NotificationService.MarkRead(ctx, f.db, "intruder", n.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationAccessDenied)

	err = f.svc.NotificationService.Delete(ctx, f.db, "intruder", n.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationAccessDenied)

	_, err = f.svc.NotificationService.Get(ctx, f.db, "owner", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	got, err := f.svc.NotificationService.Get(ctx, f.db, "owner", n.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRead)
}

func TestNotificationMarkRead_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := createNotification(t, f, "owner", "sender", models.NotificationTypeVote)

	first, err := f.svc.NotificationService.MarkRead(ctx, f.db, "owner", n.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	f.clock.Advance(time.Hour)
	second, err := f.svc.NotificationService.MarkRead(ctx, f.db, "owner", n.ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt), "readAt keeps the first read time")

	count, err := f.svc.NotificationService.UnreadCount(ctx, f.db, "owner")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationMarkAllAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		createNotification(t, f, "owner", "sender", models.NotificationTypeMention)
	}
	keep := createNotification(t, f, "other", "sender", models.NotificationTypeMention)

	updated, err := f.svc.NotificationService.MarkAllRead(ctx, f.db, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	count, err := f.svc.NotificationService.UnreadCount(ctx, f.db, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	deleted, err := f.svc.NotificationService.DeleteAll(ctx, f.db, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	require.NoError(t, f.svc.NotificationService.Delete(ctx, f.db, "other", keep.ID))
	_, err = f.svc.NotificationService.Get(ctx, f.db, "other", keep.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
}

func TestNotificationStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := createNotification(t, f, "owner", "s", models.NotificationTypeVote)
	createNotification(t, f, "owner", "s", models.NotificationTypeVote)
	createNotification(t, f, "owner", "s", models.NotificationTypeAccept)

	_, err := f.svc.NotificationService.MarkRead(ctx, f.db, "owner", v.ID)
	require.NoError(t, err)

	stats, err := f.svc.NotificationService.Stats(ctx, f.db, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Unread)
	assert.Equal(t, int64(2), stats.ByType["vote"])
	assert.Equal(t, int64(1), stats.UnreadByType["vote"])
	assert.Equal(t, int64(1), stats.ByType["accept"])
}

func TestNotificationExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := createNotification(t, f, "owner", "s", models.NotificationTypeVote)

	f.clock.Advance(services.DefaultNotificationTTL - 2*time.Second)
	fresh := createNotification(t, f, "owner", "s", models.NotificationTypeVote)

	// old истекает, fresh еще живо
	f.clock.Advance(2 * time.Second)

	_, err := f.svc.NotificationService.Get(ctx, f.db, "owner", old.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	list, err := f.svc.NotificationService.List(ctx, f.db, "owner", dto.NotificationCriteria{})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, fresh.ID, list.Notifications[0].ID)
	assert.Equal(t, int64(1), list.UnreadCount)

	purged, err := f.svc.NotificationService.PurgeExpired(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.Len(t, f.notificationsFor(t, "owner"), 1)
}

func TestNotificationCreate_UsesRealUsers(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")

	n := createNotification(t, f, alice.ID, bob.ID, models.NotificationTypeSystem)
	got, err := f.svc.NotificationService.Get(context.Background(), f.db, alice.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.Sender)
	assert.Equal(t, "System notification", got.Content)
}

func TestNotificationList_FilterByType(t *testing.T) {
	f := newFixture(t)
	createNotification(t, f, "owner", "s", models.NotificationTypeVote)
	mention := createNotification(t, f, "owner", "s", models.NotificationTypeMention)

	list, err := f.svc.NotificationService.List(context.Background(), f.db, "owner", dto.NotificationCriteria{Type: "mention"})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, mention.ID, list.Notifications[0].ID)
	assert.Equal(t, int64(2), list.UnreadCount, "unread count ignores the type filter")
}
