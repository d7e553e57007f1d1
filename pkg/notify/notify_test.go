package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/models"
)

type memoryNotifications struct {
	stored []*models.Notification
	err    error
}

func (m *memoryNotifications) CreateBatch(_ context.Context, batch []*models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, batch...)
	return nil
}

type memoryUsers struct {
	users []models.User
	roles []string
}

func (m *memoryUsers) ListByRoles(_ context.Context, roles ...string) ([]models.User, error) {
	m.roles = roles
	return m.users, nil
}

type countingSink struct {
	count int
}

func (c *countingSink) Publish(_ context.Context, _ string, _ map[string]string, _ []byte) error {
	c.count++
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStoreNotifier_NotifyReviewers(t *testing.T) {
	store := &memoryNotifications{}
	users := &memoryUsers{users: []models.User{{ID: "admin-1", Role: "admin"}, {ID: "mod-1", Role: "moderator"}}}
	sink := &countingSink{}
	notifier := NewStoreNotifier(store, users, events.NewEmitter(sink, testLogger()), testLogger())

	match := &models.Match{ID: "m-1", FinalScore: 0.456}
	count, err := notifier.NotifyReviewers(context.Background(), NewMatchForReviewers(match, "Black iPhone 13", "iPhone 13 black"))
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"admin", "moderator"}, users.roles)
	require.Len(t, store.stored, 2)
	assert.Equal(t, "admin-1", store.stored[0].UserID)
	assert.Equal(t, "mod-1", store.stored[1].UserID)
	assert.Equal(t, 2, sink.count)

	n := store.stored[0]
	assert.Equal(t, "New Potential Match!", n.Title)
	assert.Equal(t, `A match of 46% has been detected between "Black iPhone 13" and "iPhone 13 black". Please review and take action.`, n.Message)
	assert.Equal(t, models.NotificationTypeAdmin, n.Type)
	require.NotNil(t, n.RelatedMatchID)
	assert.Equal(t, "m-1", *n.RelatedMatchID)
}

func TestStoreNotifier_NotifyReviewers_NoReviewers(t *testing.T) {
	store := &memoryNotifications{}
	notifier := NewStoreNotifier(store, &memoryUsers{}, nil, testLogger())

	count, err := notifier.NotifyReviewers(context.Background(), models.NotificationTemplate{Title: "x"})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.stored)
}

func TestStoreNotifier_Notify_StoreError(t *testing.T) {
	sink := &countingSink{}
	notifier := NewStoreNotifier(&memoryNotifications{err: errors.New("db down")}, &memoryUsers{}, events.NewEmitter(sink, testLogger()), testLogger())

	err := notifier.Notify(context.Background(), MatchConfirmedForOwner("m-1", "u-1", "Wallet", "Brown wallet"))
	assert.EqualError(t, err, "db down")
	assert.Zero(t, sink.count)
}

func TestMatchConfirmedForOwner(t *testing.T) {
	n := MatchConfirmedForOwner("m-1", "u-1", "Black iPhone 13", "iPhone 13 black")
	assert.Equal(t, "u-1", n.UserID)
	assert.Equal(t, "Match Found!", n.Title)
	assert.Equal(t, `Good news! Your report "Black iPhone 13" has been matched with "iPhone 13 black". Please contact to retrieve the item.`, n.Message)
	assert.Equal(t, models.NotificationTypeMatch, n.Type)
}

func TestStatusChangedForOwner(t *testing.T) {
	tests := []struct {
		status   models.ReportStatus
		expected string
	}{
		{models.ReportStatusPending, "Pending"},
		{models.ReportStatusProcessing, "Processing and searching for matches"},
		{models.ReportStatusMatched, "Match found!"},
		{models.ReportStatusContacted, "Contacted"},
		{models.ReportStatusClosed, "Report closed"},
		{"archived", "archived"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			n := StatusChangedForOwner("u-1", "Wallet", tt.status)
			assert.Equal(t, "Report Status Update", n.Title)
			assert.Equal(t, `Your report "Wallet" status has been updated to: `+tt.expected, n.Message)
			assert.Equal(t, models.NotificationTypeStatus, n.Type)
		})
	}
}
