package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *entity.SettlementEvent {
	return &entity.SettlementEvent{
		CampaignID:    "c1",
		OrderID:       "o1",
		TicketNumbers: []int{1, 2},
		Outcome:       entity.OutcomeApproved,
		ExternalID:    "pay-42",
		Provider:      entity.ProviderCheckout,
	}
}

func TestDeliveryKey(t *testing.T) {
	assert.Equal(t, "webhook:checkout:pay-42:approved", DeliveryKey(testEvent()))
}

func TestDeliveryCacheSeen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewDeliveryCache(db, time.Hour)
	ctx := context.Background()

	mock.ExpectExists("webhook:checkout:pay-42:approved").SetVal(1)
	seen, err := cache.Seen(ctx, testEvent())
	require.NoError(t, err)
	assert.True(t, seen)

	mock.ExpectExists("webhook:checkout:pay-42:approved").SetVal(0)
	seen, err = cache.Seen(ctx, testEvent())
	require.NoError(t, err)
	assert.False(t, seen)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryCacheSeenError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewDeliveryCache(db, time.Hour)

	mock.ExpectExists("webhook:checkout:pay-42:approved").SetErr(errors.New("connection refused"))
	_, err := cache.Seen(context.Background(), testEvent())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryCacheRemember(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewDeliveryCache(db, 24*time.Hour)

	mock.ExpectSet("webhook:checkout:pay-42:approved", "o1", 24*time.Hour).SetVal("OK")
	require.NoError(t, cache.Remember(context.Background(), testEvent()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryCacheSkipsEventsWithoutExternalID(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewDeliveryCache(db, time.Hour)

	event := testEvent()
	event.ExternalID = ""

	seen, err := cache.Seen(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, seen)
	require.NoError(t, cache.Remember(context.Background(), event))

	assert.NoError(t, mock.ExpectationsWereMet())
}
