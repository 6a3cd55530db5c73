package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	redisRepo "github.com/gilson954/sistema-rifa-sub001/internal/database/redis"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/provider"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutBody(orderID, status string) []byte {
	return []byte(fmt.Sprintf(`{"type":"payment","action":"payment.updated","data":{"id":"pay-%s","status":%q,"metadata":{"order_id":%q}}}`, orderID, status, orderID))
}

func notification(body []byte) *provider.Notification {
	return &provider.Notification{Body: body, Header: http.Header{}}
}

func TestWebhookApprovesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 10)
	order := f.reserveTickets(t, c.ID, 0, 1, 2)

	res, err := f.webhooks.Handle(ctx, "checkout", notification(checkoutBody(order.ID, "approved")))
	require.NoError(t, err)
	require.NotNil(t, res.Result)
	assert.Equal(t, entity.SettlementApplied, res.Result.Status)
	assert.Equal(t, entity.TicketStatusPurchased, f.ticket(t, c.ID, 1).Status)

	// redelivery is a harmless no-op
	res, err = f.webhooks.Handle(ctx, "checkout", notification(checkoutBody(order.ID, "approved")))
	require.NoError(t, err)
	assert.Equal(t, entity.SettlementNoop, res.Result.Status)

	logs, err := f.oplog.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, entity.OpWebhookSettlement, logs[0].Operation)
	assert.Equal(t, entity.OperationSkipped, logs[0].Status)
}

func TestWebhookLegacyReferenceAfterReReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 10)
	a := f.reserveTickets(t, c.ID, 0, 1, 2)

	f.clock.Advance(20 * time.Minute)
	_, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	b := f.reserveTickets(t, c.ID, 2, 1, 0)

	body := []byte(fmt.Sprintf(`{"type":"payment","data":{"id":"late-1","status":"approved","external_reference":%q}}`, a.Reference))
	res, err := f.webhooks.Handle(ctx, "checkout", notification(body))
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.Result.OrderID)
	assert.Equal(t, entity.SettlementNoop, res.Result.Status)

	for _, n := range []int{0, 1, 2} {
		ticket := f.ticket(t, c.ID, n)
		assert.Equal(t, entity.TicketStatusReserved, ticket.Status)
		assert.Equal(t, b.ID, ticket.OrderID)
	}
}

func TestWebhookErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 10)
	f.reserveTickets(t, c.ID, 0)

	tests := []struct {
		name     string
		provider string
		body     string
		wantErr  error
	}{
		{name: "unknown provider", provider: "paypal", body: `{}`, wantErr: entity.ErrUnknownProvider},
		{name: "garbage", provider: "checkout", body: `not json`, wantErr: entity.ErrMalformedPayload},
		{name: "no reference", provider: "checkout", body: `{"type":"payment","data":{"id":"1","status":"approved"}}`, wantErr: entity.ErrMissingReference},
		{name: "unknown reference", provider: "checkout", body: `{"type":"payment","data":{"id":"1","status":"approved","external_reference":"campaign_x_tickets_1"}}`, wantErr: entity.ErrUnknownReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.webhooks.Handle(ctx, tt.provider, notification([]byte(tt.body)))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWebhookIgnoredEvent(t *testing.T) {
	f := newFixture(t)

	res, err := f.webhooks.Handle(context.Background(), "bank", notification([]byte(`{"eventType":"account.opened"}`)))
	require.NoError(t, err)
	assert.True(t, res.Ignored)
	assert.Nil(t, res.Result)
}

func TestWebhookStorageFailure(t *testing.T) {
	f := newFixture(t)
	c := f.activeCampaign(t, 10)
	order := f.reserveTickets(t, c.ID, 0)

	f.store.FailWrites = true
	_, err := f.webhooks.Handle(context.Background(), "checkout", notification(checkoutBody(order.ID, "approved")))
	assert.ErrorIs(t, err, entity.ErrStorage)
}

func TestWebhookDeliveryCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 10)
	order := f.reserveTickets(t, c.ID, 0)

	db, mock := redismock.NewClientMock()
	cache := redisRepo.NewDeliveryCache(db, time.Hour)
	resolver := provider.NewResolver(f.store.Orders())
	webhooks := NewWebhookService(provider.NewRegistry(provider.NewCheckoutAdapter("", resolver)), f.processor, cache, f.oplog)

	key := "webhook:checkout:pay-" + order.ID + ":approved"
	mock.ExpectExists(key).SetVal(0)
	mock.ExpectSet(key, order.ID, time.Hour).SetVal("OK")
	res, err := webhooks.Handle(ctx, "checkout", notification(checkoutBody(order.ID, "approved")))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, entity.SettlementApplied, res.Result.Status)

	mock.ExpectExists(key).SetVal(1)
	res, err = webhooks.Handle(ctx, "checkout", notification(checkoutBody(order.ID, "approved")))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Nil(t, res.Result)

	assert.NoError(t, mock.ExpectationsWereMet())
}
