package service

import (
	"context"
	"testing"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrdersProjectsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 20)

	pending := f.reserveTickets(t, c.ID, 0)
	review := f.reserveTickets(t, c.ID, 1)
	f.uploadProof(t, review)
	paid := f.reserveTickets(t, c.ID, 2)
	_, err := f.processor.Apply(ctx, approvedEvent(paid))
	require.NoError(t, err)
	released := f.reserveTickets(t, c.ID, 3)
	_, err = f.review.ReleaseOrder(ctx, c.ID, released.ID, organizer)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	late := f.reserveTickets(t, c.ID, 4)

	// only the first four are past their window
	f.clock.Advance(11 * time.Minute)

	orders, err := f.orders.ListOrders(ctx, c.ID, organizer, nil)
	require.NoError(t, err)
	require.Len(t, orders, 5)

	statuses := make(map[string]entity.OrderStatus)
	for _, o := range orders {
		statuses[o.ID] = o.Status
	}
	assert.Equal(t, entity.OrderStatusExpired, statuses[pending.ID])
	assert.Equal(t, entity.OrderStatusExpired, statuses[review.ID])
	assert.Equal(t, entity.OrderStatusPurchased, statuses[paid.ID])
	assert.Equal(t, entity.OrderStatusReleased, statuses[released.ID])
	assert.Equal(t, entity.OrderStatusPending, statuses[late.ID])

	// projection writes nothing
	assert.Equal(t, entity.TicketStatusReserved, f.ticket(t, c.ID, 0).Status)

	filtered, err := f.orders.ListOrders(ctx, c.ID, organizer, &OrderFilter{Status: entity.OrderStatusExpired})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	_, err = f.orders.ListOrders(ctx, c.ID, "intruder", nil)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestListOrdersStatusFilterPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 20)

	reserve := func(n int, pay bool) *entity.Order {
		f.clock.Advance(time.Minute)
		o := f.reserveTickets(t, c.ID, n)
		if pay {
			_, err := f.processor.Apply(ctx, approvedEvent(o))
			require.NoError(t, err)
		}
		return o
	}
	a := reserve(0, false)
	p1 := reserve(1, true)
	p2 := reserve(2, true)
	b := reserve(3, false)
	reserve(4, true)

	ids := func(orders []*entity.Order) []string {
		out := make([]string, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter OrderFilter
		want   []string
	}{
		{name: "first pending", filter: OrderFilter{Status: entity.OrderStatusPending, Limit: 1}, want: []string{b.ID}},
		{name: "second pending", filter: OrderFilter{Status: entity.OrderStatusPending, Limit: 1, Offset: 1}, want: []string{a.ID}},
		{name: "past the end", filter: OrderFilter{Status: entity.OrderStatusPending, Limit: 1, Offset: 2}, want: []string{}},
		{name: "purchased page", filter: OrderFilter{Status: entity.OrderStatusPurchased, Limit: 2, Offset: 1}, want: []string{p2.ID, p1.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.filter
			orders, err := f.orders.ListOrders(ctx, c.ID, organizer, &filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(orders))
		})
	}
}

func TestGetOrderAwaitingReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 10)
	order := f.reserveTickets(t, c.ID, 6, 7)
	proof := f.uploadProof(t, order)

	details, err := f.orders.GetOrder(ctx, c.ID, order.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusAwaitingReview, details.Order.Status)
	assert.Len(t, details.Tickets, 2)
	require.NotNil(t, details.Proof)
	assert.Equal(t, proof.ID, details.Proof.ID)

	_, err = f.orders.GetOrder(ctx, c.ID, "nope", organizer)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)

	_, err = f.orders.GetOrder(ctx, "nope", order.ID, organizer)
	assert.ErrorIs(t, err, entity.ErrCampaignNotFound)
}

func TestUpdateContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 10)
	order := f.reserveTickets(t, c.ID, 6)

	phone := " +55 21 98888-7777 "
	email := "Maria@Example.com"
	details, err := f.orders.UpdateContact(ctx, c.ID, order.ID, organizer, &UpdateContactRequest{Phone: &phone, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Maria", details.Order.Customer.Name)
	assert.Equal(t, "+55 21 98888-7777", details.Order.Customer.Phone)
	assert.Equal(t, "maria@example.com", details.Order.Customer.Email)
	assert.Equal(t, "+55 21 98888-7777", f.ticket(t, c.ID, 6).Customer.Phone)

	_, err = f.orders.UpdateContact(ctx, c.ID, order.ID, organizer, &UpdateContactRequest{})
	assert.ErrorIs(t, err, entity.ErrValidation)

	bad := "not-an-email"
	_, err = f.orders.UpdateContact(ctx, c.ID, order.ID, organizer, &UpdateContactRequest{Email: &bad})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = f.orders.UpdateContact(ctx, c.ID, order.ID, "intruder", &UpdateContactRequest{Phone: &phone})
	assert.ErrorIs(t, err, entity.ErrForbidden)
}
