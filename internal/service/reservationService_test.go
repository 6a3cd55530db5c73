package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.campaigns.CreateCampaign(ctx, &CreateCampaignRequest{
		OrganizerID:    organizer,
		Title:          "Limits",
		TotalTickets:   10,
		TicketPrice:    decimal.NewFromInt(2),
		MinPerPurchase: 2,
		MaxPerPurchase: 3,
	})
	require.NoError(t, err)

	// черновик еще не принимает бронирования
	_, err = f.reserve.Reserve(ctx, &ReserveRequest{CampaignID: c.ID, TicketNumbers: []int{1, 2}})
	assert.ErrorIs(t, err, entity.ErrCampaignNotActive)

	_, err = f.campaigns.PublishCampaign(ctx, c.ID, organizer)
	require.NoError(t, err)

	tests := []struct {
		name    string
		numbers []int
		wantErr error
	}{
		{name: "empty", numbers: nil, wantErr: entity.ErrInvalidTicketNumbers},
		{name: "negative", numbers: []int{-1, 2}, wantErr: entity.ErrInvalidTicketNumbers},
		{name: "out of range", numbers: []int{9, 10}, wantErr: entity.ErrInvalidTicketNumbers},
		{name: "duplicate", numbers: []int{4, 4}, wantErr: entity.ErrInvalidTicketNumbers},
		{name: "below min", numbers: []int{4}, wantErr: entity.ErrInvalidTicketNumbers},
		{name: "above max", numbers: []int{1, 2, 3, 4}, wantErr: entity.ErrInvalidTicketNumbers},
		{name: "ok", numbers: []int{7, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := f.reserve.Reserve(ctx, &ReserveRequest{CampaignID: c.ID, TicketNumbers: tt.numbers})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, entity.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int{5, 7}, order.TicketNumbers)
			assert.Equal(t, "campaign_"+c.ID+"_tickets_5,7", order.Reference)
		})
	}

	_, err = f.reserve.Reserve(ctx, &ReserveRequest{CampaignID: "missing", TicketNumbers: []int{1}})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestReserveTimeoutResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.campaigns.CreateCampaign(ctx, &CreateCampaignRequest{
		OrganizerID:               organizer,
		Title:                     "Timeouts",
		TotalTickets:              20,
		ReservationTimeoutMinutes: 30,
	})
	require.NoError(t, err)
	_, err = f.campaigns.PublishCampaign(ctx, c.ID, organizer)
	require.NoError(t, err)

	tests := []struct {
		name      string
		requested int
		want      time.Duration
	}{
		{name: "argument wins", requested: 5, want: 5 * time.Minute},
		{name: "campaign setting", requested: 0, want: 30 * time.Minute},
		{name: "capped by max", requested: 600, want: 60 * time.Minute},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := f.reserve.Reserve(ctx, &ReserveRequest{
				CampaignID:     c.ID,
				TicketNumbers:  []int{i},
				TimeoutMinutes: tt.requested,
			})
			require.NoError(t, err)
			assert.Equal(t, t0, order.ReservedAt)
			assert.Equal(t, t0.Add(tt.want), order.ExpiresAt)

			ticket := f.ticket(t, c.ID, i)
			require.NotNil(t, ticket.ReservationExpiresAt)
			assert.Equal(t, order.ExpiresAt, *ticket.ReservationExpiresAt)
		})
	}

	// config default when the campaign has none
	plain := f.activeCampaign(t, 5)
	order, err := f.reserve.Reserve(ctx, &ReserveRequest{CampaignID: plain.ID, TicketNumbers: []int{0}})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(15*time.Minute), order.ExpiresAt)
}

func TestReserveConflictKeepsFirstOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.activeCampaign(t, 10)

	a := f.reserveTickets(t, c.ID, 0, 1, 2)

	_, err := f.reserve.Reserve(ctx, &ReserveRequest{CampaignID: c.ID, TicketNumbers: []int{0, 1, 2}})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrConflict)

	var conflict *entity.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{0, 1, 2}, conflict.Unavailable)

	for _, n := range []int{0, 1, 2} {
		ticket := f.ticket(t, c.ID, n)
		assert.Equal(t, entity.TicketStatusReserved, ticket.Status)
		assert.Equal(t, a.ID, ticket.OrderID)
	}
}

func TestReservePartialOverlapAppliesNothing(t *testing.T) {
	f := newFixture(t)
	c := f.activeCampaign(t, 10)
	f.reserveTickets(t, c.ID, 3)

	_, err := f.reserve.Reserve(context.Background(), &ReserveRequest{CampaignID: c.ID, TicketNumbers: []int{2, 3, 4}})
	var conflict *entity.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{3}, conflict.Unavailable)

	assert.Equal(t, entity.TicketStatusAvailable, f.ticket(t, c.ID, 2).Status)
	assert.Equal(t, entity.TicketStatusAvailable, f.ticket(t, c.ID, 4).Status)
}

func TestConcurrentOverlappingReservations(t *testing.T) {
	f := newFixture(t)
	c := f.activeCampaign(t, 50)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.reserve.Reserve(context.Background(), &ReserveRequest{
				CampaignID:    c.ID,
				TicketNumbers: []int{10, 11, 12 + i},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, entity.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}
