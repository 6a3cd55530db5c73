package service

import (
	"context"
	"testing"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.campaigns.CreateCampaign(ctx, &CreateCampaignRequest{
		OrganizerID:  organizer,
		Title:        "  Rifa do carro  ",
		TotalTickets: 100,
		TicketPrice:  decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CampaignStatusDraft, c.Status)
	assert.Equal(t, "Rifa do carro", c.Title)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, t0.Add(24*time.Hour), *c.ExpiresAt)

	got, err := f.campaigns.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Available)
	assert.Zero(t, got.Reserved)
	assert.True(t, got.TicketPrice.Equal(decimal.RequireFromString("2.5")))

	ticket := f.ticket(t, c.ID, 99)
	assert.Equal(t, entity.TicketStatusAvailable, ticket.Status)
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  CreateCampaignRequest
	}{
		{name: "no title", req: CreateCampaignRequest{OrganizerID: organizer, TotalTickets: 10}},
		{name: "no organizer", req: CreateCampaignRequest{Title: "x", TotalTickets: 10}},
		{name: "no tickets", req: CreateCampaignRequest{OrganizerID: organizer, Title: "x"}},
		{name: "negative price", req: CreateCampaignRequest{OrganizerID: organizer, Title: "x", TotalTickets: 10, TicketPrice: decimal.NewFromInt(-1)}},
		{name: "min above max", req: CreateCampaignRequest{OrganizerID: organizer, Title: "x", TotalTickets: 10, MinPerPurchase: 5, MaxPerPurchase: 2}},
		{name: "min above total", req: CreateCampaignRequest{OrganizerID: organizer, Title: "x", TotalTickets: 10, MinPerPurchase: 11}},
		{name: "too many tickets", req: CreateCampaignRequest{OrganizerID: organizer, Title: "x", TotalTickets: 1001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.campaigns.CreateCampaign(context.Background(), &tt.req)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func TestPublishCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.campaigns.CreateCampaign(ctx, &CreateCampaignRequest{OrganizerID: organizer, Title: "x", TotalTickets: 3})
	require.NoError(t, err)

	_, err = f.campaigns.PublishCampaign(ctx, c.ID, "intruder")
	assert.ErrorIs(t, err, entity.ErrForbidden)

	published, err := f.campaigns.PublishCampaign(ctx, c.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, entity.CampaignStatusActive, published.Status)
	assert.Nil(t, published.ExpiresAt)

	_, err = f.campaigns.PublishCampaign(ctx, c.ID, organizer)
	assert.ErrorIs(t, err, entity.ErrCampaignNotDraft)

	_, err = f.campaigns.PublishCampaign(ctx, "missing", organizer)
	assert.ErrorIs(t, err, entity.ErrCampaignNotFound)
}
