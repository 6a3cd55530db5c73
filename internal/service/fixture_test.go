package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database/memory"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
	"github.com/gilson954/sistema-rifa-sub001/internal/provider"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"
	"github.com/gilson954/sistema-rifa-sub001/pkg/storage"
	"github.com/gilson954/sistema-rifa-sub001/pkg/thumbnail"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

const organizer = "org-1"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entity.SettlementNotification
}

func (n *recordingNotifier) Notify(_ context.Context, msg *entity.SettlementNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fixture struct {
	store     *memory.Store
	clock     *clock.Fixed
	notifier  *recordingNotifier
	files     storage.FileStorage
	oplog     OperationLogger
	campaigns CampaignService
	reserve   ReservationService
	processor SettlementProcessor
	webhooks  WebhookService
	review    ReviewService
	orders    OrderService
	sweeper   SweeperService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	review ReviewConfig
}

func withReleaseOnReject() fixtureOption {
	return func(c *fixtureConfig) { c.review.ReleaseOnReject = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	var cfg fixtureConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &fixture{
		store:    memory.NewStore(),
		clock:    clock.NewFixed(t0),
		notifier: &recordingNotifier{},
		files:    storage.NewFileStorage(t.TempDir()),
	}

	campaigns := f.store.Campaigns()
	orders := f.store.Orders()
	tickets := f.store.Tickets()
	proofs := f.store.Proofs()

	f.oplog = NewOperationLogger(f.store.OperationLogs(), nil, f.clock)
	f.campaigns = NewCampaignService(campaigns, f.clock, 1000)
	f.reserve = NewReservationService(campaigns, orders, f.clock, ReservationTimeouts{Default: 15, Max: 60})
	f.processor = NewSettlementProcessor(tickets, f.notifier, f.clock)

	resolver := provider.NewResolver(orders)
	registry := provider.NewRegistry(
		provider.NewCheckoutAdapter("", resolver),
		provider.NewBankAdapter("", resolver),
		provider.NewManualAdapter("", orders),
	)
	f.webhooks = NewWebhookService(registry, f.processor, nil, f.oplog)
	f.review = NewReviewService(campaigns, orders, tickets, proofs, f.processor, f.files,
		thumbnail.NewGenerator(64, 64), f.oplog, f.clock, cfg.review)
	f.orders = NewOrderService(campaigns, orders, tickets, proofs, f.clock)
	f.sweeper = NewSweeperService(campaigns, tickets, proofs, f.processor, f.oplog, f.clock,
		SweeperConfig{DraftGrace: 48 * time.Hour, BatchSize: 100})

	return f
}

// activeCampaign creates and publishes a campaign with total tickets.
func (f *fixture) activeCampaign(t *testing.T, total int) *entity.Campaign {
	t.Helper()
	ctx := context.Background()

	c, err := f.campaigns.CreateCampaign(ctx, &CreateCampaignRequest{
		OrganizerID:  organizer,
		Title:        "Rifa beneficente",
		TotalTickets: total,
		TicketPrice:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	_, err = f.campaigns.PublishCampaign(ctx, c.ID, organizer)
	require.NoError(t, err)
	return c
}

func (f *fixture) reserveTickets(t *testing.T, campaignID string, numbers ...int) *entity.Order {
	t.Helper()
	order, err := f.reserve.Reserve(context.Background(), &ReserveRequest{
		CampaignID:     campaignID,
		TicketNumbers:  numbers,
		Customer:       entity.Customer{Name: "Maria", Phone: "+55 11 99999-0000"},
		TimeoutMinutes: 15,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) ticket(t *testing.T, campaignID string, n int) entity.Ticket {
	t.Helper()
	ticket, ok := f.store.Ticket(campaignID, n)
	require.True(t, ok, "ticket %d not found", n)
	return ticket
}

func (f *fixture) uploadProof(t *testing.T, order *entity.Order) *entity.PaymentProof {
	t.Helper()
	proof, err := f.review.UploadProof(context.Background(), &entity.ProofUpload{
		OrderID:     order.ID,
		CampaignID:  order.CampaignID,
		OrganizerID: organizer,
	}, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	return proof
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for x := 0; x < 200; x++ {
		for y := 0; y < 100; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func approvedEvent(order *entity.Order) *entity.SettlementEvent {
	return &entity.SettlementEvent{
		CampaignID:    order.CampaignID,
		OrderID:       order.ID,
		TicketNumbers: order.TicketNumbers,
		Outcome:       entity.OutcomeApproved,
		Provider:      entity.ProviderCheckout,
		ExternalID:    "pay-" + order.ID,
	}
}
