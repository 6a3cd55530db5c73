package memory

import (
	"context"
	"testing"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store, total int) {
	t.Helper()
	require.NoError(t, s.Campaigns().Create(context.Background(), &entity.Campaign{
		ID:           "c1",
		OrganizerID:  "org",
		Status:       entity.CampaignStatusActive,
		TotalTickets: total,
		CreatedAt:    now,
	}))
}

func order(id string, expires time.Time, numbers ...int) *entity.Order {
	return &entity.Order{
		ID:            id,
		CampaignID:    "c1",
		TicketNumbers: numbers,
		Reference:     entity.FormatReference("c1", numbers),
		ReservedAt:    now,
		ExpiresAt:     expires,
		CreatedAt:     now,
	}
}

func TestReserveIsAllOrNothing(t *testing.T) {
	s := NewStore()
	seed(t, s, 5)
	ctx := context.Background()

	require.NoError(t, s.Orders().Reserve(ctx, order("a", now.Add(time.Minute), 1, 2)))

	err := s.Orders().Reserve(ctx, order("b", now.Add(time.Minute), 2, 3, 9))
	var conflict *entity.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{2, 9}, conflict.Unavailable)

	ticket, _ := s.Ticket("c1", 3)
	assert.Equal(t, entity.TicketStatusAvailable, ticket.Status)
	_, err = s.Orders().FindByID(ctx, "b")
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestTransitionIsConditional(t *testing.T) {
	s := NewStore()
	seed(t, s, 5)
	ctx := context.Background()
	require.NoError(t, s.Orders().Reserve(ctx, order("a", now.Add(time.Minute), 1, 2)))

	// wrong order holds nothing
	changed, err := s.Tickets().Transition(ctx, &entity.TicketTransition{
		CampaignID: "c1", OrderID: "b", Numbers: []int{1, 2},
		From: entity.TicketStatusReserved, To: entity.TicketStatusPurchased, At: now,
	})
	require.NoError(t, err)
	assert.Empty(t, changed)

	// window must still be open
	changed, err = s.Tickets().Transition(ctx, &entity.TicketTransition{
		CampaignID: "c1", OrderID: "a", Numbers: []int{1, 2},
		From: entity.TicketStatusReserved, To: entity.TicketStatusPurchased,
		At: now.Add(time.Minute), RequireUnexpired: true,
	})
	require.NoError(t, err)
	assert.Empty(t, changed)

	changed, err = s.Tickets().Transition(ctx, &entity.TicketTransition{
		CampaignID: "c1", OrderID: "a", Numbers: []int{2, 1},
		From: entity.TicketStatusReserved, To: entity.TicketStatusPurchased, At: now,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, changed)

	// purchased is terminal for a release
	changed, err = s.Tickets().Transition(ctx, &entity.TicketTransition{
		CampaignID: "c1", OrderID: "a", Numbers: []int{1, 2},
		From: entity.TicketStatusReserved, To: entity.TicketStatusAvailable, At: now,
	})
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestListExpiredReservations(t *testing.T) {
	s := NewStore()
	seed(t, s, 10)
	ctx := context.Background()

	require.NoError(t, s.Orders().Reserve(ctx, order("late", now.Add(-2*time.Minute), 1, 2)))
	require.NoError(t, s.Orders().Reserve(ctx, order("later", now.Add(-time.Minute), 3)))
	require.NoError(t, s.Orders().Reserve(ctx, order("open", now.Add(time.Minute), 4)))
	require.NoError(t, s.Orders().Reserve(ctx, order("mixed", now.Add(-time.Minute), 5, 6)))
	_, err := s.Tickets().Transition(ctx, &entity.TicketTransition{
		CampaignID: "c1", OrderID: "mixed", Numbers: []int{5},
		From: entity.TicketStatusReserved, To: entity.TicketStatusPurchased, At: now.Add(-2 * time.Minute),
	})
	require.NoError(t, err)

	expired, err := s.Tickets().ListExpiredReservations(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "late", expired[0].OrderID)
	assert.Equal(t, []int{1, 2}, expired[0].Numbers)
	assert.Equal(t, "later", expired[1].OrderID)

	limited, err := s.Tickets().ListExpiredReservations(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFindByReferenceOldestFirst(t *testing.T) {
	s := NewStore()
	seed(t, s, 5)
	ctx := context.Background()

	first := order("first", now.Add(-time.Minute), 1)
	require.NoError(t, s.Orders().Reserve(ctx, first))
	_, err := s.Tickets().Transition(ctx, &entity.TicketTransition{
		CampaignID: "c1", OrderID: "first", Numbers: []int{1},
		From: entity.TicketStatusReserved, To: entity.TicketStatusAvailable, At: now,
	})
	require.NoError(t, err)

	second := order("second", now.Add(time.Hour), 1)
	second.CreatedAt = now.Add(time.Minute)
	require.NoError(t, s.Orders().Reserve(ctx, second))

	orders, err := s.Orders().FindByReference(ctx, "campaign_c1_tickets_1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "first", orders[0].ID)
	assert.Equal(t, "second", orders[1].ID)
}

func TestFailWrites(t *testing.T) {
	s := NewStore()
	seed(t, s, 3)
	s.FailWrites = true

	err := s.Orders().Reserve(context.Background(), order("a", now.Add(time.Minute), 1))
	assert.ErrorIs(t, err, entity.ErrStorage)

	// the operation log keeps working
	assert.NoError(t, s.OperationLogs().Append(context.Background(), &entity.OperationLog{ID: "1", Operation: entity.OpSweep}))
}

func TestOneProofPerOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	proofs := s.Proofs()

	require.NoError(t, proofs.Create(ctx, &entity.PaymentProof{ID: "p1", OrderID: "o1", CampaignID: "c1", Status: entity.ProofStatusPending}))
	require.NoError(t, proofs.SetStatus(ctx, "p1", entity.ProofStatusRejected, now))

	err := proofs.Create(ctx, &entity.PaymentProof{ID: "p2", OrderID: "o1", CampaignID: "c1", Status: entity.ProofStatusPending})
	assert.ErrorIs(t, err, entity.ErrProofExists)

	require.NoError(t, proofs.Create(ctx, &entity.PaymentProof{ID: "p3", OrderID: "o2", CampaignID: "c1", Status: entity.ProofStatusPending}))
}
