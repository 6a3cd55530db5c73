// Package memory keeps the whole inventory in process memory. It applies the
// same conditional writes as the postgres repositories under one mutex and backs
// local runs (database.driver: memory) and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/entity"
)

type ticketKey struct {
	campaignID string
	number     int
}

type Store struct {
	mu        sync.Mutex
	campaigns map[string]*entity.Campaign
	tickets   map[ticketKey]*entity.Ticket
	orders    map[string]*entity.Order
	proofs    map[string]*entity.PaymentProof
	logs      []*entity.OperationLog

	// FailWrites makes every mutating call fail with a storage error.
	FailWrites bool
}

func NewStore() *Store {
	return &Store{
		campaigns: make(map[string]*entity.Campaign),
		tickets:   make(map[ticketKey]*entity.Ticket),
		orders:    make(map[string]*entity.Order),
		proofs:    make(map[string]*entity.PaymentProof),
	}
}

func (s *Store) Campaigns() database.CampaignRepository { return &campaignRepo{s} }

func (s *Store) Orders() database.OrderRepository { return &orderRepo{s} }

func (s *Store) Tickets() database.TicketRepository { return &ticketRepo{s} }

func (s *Store) Proofs() database.ProofRepository { return &proofRepo{s} }

func (s *Store) OperationLogs() database.OperationLogRepository { return &operationLogRepo{s} }

// Ticket returns a copy of one ticket row.
func (s *Store) Ticket(campaignID string, number int) (entity.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketKey{campaignID, number}]
	if !ok {
		return entity.Ticket{}, false
	}
	return *t, true
}

func (s *Store) writeErr() error {
	if s.FailWrites {
		return errStorage
	}
	return nil
}

var errStorage = &storageError{}

type storageError struct{}

func (*storageError) Error() string { return "storage failure: memory store write disabled" }

func (*storageError) Unwrap() error { return entity.ErrStorage }

// campaigns

type campaignRepo struct{ s *Store }

func (r *campaignRepo) Create(ctx context.Context, c *entity.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return err
	}

	cp := *c
	r.s.campaigns[c.ID] = &cp
	for n := 0; n < c.TotalTickets; n++ {
		r.s.tickets[ticketKey{c.ID, n}] = &entity.Ticket{
			CampaignID:  c.ID,
			QuotaNumber: n,
			Status:      entity.TicketStatusAvailable,
			UpdatedAt:   c.CreatedAt,
		}
	}
	return nil
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (*entity.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, entity.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *campaignRepo) GetWithAvailability(ctx context.Context, id string) (*entity.CampaignWithAvailability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, entity.ErrCampaignNotFound
	}
	result := &entity.CampaignWithAvailability{Campaign: *c}
	for n := 0; n < c.TotalTickets; n++ {
		switch r.s.tickets[ticketKey{id, n}].Status {
		case entity.TicketStatusAvailable:
			result.Available++
		case entity.TicketStatusReserved:
			result.Reserved++
		case entity.TicketStatusPurchased:
			result.Purchased++
		}
	}
	return result, nil
}

func (r *campaignRepo) Publish(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return err
	}

	c, ok := r.s.campaigns[id]
	if !ok {
		return entity.ErrCampaignNotFound
	}
	if c.Status != entity.CampaignStatusDraft {
		return entity.ErrCampaignNotDraft
	}
	c.Status = entity.CampaignStatusActive
	c.ExpiresAt = nil
	c.UpdatedAt = at
	return nil
}

func (r *campaignRepo) ListStaleDrafts(ctx context.Context, now, createdBefore time.Time, limit int) ([]*entity.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.Campaign
	for _, c := range r.s.campaigns {
		if c.IsStaleDraft(now, createdBefore) {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *campaignRepo) DeleteStaleDraft(ctx context.Context, id string, now, createdBefore time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return false, err
	}

	c, ok := r.s.campaigns[id]
	if !ok || !c.IsStaleDraft(now, createdBefore) {
		return false, nil
	}

	delete(r.s.campaigns, id)
	for k := range r.s.tickets {
		if k.campaignID == id {
			delete(r.s.tickets, k)
		}
	}
	for oid, o := range r.s.orders {
		if o.CampaignID == id {
			delete(r.s.orders, oid)
		}
	}
	for pid, p := range r.s.proofs {
		if p.CampaignID == id {
			delete(r.s.proofs, pid)
		}
	}
	return true, nil
}

// orders

type orderRepo struct{ s *Store }

func (r *orderRepo) Reserve(ctx context.Context, order *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return err
	}

	var unavailable []int
	for _, n := range order.TicketNumbers {
		t, ok := r.s.tickets[ticketKey{order.CampaignID, n}]
		if !ok || t.Status != entity.TicketStatusAvailable {
			unavailable = append(unavailable, n)
		}
	}
	if len(unavailable) > 0 {
		sort.Ints(unavailable)
		return &entity.ConflictError{CampaignID: order.CampaignID, Unavailable: unavailable}
	}

	cp := *order
	cp.TicketNumbers = append([]int(nil), order.TicketNumbers...)
	r.s.orders[order.ID] = &cp

	reservedAt, expiresAt := order.ReservedAt, order.ExpiresAt
	for _, n := range order.TicketNumbers {
		t := r.s.tickets[ticketKey{order.CampaignID, n}]
		t.Status = entity.TicketStatusReserved
		t.OrderID = order.ID
		t.Customer = order.Customer
		t.ReservedAt = &reservedAt
		t.ReservationExpiresAt = &expiresAt
		t.BoughtAt = nil
		t.UpdatedAt = reservedAt
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, campaignID, orderID string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok || o.CampaignID != campaignID {
		return nil, entity.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *orderRepo) FindByReference(ctx context.Context, reference string) ([]*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.Order
	for _, o := range r.s.orders {
		if o.Reference == reference {
			result = append(result, copyOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *orderRepo) ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.Order
	for _, o := range r.s.orders {
		if o.CampaignID == campaignID {
			result = append(result, copyOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *orderRepo) UpdateContact(ctx context.Context, campaignID, orderID string, customer entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return err
	}

	o, ok := r.s.orders[orderID]
	if !ok || o.CampaignID != campaignID {
		return entity.ErrOrderNotFound
	}
	o.Customer = customer
	for _, t := range r.s.tickets {
		if t.CampaignID == campaignID && t.OrderID == orderID {
			t.Customer = customer
		}
	}
	for _, p := range r.s.proofs {
		if p.CampaignID == campaignID && p.OrderID == orderID {
			p.CustomerName = customer.Name
			p.CustomerPhone = customer.Phone
		}
	}
	return nil
}

func copyOrder(o *entity.Order) *entity.Order {
	cp := *o
	cp.TicketNumbers = append([]int(nil), o.TicketNumbers...)
	return &cp
}

// tickets

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Transition(ctx context.Context, tr *entity.TicketTransition) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return nil, err
	}

	var changed []int
	for _, n := range tr.Numbers {
		t, ok := r.s.tickets[ticketKey{tr.CampaignID, n}]
		if !ok || t.Status != tr.From || t.OrderID != tr.OrderID {
			continue
		}
		if tr.RequireUnexpired && (t.ReservationExpiresAt == nil || !t.ReservationExpiresAt.After(tr.At)) {
			continue
		}

		at := tr.At
		switch tr.To {
		case entity.TicketStatusPurchased:
			t.Status = entity.TicketStatusPurchased
			t.BoughtAt = &at
		case entity.TicketStatusAvailable:
			t.Status = entity.TicketStatusAvailable
			t.OrderID = ""
			t.Customer = entity.Customer{}
			t.ReservedAt = nil
			t.ReservationExpiresAt = nil
		default:
			continue
		}
		t.UpdatedAt = at
		changed = append(changed, n)
	}
	sort.Ints(changed)
	return changed, nil
}

func (r *ticketRepo) ListByOrder(ctx context.Context, campaignID, orderID string) ([]*entity.Ticket, error) {
	return r.filter(func(t *entity.Ticket) bool {
		return t.CampaignID == campaignID && t.OrderID == orderID
	}), nil
}

func (r *ticketRepo) ListHeldByCampaign(ctx context.Context, campaignID string) ([]*entity.Ticket, error) {
	return r.filter(func(t *entity.Ticket) bool {
		return t.CampaignID == campaignID && t.Status != entity.TicketStatusAvailable
	}), nil
}

func (r *ticketRepo) ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*entity.ExpiredReservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type orderKey struct{ campaignID, orderID string }
	purchased := make(map[orderKey]bool)
	for _, t := range r.s.tickets {
		if t.Status == entity.TicketStatusPurchased {
			purchased[orderKey{t.CampaignID, t.OrderID}] = true
		}
	}

	groups := make(map[orderKey]*entity.ExpiredReservation)
	for _, t := range r.s.tickets {
		if t.Status != entity.TicketStatusReserved || t.ReservationExpiresAt == nil || !t.ReservationExpiresAt.Before(now) {
			continue
		}
		k := orderKey{t.CampaignID, t.OrderID}
		if purchased[k] {
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &entity.ExpiredReservation{CampaignID: t.CampaignID, OrderID: t.OrderID, ExpiresAt: *t.ReservationExpiresAt}
			groups[k] = g
		}
		g.Numbers = append(g.Numbers, t.QuotaNumber)
		if t.ReservationExpiresAt.Before(g.ExpiresAt) {
			g.ExpiresAt = *t.ReservationExpiresAt
		}
	}

	result := make([]*entity.ExpiredReservation, 0, len(groups))
	for _, g := range groups {
		sort.Ints(g.Numbers)
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ExpiresAt.Equal(result[j].ExpiresAt) {
			return result[i].OrderID < result[j].OrderID
		}
		return result[i].ExpiresAt.Before(result[j].ExpiresAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *ticketRepo) filter(keep func(*entity.Ticket) bool) []*entity.Ticket {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.Ticket
	for _, t := range r.s.tickets {
		if keep(t) {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OrderID != result[j].OrderID {
			return result[i].OrderID < result[j].OrderID
		}
		return result[i].QuotaNumber < result[j].QuotaNumber
	})
	return result
}

// proofs

type proofRepo struct{ s *Store }

func (r *proofRepo) Create(ctx context.Context, p *entity.PaymentProof) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return err
	}

	for _, existing := range r.s.proofs {
		if existing.OrderID == p.OrderID {
			return entity.ErrProofExists
		}
	}
	cp := *p
	r.s.proofs[p.ID] = &cp
	return nil
}

func (r *proofRepo) GetByID(ctx context.Context, id string) (*entity.PaymentProof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.proofs[id]
	if !ok {
		return nil, entity.ErrProofNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *proofRepo) GetLatestByOrder(ctx context.Context, campaignID, orderID string) (*entity.PaymentProof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var latest *entity.PaymentProof
	for _, p := range r.s.proofs {
		if p.CampaignID != campaignID || p.OrderID != orderID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, entity.ErrProofNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *proofRepo) ListByCampaign(ctx context.Context, campaignID string) ([]*entity.PaymentProof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.PaymentProof
	for _, p := range r.s.proofs {
		if p.CampaignID == campaignID {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *proofRepo) CompareAndSetStatus(ctx context.Context, id string, from, to entity.ProofStatus, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return false, err
	}

	p, ok := r.s.proofs[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = at
	return true, nil
}

func (r *proofRepo) SetStatus(ctx context.Context, id string, status entity.ProofStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return err
	}

	p, ok := r.s.proofs[id]
	if !ok {
		return entity.ErrProofNotFound
	}
	p.Status = status
	p.UpdatedAt = at
	return nil
}

func (r *proofRepo) ExpirePendingByOrder(ctx context.Context, campaignID, orderID string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.writeErr(); err != nil {
		return 0, err
	}

	var n int64
	for _, p := range r.s.proofs {
		if p.CampaignID == campaignID && p.OrderID == orderID && p.Status == entity.ProofStatusPending {
			p.Status = entity.ProofStatusExpired
			p.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

// operation log

type operationLogRepo struct{ s *Store }

func (r *operationLogRepo) Append(ctx context.Context, entry *entity.OperationLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *entry
	r.s.logs = append(r.s.logs, &cp)
	return nil
}

func (r *operationLogRepo) ListRecent(ctx context.Context, limit int) ([]*entity.OperationLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*entity.OperationLog, 0, len(r.s.logs))
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		cp := *r.s.logs[i]
		result = append(result, &cp)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
