package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	mu    sync.Mutex
	runs  int
	fails bool
}

func (s *countingSweeper) Sweep(context.Context) (*entity.SweepSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if s.fails {
		return nil, errors.New("database is down")
	}
	return &entity.SweepSummary{ReleasedCount: 1}, nil
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func TestSweepWorkerRunsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{}
	w := NewSweepWorker(sweeper, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sweeper.count() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSweepWorkerSurvivesErrors(t *testing.T) {
	sweeper := &countingSweeper{fails: true}
	w := NewSweepWorker(sweeper, time.Minute)

	w.runOnce(context.Background())
	w.runOnce(context.Background())
	assert.Equal(t, 2, sweeper.count())
}

type fakeSender struct {
	err      error
	chatID   string
	messages []string
}

func (s *fakeSender) SendMessage(_ context.Context, chatID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.chatID = chatID
	s.messages = append(s.messages, text)
	return nil
}

type fakeConsumer struct {
	messages [][]byte
	errs     []error
}

func (c *fakeConsumer) Consume(_ context.Context, handler func([]byte) error) error {
	for _, m := range c.messages {
		c.errs = append(c.errs, handler(m))
	}
	return nil
}

func TestNotificationWorkerForwardsMessages(t *testing.T) {
	payload, err := json.Marshal(&entity.SettlementNotification{
		CampaignID:    "c1",
		OrderID:       "o1",
		Outcome:       entity.OutcomeApproved,
		Provider:      entity.ProviderCheckout,
		TicketNumbers: []int{3, 7},
	})
	require.NoError(t, err)

	sender := &fakeSender{}
	consumer := &fakeConsumer{messages: [][]byte{payload, []byte("garbage")}}
	w := NewNotificationWorker(consumer, sender, "-100500")

	require.NoError(t, w.Start(context.Background()))
	assert.Equal(t, []error{nil, nil}, consumer.errs)
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "-100500", sender.chatID)
	assert.Equal(t, "Campaign c1: tickets 3, 7 purchased (order o1, via checkout)", sender.messages[0])
}

func TestNotificationWorkerRequeuesOnSendFailure(t *testing.T) {
	payload, err := json.Marshal(&entity.SettlementNotification{OrderID: "o1", Outcome: entity.OutcomeRejected})
	require.NoError(t, err)

	w := NewNotificationWorker(&fakeConsumer{}, &fakeSender{err: errors.New("telegram down")}, "1")
	assert.Error(t, w.handle(context.Background(), payload))
}
