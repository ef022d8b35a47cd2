package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AndresRojas2002/library-manager/internal/domain"
)

type stubOutboxRepo struct {
	mu      sync.Mutex
	pending []domain.OutboxMessage
	sent    []string
	failed  []string
	pullErr error
}

func (r *stubOutboxRepo) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, msg)
	return msg, nil
}

func (r *stubOutboxRepo) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pullErr != nil {
		return nil, r.pullErr
	}
	if limit > len(r.pending) {
		limit = len(r.pending)
	}
	batch := make([]domain.OutboxMessage, limit)
	copy(batch, r.pending[:limit])
	r.pending = r.pending[limit:]
	return batch, nil
}

func (r *stubOutboxRepo) Stats() (domain.OutboxStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.OutboxStats{PendingCount: len(r.pending)}, nil
}

func (r *stubOutboxRepo) MarkSent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, id)
	return nil
}

func (r *stubOutboxRepo) MarkFailed(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, id)
	return nil
}

type stubPublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
	failFirst int
	failAll   bool
}

func (p *stubPublisher) Publish(event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return errors.New("broker unavailable")
	}
	if p.failFirst > 0 {
		p.failFirst--
		return errors.New("transient broker error")
	}
	p.published = append(p.published, event)
	return nil
}

func (p *stubPublisher) publishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func TestWorker_ProcessOncePublishesAndMarksSent(t *testing.T) {
	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{
		{ID: "msg-1", AggregateType: "loan", AggregateID: "loan-1", EventType: "loan.created", Payload: []byte(`{}`)},
		{ID: "msg-2", AggregateType: "loan", AggregateID: "loan-2", EventType: "loan.returned", Payload: []byte(`{}`)},
	}}
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	if publisher.publishedCount() != 2 {
		t.Fatalf("expected 2 published events, got %d", publisher.publishedCount())
	}
	if len(repo.sent) != 2 {
		t.Fatalf("expected 2 messages marked sent, got %d", len(repo.sent))
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no failed messages, got %d", len(repo.failed))
	}
}

func TestWorker_RetriesTransientFailure(t *testing.T) {
	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{
		{ID: "msg-1", EventType: "loan.created", Payload: []byte(`{}`)},
	}}
	publisher := &stubPublisher{failFirst: 2}

	worker := NewWorker(repo, publisher, WithMaxAttempts(3), WithRetryBaseDelay(time.Millisecond))
	worker.ProcessOnce(context.Background())

	if publisher.publishedCount() != 1 {
		t.Fatalf("expected publish to succeed after retries, got %d published", publisher.publishedCount())
	}
	if len(repo.sent) != 1 || repo.sent[0] != "msg-1" {
		t.Fatalf("expected msg-1 marked sent, got %v", repo.sent)
	}
}

func TestWorker_ExhaustedRetriesGoToDLQ(t *testing.T) {
	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{
		{ID: "msg-1", EventType: "loan.created", Payload: []byte(`{"loan_id":"loan-1"}`)},
	}}
	publisher := &stubPublisher{failAll: true}
	dlq := &stubPublisher{}

	worker := NewWorker(repo, publisher,
		WithMaxAttempts(2),
		WithRetryBaseDelay(0),
		WithDLQPublisher(dlq),
	)
	worker.ProcessOnce(context.Background())

	if publisher.publishedCount() != 0 {
		t.Fatalf("expected no successful publishes, got %d", publisher.publishedCount())
	}
	if dlq.publishedCount() != 1 {
		t.Fatalf("expected 1 DLQ event, got %d", dlq.publishedCount())
	}
	if len(repo.failed) != 1 || repo.failed[0] != "msg-1" {
		t.Fatalf("expected msg-1 marked failed, got %v", repo.failed)
	}
	if len(repo.sent) != 0 {
		t.Fatalf("expected no messages marked sent, got %v", repo.sent)
	}
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	repo := &stubOutboxRepo{}
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}
