package kafka

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func newMockedProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()

	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}
	return producer, mockProducer
}

func TestProducer_PublishEvent(t *testing.T) {
	producer, mockProducer := newMockedProducer(t)

	mockProducer.ExpectSendMessageAndSucceed()

	event := NewLoanEvent(
		EventTypeLoanCreated,
		"loan-123",
		"book-1",
		"user-1",
		"active",
		map[string]interface{}{"source": "test"},
	)

	if err := producer.PublishEvent(TopicLoanEvents, "loan-123", event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	producer, mockProducer := newMockedProducer(t)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewLoanEvent(EventTypeLoanReturned, "loan-123", "", "", "not_active", nil)

	if err := producer.PublishEvent(TopicLoanEvents, "loan-123", event); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_SerializesLoanEvent(t *testing.T) {
	producer, mockProducer := newMockedProducer(t)

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(raw []byte) error {
		var decoded LoanEvent
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		if decoded.EventType != EventTypeLoanDeleted {
			t.Fatalf("unexpected event type: %s", decoded.EventType)
		}
		if decoded.LoanID != "loan-42" {
			t.Fatalf("unexpected loan id: %s", decoded.LoanID)
		}
		return nil
	})

	event := NewLoanEvent(EventTypeLoanDeleted, "loan-42", "book-7", "user-9", "not_active", nil)
	if err := producer.PublishEvent(TopicLoanEvents, "loan-42", event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewLoanEvent(t *testing.T) {
	metadata := map[string]interface{}{
		"reason": "manual",
	}

	event := NewLoanEvent(EventTypeLoanCreated, "loan-1", "book-1", "user-1", "active", metadata)

	if event.EventType != EventTypeLoanCreated {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.LoanID != "loan-1" || event.BookID != "book-1" || event.UserID != "user-1" {
		t.Fatalf("unexpected identifiers: %+v", event)
	}
	if event.State != "active" {
		t.Fatalf("unexpected state: %s", event.State)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}
	if event.Metadata["reason"] != "manual" {
		t.Fatalf("unexpected metadata: %v", event.Metadata)
	}
}
