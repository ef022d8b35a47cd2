package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События жизненного цикла выдачи
	EventTypeLoanCreated  EventType = "loan.created"
	EventTypeLoanReturned EventType = "loan.returned"
	EventTypeLoanDeleted  EventType = "loan.deleted"

	// События каталога
	EventTypeBookRegistered EventType = "book.registered"
	EventTypeBookRemoved    EventType = "book.removed"
	EventTypeUserRegistered EventType = "user.registered"
	EventTypeUserRemoved    EventType = "user.removed"
)

// Topics для Kafka
const (
	TopicLoanEvents      = "library.loan.events"
	TopicCatalogEvents   = "library.catalog.events"
	TopicDeadLetterQueue = "library.dlq" // Dead Letter Queue для failed messages
)

// LoanEvent представляет событие выдачи
type LoanEvent struct {
	EventType EventType              `json:"event_type"`
	LoanID    string                 `json:"loan_id"`
	BookID    string                 `json:"book_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	State     string                 `json:"state,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewLoanEvent создает новое событие выдачи
func NewLoanEvent(eventType EventType, loanID, bookID, userID, state string, metadata map[string]interface{}) *LoanEvent {
	return &LoanEvent{
		EventType: eventType,
		LoanID:    loanID,
		BookID:    bookID,
		UserID:    userID,
		State:     state,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
