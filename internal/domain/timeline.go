package domain

import "time"

// Типы событий, попадающих в хронику выдачи.
const (
	TimelineLoanCreated  = "LoanCreated"
	TimelineLoanReturned = "LoanReturned"
	TimelineLoanDeleted  = "LoanDeleted"
)

// TimelineEvent — одна запись в хронике жизненного цикла выдачи.
// Reason заполняется только для событий, вызванных отказом или ошибкой.
type TimelineEvent struct {
	LoanID   string
	Type     string
	Reason   string
	Occurred time.Time
}

// NewTimelineEvent собирает событие хроники; нулевое время означает «сейчас».
func NewTimelineEvent(loanID, eventType string, occurred time.Time) TimelineEvent {
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return TimelineEvent{
		LoanID:   loanID,
		Type:     eventType,
		Occurred: occurred,
	}
}
