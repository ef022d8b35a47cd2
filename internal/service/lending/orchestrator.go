package lending

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/AndresRojas2002/library-manager/internal/domain"
	"github.com/AndresRojas2002/library-manager/internal/messaging/kafka"
	"github.com/AndresRojas2002/library-manager/internal/metrics"
)

// Orchestrator описывает переходы машины состояний выдач.
// Каждая запись (CreateLoan, ReturnLoan) выполняется как одна атомарная
// единица "прочитать → проверить → вычислить → сохранить"; при отказе
// машины состояний не выполняется ни одной записи.
type Orchestrator interface {
	CreateLoan(userID, bookID string) (domain.Loan, error)
	ReturnLoan(loanID string) (domain.Loan, error)
	DeleteLoan(loanID string) error
	GetLoan(id string) (domain.Loan, error)
	ListLoans(limit int) ([]domain.Loan, error)
}

// orchestrator реализует последовательность "fetch → validate → mutate → persist".
type orchestrator struct {
	books         domain.BookRepository
	users         domain.UserRepository
	loans         domain.LoanRepository
	store         domain.AtomicStore
	outbox        domain.OutboxRepository
	timeline      domain.TimelineRepository
	logger        *log.Entry
	metrics       *metrics.LendingMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer для event-driven архитектуры
}

const (
	// Конфликт версий перепроверяется с самого начала: свежие записи,
	// свежие предусловия. Ограниченное число попыток, дальше — ошибка вызывающему.
	maxConflictRetries = 3
	conflictBaseDelay  = 10 * time.Millisecond
)

// Deps перечисляет зависимости оркестратора.
type Deps struct {
	Books    domain.BookRepository
	Users    domain.UserRepository
	Loans    domain.LoanRepository
	Store    domain.AtomicStore
	Outbox   domain.OutboxRepository
	Timeline domain.TimelineRepository
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(deps Deps, logger *log.Entry) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "lending")
	}
	return &orchestrator{
		books:    deps.Books,
		users:    deps.Users,
		loans:    deps.Loans,
		store:    deps.Store,
		outbox:   deps.Outbox,
		timeline: deps.Timeline,
		logger:   logger,
		metrics:  metrics.NewLendingMetrics(),
	}
}

// NewOrchestratorWithKafka создаёт оркестратор с Kafka producer для event-driven архитектуры.
func NewOrchestratorWithKafka(deps Deps, kafkaProducer *kafka.Producer, logger *log.Entry) Orchestrator {
	o := NewOrchestrator(deps, logger).(*orchestrator)
	o.kafkaProducer = kafkaProducer
	return o
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(deps Deps, logger *log.Entry) Orchestrator {
	o := NewOrchestrator(deps, logger).(*orchestrator)
	o.metrics = nil // Отключаем метрики для тестов
	return o
}

// CreateLoan выдаёт книгу bookID читателю userID и возвращает созданную выдачу.
// До первой записи проверяются оба предусловия; при отказе ни одна запись не меняется.
func (o *orchestrator) CreateLoan(userID, bookID string) (domain.Loan, error) {
	start := time.Now()
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordOperationDuration("create", time.Since(start))
		}
	}()

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		user, err := o.users.Get(userID)
		if err != nil {
			o.logger.WithError(err).WithField("user_id", userID).Warn("user lookup failed for loan")
			return domain.Loan{}, err
		}
		book, err := o.books.Get(bookID)
		if err != nil {
			o.logger.WithError(err).WithField("book_id", bookID).Warn("book lookup failed for loan")
			return domain.Loan{}, err
		}

		if err := domain.CanCreateLoan(book, user); err != nil {
			o.rejectTransition(err, log.Fields{"book_id": bookID, "user_id": userID})
			return domain.Loan{}, err
		}

		now := time.Now().UTC()
		newBook, newUser, loan := domain.ApplyCreate(book, user, now)
		loan.ID = uuid.NewString()

		err = o.store.SaveAtomic(domain.ChangeSet{Book: &newBook, User: &newUser, Loan: &loan})
		if domain.IsVersionConflict(err) {
			if o.retryConflict(attempt, log.Fields{"book_id": bookID, "user_id": userID}) {
				continue
			}
			return domain.Loan{}, err
		}
		if err != nil {
			o.logger.WithError(err).WithFields(log.Fields{
				"book_id": bookID,
				"user_id": userID,
			}).Error("failed to persist loan creation")
			return domain.Loan{}, fmt.Errorf("persist loan creation: %w", err)
		}

		if o.metrics != nil {
			o.metrics.RecordLoanCreated()
		}
		o.emitEvent(loan, domain.TimelineLoanCreated, map[string]interface{}{
			"book_id":   loan.BookID,
			"user_id":   loan.UserID,
			"loan_date": loan.LoanDate.Format(time.RFC3339Nano),
			"ts":        now.Format(time.RFC3339Nano),
		})
		o.publishLoanEvent(kafka.EventTypeLoanCreated, loan)
		o.logger.WithFields(log.Fields{
			"loan_id": loan.ID,
			"book_id": loan.BookID,
			"user_id": loan.UserID,
		}).Info("loan created")
		return loan, nil
	}

	return domain.Loan{}, domain.ErrVersionConflict
}

// ReturnLoan закрывает выдачу loanID и возвращает её обновлённую запись.
func (o *orchestrator) ReturnLoan(loanID string) (domain.Loan, error) {
	start := time.Now()
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordOperationDuration("return", time.Since(start))
		}
	}()

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		loan, err := o.loans.Get(loanID)
		if err != nil {
			o.logger.WithError(err).WithField("loan_id", loanID).Warn("loan lookup failed for return")
			return domain.Loan{}, err
		}

		if err := domain.CanReturnLoan(loan); err != nil {
			o.rejectTransition(err, log.Fields{"loan_id": loanID})
			return domain.Loan{}, err
		}

		// Ссылки выдачи обязаны разрешаться: их отсутствие означает
		// рассогласованное хранилище, а не бизнес-отказ.
		book, err := o.books.Get(loan.BookID)
		if err != nil {
			o.logger.WithError(err).WithField("loan_id", loanID).Error("loan references missing book")
			return domain.Loan{}, fmt.Errorf("resolve loan book %s: %w", loan.BookID, err)
		}
		user, err := o.users.Get(loan.UserID)
		if err != nil {
			o.logger.WithError(err).WithField("loan_id", loanID).Error("loan references missing user")
			return domain.Loan{}, fmt.Errorf("resolve loan user %s: %w", loan.UserID, err)
		}

		now := time.Now().UTC()
		newLoan, newBook, newUser := domain.ApplyReturn(loan, book, user, now)

		err = o.store.SaveAtomic(domain.ChangeSet{Book: &newBook, User: &newUser, Loan: &newLoan})
		if domain.IsVersionConflict(err) {
			if o.retryConflict(attempt, log.Fields{"loan_id": loanID}) {
				continue
			}
			return domain.Loan{}, err
		}
		if err != nil {
			o.logger.WithError(err).WithField("loan_id", loanID).Error("failed to persist loan return")
			return domain.Loan{}, fmt.Errorf("persist loan return: %w", err)
		}

		newLoan.Version++
		if o.metrics != nil {
			o.metrics.RecordLoanReturned()
		}
		o.emitEvent(newLoan, domain.TimelineLoanReturned, map[string]interface{}{
			"book_id": newLoan.BookID,
			"user_id": newLoan.UserID,
			"ts":      now.Format(time.RFC3339Nano),
		})
		o.publishLoanEvent(kafka.EventTypeLoanReturned, newLoan)
		o.logger.WithField("loan_id", newLoan.ID).Info("loan returned")
		return newLoan, nil
	}

	return domain.Loan{}, domain.ErrVersionConflict
}

// DeleteLoan удаляет запись выдачи независимо от состояния.
// Состояния книги и читателя не меняются: это административная коррекция.
func (o *orchestrator) DeleteLoan(loanID string) error {
	loan, err := o.loans.Get(loanID)
	if err != nil {
		return err
	}
	if err := o.loans.Delete(loanID); err != nil {
		return err
	}

	if o.metrics != nil {
		o.metrics.RecordLoanDeleted()
	}
	o.emitEvent(loan, domain.TimelineLoanDeleted, map[string]interface{}{
		"state": string(loan.State),
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	o.publishLoanEvent(kafka.EventTypeLoanDeleted, loan)
	o.logger.WithField("loan_id", loanID).Info("loan deleted")
	return nil
}

// GetLoan возвращает выдачу по идентификатору.
func (o *orchestrator) GetLoan(id string) (domain.Loan, error) {
	return o.loans.Get(id)
}

// ListLoans возвращает выдачи, ограничивая выборку limit (если >0).
func (o *orchestrator) ListLoans(limit int) ([]domain.Loan, error) {
	return o.loans.List(limit)
}

// rejectTransition логирует отказ машины состояний и обновляет метрику.
func (o *orchestrator) rejectTransition(cause error, fields log.Fields) {
	o.logger.WithError(cause).WithFields(fields).Warn("transition rejected")
	if o.metrics != nil {
		o.metrics.RecordTransitionRejected(rejectionReason(cause))
	}
}

// retryConflict решает, допустим ли ещё один заход после конфликта версий.
func (o *orchestrator) retryConflict(attempt int, fields log.Fields) bool {
	if attempt >= maxConflictRetries-1 {
		return false
	}
	if o.metrics != nil {
		o.metrics.RecordConflictRetry()
	}
	o.logger.WithFields(fields).WithField("attempt", attempt+1).Warn("version conflict detected, retrying")

	// Exponential backoff
	time.Sleep(conflictBaseDelay * time.Duration(1<<uint(attempt)))
	return true
}

func rejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case domain.IsVersionConflict(err):
		return "conflict"
	default:
		switch err {
		case domain.ErrBookAlreadyBorrowed:
			return "book_already_borrowed"
		case domain.ErrUserAlreadyHasLoan:
			return "user_already_has_loan"
		case domain.ErrLoanAlreadyReturned:
			return "loan_already_returned"
		}
		return "other"
	}
}

func (o *orchestrator) emitEvent(loan domain.Loan, eventType string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["loan_id"] = loan.ID
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"loan_id": loan.ID,
			"event":   eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "loan",
		AggregateID:   loan.ID,
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := o.outbox.Enqueue(msg); err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"loan_id": loan.ID,
			"event":   eventType,
		}).Error("enqueue event failed")
	} else if o.metrics != nil {
		o.metrics.RecordOutboxEvent()
	}

	if o.timeline != nil {
		occurred := time.Now().UTC()
		if ts, ok := payload["ts"].(string); ok {
			if parsed, parseErr := time.Parse(time.RFC3339Nano, ts); parseErr == nil {
				occurred = parsed
			}
		}
		event := domain.NewTimelineEvent(loan.ID, eventType, occurred)
		if err := o.timeline.Append(event); err != nil {
			o.logger.WithError(err).WithFields(log.Fields{
				"loan_id": loan.ID,
				"event":   eventType,
			}).Warn("append timeline event failed")
		} else if o.metrics != nil {
			o.metrics.RecordTimelineEvent()
		}
	}
}

// publishLoanEvent публикует событие выдачи в Kafka (если producer настроен)
func (o *orchestrator) publishLoanEvent(eventType kafka.EventType, loan domain.Loan) {
	if o.kafkaProducer == nil {
		return // Kafka не настроен, пропускаем
	}

	event := kafka.NewLoanEvent(eventType, loan.ID, loan.BookID, loan.UserID, string(loan.State), nil)
	if err := o.kafkaProducer.PublishEvent(kafka.TopicLoanEvents, loan.ID, event); err != nil {
		// Логируем ошибку, но не прерываем операцию - Kafka опциональный
		o.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"loan_id":    loan.ID,
		}).Warn("failed to publish loan event to kafka")
	}
}

var _ Orchestrator = (*orchestrator)(nil)
