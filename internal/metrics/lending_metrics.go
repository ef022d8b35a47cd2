package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics содержит метрики операций оркестратора выдач.
type LendingMetrics struct {
	// Счётчики операций
	loansCreated  prometheus.Counter
	loansReturned prometheus.Counter
	loansDeleted  prometheus.Counter

	// Отказы машины состояний по причинам
	transitionsRejected *prometheus.CounterVec

	// Повторы после конфликтов версий
	conflictRetries prometheus.Counter

	// Гистограмма времени выполнения операций
	operationDuration *prometheus.HistogramVec

	// Gauge активных выдач
	activeLoans prometheus.Gauge

	// Счётчики событий timeline и outbox
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
}

// NewLendingMetrics создаёт новый экземпляр метрик выдач.
func NewLendingMetrics() *LendingMetrics {
	return newLendingMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newLendingMetricsWithRegisterer(registerer prometheus.Registerer) *LendingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &LendingMetrics{
		loansCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "library_loans_created_total",
			Help: "Total number of loans created",
		}),
		loansReturned: registerCounter(registerer, prometheus.CounterOpts{
			Name: "library_loans_returned_total",
			Help: "Total number of loans returned",
		}),
		loansDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "library_loans_deleted_total",
			Help: "Total number of loans deleted administratively",
		}),
		transitionsRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "library_transitions_rejected_total",
			Help: "Total number of rejected state transitions grouped by reason",
		}, []string{"reason"}),
		conflictRetries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "library_conflict_retries_total",
			Help: "Total number of retries caused by record version conflicts",
		}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "library_lending_operation_duration_seconds",
			Help:    "Duration of lending operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		activeLoans: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "library_active_loans",
			Help: "Number of currently active loans",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "library_timeline_events_total",
			Help: "Total number of loan timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "library_outbox_events_total",
			Help: "Total number of loan events enqueued to the outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordLoanCreated увеличивает счётчик созданных выдач и gauge активных.
func (m *LendingMetrics) RecordLoanCreated() {
	m.loansCreated.Inc()
	m.activeLoans.Inc()
}

// RecordLoanReturned увеличивает счётчик возвратов и уменьшает gauge активных.
func (m *LendingMetrics) RecordLoanReturned() {
	m.loansReturned.Inc()
	m.activeLoans.Dec()
}

// RecordLoanDeleted увеличивает счётчик административных удалений.
func (m *LendingMetrics) RecordLoanDeleted() {
	m.loansDeleted.Inc()
}

// RecordTransitionRejected увеличивает счётчик отказов по причине.
func (m *LendingMetrics) RecordTransitionRejected(reason string) {
	m.transitionsRejected.WithLabelValues(reason).Inc()
}

// RecordConflictRetry увеличивает счётчик повторов после конфликта версий.
func (m *LendingMetrics) RecordConflictRetry() {
	m.conflictRetries.Inc()
}

// RecordOperationDuration записывает время выполнения операции оркестратора.
func (m *LendingMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *LendingMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *LendingMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
