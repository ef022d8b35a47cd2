package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()

	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	return metric.GetGauge().GetValue()
}

func TestLendingMetrics_LoanCounters(t *testing.T) {
	m := newLendingMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordLoanCreated()
	m.RecordLoanCreated()
	m.RecordLoanReturned()
	m.RecordLoanDeleted()

	if got := counterValue(t, m.loansCreated); got != 2 {
		t.Fatalf("loans created = %f, want 2", got)
	}
	if got := counterValue(t, m.loansReturned); got != 1 {
		t.Fatalf("loans returned = %f, want 1", got)
	}
	if got := counterValue(t, m.loansDeleted); got != 1 {
		t.Fatalf("loans deleted = %f, want 1", got)
	}
	if got := gaugeValue(t, m.activeLoans); got != 1 {
		t.Fatalf("active loans = %f, want 1", got)
	}
}

func TestLendingMetrics_RejectionsByReason(t *testing.T) {
	m := newLendingMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordTransitionRejected("book_already_borrowed")
	m.RecordTransitionRejected("book_already_borrowed")
	m.RecordTransitionRejected("user_already_has_loan")

	borrowed, err := m.transitionsRejected.GetMetricWithLabelValues("book_already_borrowed")
	if err != nil {
		t.Fatalf("get labeled counter: %v", err)
	}
	if got := counterValue(t, borrowed); got != 2 {
		t.Fatalf("book_already_borrowed = %f, want 2", got)
	}

	busy, err := m.transitionsRejected.GetMetricWithLabelValues("user_already_has_loan")
	if err != nil {
		t.Fatalf("get labeled counter: %v", err)
	}
	if got := counterValue(t, busy); got != 1 {
		t.Fatalf("user_already_has_loan = %f, want 1", got)
	}
}

func TestLendingMetrics_OperationDuration(t *testing.T) {
	m := newLendingMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordOperationDuration("create_loan", 15*time.Millisecond)
	m.RecordOperationDuration("create_loan", 30*time.Millisecond)

	observer, err := m.operationDuration.GetMetricWithLabelValues("create_loan")
	if err != nil {
		t.Fatalf("get labeled histogram: %v", err)
	}

	var metric dto.Metric
	if err := observer.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Fatalf("sample count = %d, want 2", got)
	}
}

func TestLendingMetrics_ReuseAlreadyRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newLendingMetricsWithRegisterer(registry)
	second := newLendingMetricsWithRegisterer(registry)

	first.RecordConflictRetry()
	second.RecordConflictRetry()

	// Оба экземпляра должны разделять один зарегистрированный счётчик.
	if got := counterValue(t, second.conflictRetries); got != 2 {
		t.Fatalf("conflict retries = %f, want 2", got)
	}
}
