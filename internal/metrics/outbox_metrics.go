package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты публикации события заказа.
const (
	PublishSent        = "sent"
	PublishRetry       = "retry"
	PublishFailed      = "failed"
	PublishDLQ         = "dead_lettered"
	PublishDLQFailed   = "dlq_failed"
	PublishInterrupted = "interrupted"
)

// OutboxMetrics содержит метрики доставки событий заказов в брокер.
type OutboxMetrics struct {
	publishes     *prometheus.CounterVec
	pending       prometheus.Gauge
	oldestPending prometheus.Gauge
}

// NewOutboxMetrics регистрирует метрики outbox в registerer.
// nil означает prometheus.DefaultRegisterer.
func NewOutboxMetrics(registerer prometheus.Registerer) *OutboxMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OutboxMetrics{
		publishes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "breaktime_outbox_publishes_total",
			Help: "Order event publish attempts by broker and result",
		}, []string{"broker", "result"}),
		pending: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "breaktime_outbox_pending_events",
			Help: "Order events waiting in the outbox",
		}),
		oldestPending: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "breaktime_outbox_oldest_pending_age_seconds",
			Help: "Age of the oldest pending order event",
		}),
	}
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

// RecordPublish учитывает одну попытку публикации с результатом result.
func (m *OutboxMetrics) RecordPublish(broker, result string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(broker, result).Inc()
}

// SetBacklog выставляет размер backlog и возраст самого старого события.
func (m *OutboxMetrics) SetBacklog(pending int, oldestAge time.Duration) {
	if m == nil {
		return
	}
	if oldestAge < 0 || pending == 0 {
		oldestAge = 0
	}
	m.pending.Set(float64(pending))
	m.oldestPending.Set(oldestAge.Seconds())
}
