package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики операций с заказами.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	itemsPerOrder  prometheus.Histogram
	createDuration prometheus.Histogram

	validations   *prometheus.CounterVec
	storeFailures *prometheus.CounterVec

	outboxEnqueued prometheus.Counter
}

// NewOrderMetrics регистрирует метрики заказов в registerer.
// nil означает prometheus.DefaultRegisterer.
func NewOrderMetrics(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "breaktime_orders_created_total",
			Help: "Total number of orders created",
		}),
		itemsPerOrder: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "breaktime_order_items_total",
			Help:    "Sum of item quantities per created order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50},
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "breaktime_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		validations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "breaktime_order_state_validations_total",
			Help: "Total number of cart state validations by result",
		}, []string{"result"}),
		storeFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "breaktime_store_failures_total",
			Help: "Total number of order store failures by operation",
		}, []string{"operation"}),
		outboxEnqueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "breaktime_outbox_enqueued_total",
			Help: "Total number of order events written to the outbox",
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

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated учитывает созданный заказ и сумму количеств его позиций.
func (m *OrderMetrics) RecordOrderCreated(totalItems int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	m.itemsPerOrder.Observe(float64(totalItems))
	m.createDuration.Observe(duration.Seconds())
}

// RecordValidation учитывает результат проверки корзины.
func (m *OrderMetrics) RecordValidation(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.validations.WithLabelValues(result).Inc()
}

// RecordStoreFailure учитывает отказ хранилища для операции op.
func (m *OrderMetrics) RecordStoreFailure(op string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(op).Inc()
}

// RecordOutboxEnqueued увеличивает счётчик событий, записанных в outbox.
func (m *OrderMetrics) RecordOutboxEnqueued() {
	if m == nil {
		return
	}
	m.outboxEnqueued.Inc()
}
