// Package metrics exposes Prometheus collectors for the API and the workers.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kakeibo/internal/core"
)

const namespace = "kakeibo"

// Metrics holds the collectors of one process. A nil *Metrics records
// nothing, so components can take one optionally.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	published     *prometheus.CounterVec
	consumed      *prometheus.CounterVec
	recurringRuns *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Transaction events published, by type and result.",
		}, []string{"type", "result"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Transaction events handled by the ledger worker, by type and result.",
		}, []string{"type", "result"}),
		recurringRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurring_sweeps_total",
			Help:      "Recurring template sweeps, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification logs written, by type.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.published,
		m.consumed,
		m.recurringRuns,
		m.notifications,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) EventConsumed(eventType string, err error) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(eventType, result(err)).Inc()
}

// RecurringSweep records one pass of the recurring worker.
func (m *Metrics) RecurringSweep(err error) {
	if m == nil {
		return
	}
	m.recurringRuns.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) NotificationsWritten(logs []core.NotificationLog) {
	if m == nil {
		return
	}
	for _, n := range logs {
		m.notifications.WithLabelValues(n.Type).Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type transactionPublisher interface {
	PublishTransactionCreated(ctx context.Context, actorID string, t core.Transaction) error
	PublishTransactionDeleted(ctx context.Context, actorID string, t core.Transaction) error
}

// Publisher counts the outcome of every event handed to the wrapped
// publisher.
type Publisher struct {
	next    transactionPublisher
	metrics *Metrics
}

// WrapPublisher instruments next.
func (m *Metrics) WrapPublisher(next transactionPublisher) *Publisher {
	return &Publisher{next: next, metrics: m}
}

func (p *Publisher) PublishTransactionCreated(ctx context.Context, actorID string, t core.Transaction) error {
	err := p.next.PublishTransactionCreated(ctx, actorID, t)
	p.metrics.eventPublished("transaction.created", err)
	return err
}

func (p *Publisher) PublishTransactionDeleted(ctx context.Context, actorID string, t core.Transaction) error {
	err := p.next.PublishTransactionDeleted(ctx, actorID, t)
	p.metrics.eventPublished("transaction.deleted", err)
	return err
}

func (m *Metrics) eventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(eventType, result(err)).Inc()
}
