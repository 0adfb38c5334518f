package pubsub

import "github.com/prometheus/client_golang/prometheus"

// eventBusMetricsProvider tracks publish/delivery/drop counts per event type.
type eventBusMetricsProvider struct {
	published *prometheus.CounterVec
	delivered *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

func newEventBusMetricsProvider(registry *prometheus.Registry) *eventBusMetricsProvider {
	provider := &eventBusMetricsProvider{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_pubsub_published_total",
			Help: "Number of events published to the bus, by event type.",
		}, []string{"event_type"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_pubsub_delivered_total",
			Help: "Number of events successfully delivered to a subscriber, by event type.",
		}, []string{"event_type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_pubsub_dropped_total",
			Help: "Number of events dropped due to a full queue or buffer, by event type.",
		}, []string{"event_type"}),
	}

	if registry != nil {
		registry.MustRegister(provider.published, provider.delivered, provider.dropped)
	}

	return provider
}

func (p *eventBusMetricsProvider) IncrementPublished(eventType string) {
	if p == nil {
		return
	}
	p.published.WithLabelValues(eventType).Inc()
}

func (p *eventBusMetricsProvider) IncrementDelivered(eventType string) {
	if p == nil {
		return
	}
	p.delivered.WithLabelValues(eventType).Inc()
}

func (p *eventBusMetricsProvider) IncrementDropped(eventType string) {
	if p == nil {
		return
	}
	p.dropped.WithLabelValues(eventType).Inc()
}
