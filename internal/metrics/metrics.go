// Package metrics holds the Prometheus collectors for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "borrelio_ws_connections",
			Help: "Current number of registered websocket connections.",
		},
	)
	rooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "borrelio_rooms",
			Help: "Current number of live rooms.",
		},
	)
	participants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "borrelio_participants",
			Help: "Current number of participants across all rooms.",
		},
	)
	eventsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "borrelio_events_delivered_total",
			Help: "Total events queued for delivery to clients.",
		},
	)
	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "borrelio_events_dropped_total",
			Help: "Total events dropped because a client queue was full.",
		},
	)
	joins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrelio_joins_total",
			Help: "Join attempts by resulting role.",
		},
		[]string{"role"},
	)
	signalsRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrelio_signals_relayed_total",
			Help: "Signaling messages relayed by kind.",
		},
		[]string{"kind"},
	)
	staleCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrelio_stale_commands_total",
			Help: "Commands dropped because the room or participant was gone.",
		},
		[]string{"kind"},
	)
	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "borrelio_rate_limited_total",
			Help: "Inbound messages rejected by the per-connection rate limit.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		wsConnections,
		rooms,
		participants,
		eventsDelivered,
		eventsDropped,
		joins,
		signalsRelayed,
		staleCommands,
		rateLimited,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncConnections() {
	wsConnections.Inc()
}

func DecConnections() {
	wsConnections.Dec()
}

// SetOccupancy records the live room and participant counts.
func SetOccupancy(roomCount, participantCount int) {
	rooms.Set(float64(roomCount))
	participants.Set(float64(participantCount))
}

func EventDelivered() {
	eventsDelivered.Inc()
}

func EventDropped() {
	eventsDropped.Inc()
}

func Join(role string) {
	joins.WithLabelValues(role).Inc()
}

func SignalRelayed(kind string) {
	signalsRelayed.WithLabelValues(kind).Inc()
}

func StaleCommand(kind string) {
	staleCommands.WithLabelValues(kind).Inc()
}

func RateLimited() {
	rateLimited.Inc()
}
