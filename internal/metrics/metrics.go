package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It covers the REST API, calls to the number provider, order transitions,
// the database, the stats cache, the client auto-buy loop and the Telegram bot.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec   // Counter for served API requests
	ProviderRequests  *prometheus.CounterVec   // Counter for provider calls by action and result
	ProviderDuration  *prometheus.HistogramVec // Histogram for provider call durations
	OrderTransitions  *prometheus.CounterVec   // Counter for order status changes
	DBQueryDuration   *prometheus.HistogramVec // Histogram for database query durations
	CacheOps          *prometheus.CounterVec   // Counter for stats cache operations
	AutoBuyAttempts   *prometheus.CounterVec   // Counter for auto-buy attempts by outcome
	ReportGeneration  *prometheus.HistogramVec // Histogram for xlsx export durations
	CommandReceived   *prometheus.CounterVec   // Counter for received bot commands
	SentMessages      *prometheus.CounterVec   // Counter for sent bot messages
	ActiveBotSessions prometheus.Gauge         // Gauge for logged in bot chats
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "numera_http_requests_total",
			Help: "Total number of served API requests.",
		}, []string{"method", "route", "code"}),
		ProviderRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "numera_provider_requests_total",
			Help: "Total number of calls to the number provider.",
		}, []string{"action", "result"}), // action: getNumber, getStatus, setStatus
		ProviderDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "numera_provider_request_duration_seconds",
			Help:    "Duration of calls to the number provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		OrderTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "numera_order_transitions_total",
			Help: "Order status transitions.",
		}, []string{"from", "to"}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "numera_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}),
		CacheOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "numera_cache_operations_total",
			Help: "Stats cache operations.",
		}, []string{"operation", "result"}), // operation: get, set, invalidate
		AutoBuyAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "numera_autobuy_attempts_total",
			Help: "Auto-buy attempts by outcome.",
		}, []string{"outcome"}), // outcome: acquired, no_numbers, failed
		ReportGeneration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "numera_report_generation_duration_seconds",
			Help: "Duration of report excel generation.",
		}, []string{"period"}),
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "numera_bot_commands_received_total",
			Help: "Total number of used bot commands",
		}, []string{"command"}),
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "numera_bot_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, error, notify
		ActiveBotSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "numera_bot_sessions_active",
			Help: "Number of logged in bot chats.",
		}),
	}
}
