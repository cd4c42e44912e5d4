package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	scanResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_scans_total",
			Help: "Check-in scan verdicts per event",
		},
		[]string{"event_id", "result"},
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_scan_duration_seconds",
			Help:    "Duration of a scan validation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"event_id"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued per event",
		},
		[]string{"event_id"},
	)

	capacityRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capacity_rejections_total",
			Help: "Registrations rejected on capacity grounds",
		},
		[]string{"reason"},
	)

	activeScannerSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_scanner_sessions_total",
			Help: "Currently live scanner sessions",
		},
	)
)

// TrackScan records one scan verdict and its duration.
func TrackScan(eventID, result string, took time.Duration) {
	scanResults.WithLabelValues(eventID, result).Inc()
	scanDuration.WithLabelValues(eventID).Observe(took.Seconds())
}

// TrackIssued records one issued ticket.
func TrackIssued(eventID string) {
	ticketsIssued.WithLabelValues(eventID).Inc()
}

// TrackCapacityRejection records a sold-out or event-full rejection.
func TrackCapacityRejection(reason string) {
	capacityRejections.WithLabelValues(reason).Inc()
}

// Monitor periodically samples gauge-style metrics out of redis.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}
	go monitor.collectMetrics()
	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		m.collectSessionMetrics(ctx)
	}
}

func (m *Monitor) collectSessionMetrics(ctx context.Context) {
	keys, err := m.redis.Keys(ctx, "scanner:session:*").Result()
	if err != nil {
		return
	}
	activeScannerSessions.Set(float64(len(keys)))
}
