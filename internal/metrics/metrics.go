// Package metrics holds the domain Prometheus collectors. HTTP request metrics
// live in the middleware package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	mediaUploads  *prometheus.CounterVec
	mediaDeletes  *prometheus.CounterVec
	contentWrites *prometheus.CounterVec
	contentPruned *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	authLogins    *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		mediaUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Media files uploaded by backend and outcome.",
		}, []string{"driver", "status"}),
		mediaDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_deletes_total",
			Help: "Media files destroyed by backend and outcome.",
		}, []string{"driver", "status"}),
		contentWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_writes_total",
			Help: "Content writes by kind and operation.",
		}, []string{"kind", "op"}),
		contentPruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_pruned_total",
			Help: "Records removed by retention pruning.",
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_cache_lookups_total",
			Help: "Response cache lookups by result (hit/miss/error).",
		}, []string{"result"}),
		authLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Admin login attempts by result.",
		}, []string{"result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"component"}),
	}

	for _, c := range []prometheus.Collector{
		m.mediaUploads, m.mediaDeletes, m.contentWrites, m.contentPruned,
		m.cacheLookups, m.authLogins, m.breakerState,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// MediaUpload counts one uploaded file.
func (m *Metrics) MediaUpload(driver string, err error) {
	if m == nil {
		return
	}
	m.mediaUploads.WithLabelValues(driver, status(err)).Inc()
}

// MediaDelete counts one destroyed file.
func (m *Metrics) MediaDelete(driver string, err error) {
	if m == nil {
		return
	}
	m.mediaDeletes.WithLabelValues(driver, status(err)).Inc()
}

// ContentWrite counts a create, update, patch or delete.
func (m *Metrics) ContentWrite(kind, op string) {
	if m == nil {
		return
	}
	m.contentWrites.WithLabelValues(kind, op).Inc()
}

// ContentPruned counts records removed by retention.
func (m *Metrics) ContentPruned(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.contentPruned.WithLabelValues(kind).Add(float64(n))
}

// CacheLookup records a hit, miss or error.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Login records a login attempt result such as "ok", "invalid" or "error".
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.authLogins.WithLabelValues(result).Inc()
}

// BreakerStateChange matches the gobreaker OnStateChange signature.
func (m *Metrics) BreakerStateChange(name string, _, to gobreaker.State) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(to))
}
