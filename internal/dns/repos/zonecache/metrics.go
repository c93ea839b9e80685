package zonecache

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "rrzones"

// Metrics holds the zone cache instrumentation.
type Metrics struct {
	ZoneLookups      *prometheus.CounterVec
	Materializations *prometheus.CounterVec
	AuthorityLookups *prometheus.CounterVec
	CachedZones      prometheus.Gauge
}

// NewMetrics creates the zone cache collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ZoneLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "zonecache",
			Name:      "zone_lookups_total",
			Help:      "Zone resolutions by outcome (hit, materialized, miss).",
		}, []string{"result"}),
		Materializations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "zonecache",
			Name:      "materializations_total",
			Help:      "Zones built from the backing store, by outcome (ok, empty, error).",
		}, []string{"result"}),
		AuthorityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "zonecache",
			Name:      "authority_lookups_total",
			Help:      "Authority resolutions by outcome (cached, resolved, not_found).",
		}, []string{"result"}),
		CachedZones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "zonecache",
			Name:      "zones",
			Help:      "Number of zones currently cached.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ZoneLookups, m.Materializations, m.AuthorityLookups, m.CachedZones)
	}
	return m
}
