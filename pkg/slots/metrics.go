package slots

import "github.com/prometheus/client_golang/prometheus"

// Collectors returns prometheus collectors reporting the allocator's state.
// Values are read from Stats on every scrape.
func (a *Allocator) Collectors(namespace string) []prometheus.Collector {
	gauge := func(name, help string, value func(Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live_slots",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(a.Stats()) })
	}
	counter := func(name, help string, value func(Stats) float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live_slots",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(a.Stats()) })
	}
	return []prometheus.Collector{
		gauge("high_water", "Smallest live thread id never handed out.",
			func(s Stats) float64 { return float64(s.HighWater) }),
		gauge("live", "Live thread ids currently leased.",
			func(s Stats) float64 { return float64(s.Live) }),
		gauge("free", "Released live thread ids waiting for reuse.",
			func(s Stats) float64 { return float64(s.Free) }),
		counter("acquires_total", "Live thread ids handed out.",
			func(s Stats) float64 { return float64(s.Acquires) }),
		counter("releases_total", "Live thread ids returned.",
			func(s Stats) float64 { return float64(s.Releases) }),
	}
}

// Register registers the allocator's collectors with reg.
func (a *Allocator) Register(reg prometheus.Registerer, namespace string) error {
	for _, c := range a.Collectors(namespace) {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
