package prometheus

import "github.com/prometheus/client_golang/prometheus"

// Monitor represents a Prometheus monitor
// It contains Prometheus registry and all available metrics
type Monitor struct {
	Registry *prometheus.Registry

	FetchTotal    *prometheus.CounterVec
	PublishTotal  *prometheus.CounterVec
	MenuDays      *prometheus.GaugeVec
	TodayCourses  *prometheus.GaugeVec
	LastUpdate    *prometheus.GaugeVec
	CycleDuration prometheus.Histogram
	CyclesTotal   prometheus.Counter
}

// New creates a new Monitor
func New() *Monitor {
	reg := prometheus.NewRegistry()
	monitor := &Monitor{
		Registry: reg,

		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menu_fetch_total",
			Help: "Menu fetches by source and result",
		}, []string{"source", "result"}),

		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menu_publish_total",
			Help: "Sensor updates sent to Home Assistant by source and result",
		}, []string{"source", "result"}),

		MenuDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "menu_days",
			Help: "Number of days with courses in the last fetched menu",
		}, []string{"source"}),

		TodayCourses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "menu_today_courses",
			Help: "Number of courses served today",
		}, []string{"source"}),

		LastUpdate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "menu_last_update",
			Help: "Unix time of the last successful update",
		}, []string{"source"}),

		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "menu_cycle_duration_seconds",
			Help:    "Duration of one update cycle over all sources",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),

		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menu_cycles_total",
			Help: "Number of finished update cycles",
		}),
	}

	reg.MustRegister(
		monitor.FetchTotal,
		monitor.PublishTotal,
		monitor.MenuDays,
		monitor.TodayCourses,
		monitor.LastUpdate,
		monitor.CycleDuration,
		monitor.CyclesTotal,
	)

	return monitor
}
