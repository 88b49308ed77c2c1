package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/horn/pkg/horn/rule"
)

// MetricsObserver exports pipeline timings and mutation outcomes.
type MetricsObserver struct {
	stageSeconds *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
}

// NewMetricsObserver registers its collectors on reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "horn",
			Subsystem: "rule",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each mutation pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"stage"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "horn",
			Subsystem: "rule",
			Name:      "mutations_total",
			Help:      "Rule mutations by operation kind and outcome",
		}, []string{"op", "status"}),
	}
	for _, c := range []prometheus.Collector{o.stageSeconds, o.mutations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *MetricsObserver) StageDone(stage rule.Stage, elapsed time.Duration) {
	o.stageSeconds.WithLabelValues(stage.String()).Observe(elapsed.Seconds())
}

func (o *MetricsObserver) Updated(kind rule.OpKind, status rule.Status) {
	o.mutations.WithLabelValues(kind.String(), status.String()).Inc()
}
