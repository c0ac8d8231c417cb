package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isolation_searches_total",
		Help: "Completed searches, by whether a retained tree was reused.",
	}, []string{"tree"})

	searchIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "isolation_search_iterations_total",
		Help: "Select/simulate/backup iterations run across all searches.",
	})

	searchExpansions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "isolation_search_expansions_total",
		Help: "Nodes added to search trees.",
	})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "isolation_search_duration_seconds",
		Help:    "Wall-clock duration of a search.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	})

	searchTreeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "isolation_search_tree_nodes",
		Help:    "Tree size when a search completes.",
		Buckets: prometheus.ExponentialBuckets(16, 2, 12),
	})
)

type prometheusCollector struct {
	Collector
}

// NewPrometheusCollector wraps a collector and exports every completed search
// to the default Prometheus registry.
func NewPrometheusCollector(inner Collector) Collector {
	if inner == nil {
		inner = NewCollector()
	}
	return &prometheusCollector{Collector: inner}
}

func (p *prometheusCollector) AddIteration() {
	p.Collector.AddIteration()
	searchIterations.Inc()
}

func (p *prometheusCollector) AddExpansion() {
	p.Collector.AddExpansion()
	searchExpansions.Inc()
}

func (p *prometheusCollector) Complete(nodes int) SearchMetric {
	metric := p.Collector.Complete(nodes)

	tree := "fresh"
	if metric.IsTreeReuse {
		tree = "reused"
	}
	searchesTotal.WithLabelValues(tree).Inc()
	searchDuration.Observe(metric.Duration.Seconds())
	searchTreeNodes.Observe(float64(nodes))
	return metric
}
