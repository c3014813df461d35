package executor

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hatlonely/goorm/rdb/pool"
)

type metrics struct {
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.CounterVec
}

func newMetrics(name string, registerer prometheus.Registerer, p *pool.Pool) *metrics {
	m := &metrics{
		statements: register(registerer, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_statements_total",
				Help: "Total number of executed statements",
			},
			[]string{"operation", "status"},
		)),
		duration: register(registerer, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_statement_duration_seconds",
				Help:    "Duration of statements in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		)),
		rows: register(registerer, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_rows_total",
				Help: "Rows returned by queries or affected by executions",
			},
			[]string{"operation"},
		)),
	}

	// 同名的连接池指标读取最近一次创建的执行器所用的连接池
	register(registerer, newPoolCollector(name)).bind(p)

	return m
}

// register 同名指标已经注册时复用已有的 collector
func register[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) observe(operation string, seconds float64, rows int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.statements.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(seconds)
	if rows > 0 {
		m.rows.WithLabelValues(operation).Add(float64(rows))
	}
}

// poolCollector 按 state 标签导出连接池的连接数，采集时读取当前绑定的连接池
type poolCollector struct {
	desc *prometheus.Desc
	pool atomic.Pointer[pool.Pool]
}

func newPoolCollector(name string) *poolCollector {
	return &poolCollector{
		desc: prometheus.NewDesc(name+"_pool_connections", "Connections in the pool by state", []string{"state"}, nil),
	}
}

func (c *poolCollector) bind(p *pool.Pool) *poolCollector {
	c.pool.Store(p)
	return c
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	p := c.pool.Load()
	if p == nil {
		return
	}
	stat := p.Stat()
	for state, v := range map[string]int32{
		"total":    stat.Total,
		"idle":     stat.Idle,
		"acquired": stat.Acquired,
		"max":      stat.Max,
	} {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(v), state)
	}
}
