// Package metrics exports QDMA engine and TAP counters to Prometheus.
package metrics

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/core/version"
	"github.com/en751221/qdma/netif"
	"github.com/en751221/qdma/qdma"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var logger = logging.New("metrics")

// Namespace is the metric name prefix.
const Namespace = "qdma"

// EngineSource provides engine counters.
// *qdma.Engine implements this interface.
type EngineSource interface {
	Counters() qdma.Counters
}

// TapSource provides TAP bridge counters.
// *netif.Tap implements this interface.
type TapSource interface {
	Name() string
	Counters() netif.Counters
}

type counterField struct {
	index int
	desc  *prometheus.Desc
}

// snakeCase converts a lowerCamelCase JSON key to snake_case.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func describeFields(typ reflect.Type, subsystem string, labels []string) (list []counterField) {
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if tag == "" || field.Type.Kind() != reflect.Uint64 {
			continue
		}
		list = append(list, counterField{
			index: i,
			desc: prometheus.NewDesc(prometheus.BuildFQName(Namespace, subsystem, snakeCase(tag)+"_total"),
				"Counter "+tag+".", labels, nil),
		})
	}
	return list
}

var (
	engineFields = describeFields(reflect.TypeOf(qdma.Counters{}), "engine", nil)
	tapFields    = describeFields(reflect.TypeOf(netif.Counters{}), "tap", []string{"ifname"})
	runningDesc  = prometheus.NewDesc(prometheus.BuildFQName(Namespace, "engine", "running"), "Whether the rings are up.", nil, nil)
)

// Collector is a prometheus.Collector over an engine and its TAP interfaces.
type Collector struct {
	engine EngineSource

	mu   sync.Mutex
	taps []TapSource
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector.
func NewCollector(engine EngineSource) *Collector {
	return &Collector{engine: engine}
}

// AddTap adds a TAP interface.
func (c *Collector) AddTap(tap TapSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taps = append(c.taps, tap)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, f := range engineFields {
		ch <- f.desc
	}
	for _, f := range tapFields {
		ch <- f.desc
	}
	ch <- runningDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	cnt := reflect.ValueOf(c.engine.Counters())
	for _, f := range engineFields {
		ch <- prometheus.MustNewConstMetric(f.desc, prometheus.CounterValue, float64(cnt.Field(f.index).Uint()))
	}
	if r, ok := c.engine.(interface{ Running() bool }); ok {
		v := 0.0
		if r.Running() {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(runningDesc, prometheus.GaugeValue, v)
	}

	c.mu.Lock()
	taps := append([]TapSource{}, c.taps...)
	c.mu.Unlock()
	for _, tap := range taps {
		tc := reflect.ValueOf(tap.Counters())
		for _, f := range tapFields {
			ch <- prometheus.MustNewConstMetric(f.desc, prometheus.CounterValue, float64(tc.Field(f.index).Uint()), tap.Name())
		}
	}
}

// NewRegistry creates a registry containing c and a version information gauge.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "info",
		Help:      "Version information.",
		ConstLabels: prometheus.Labels{
			"version":   version.V.String(),
			"goversion": runtime.Version(),
		},
	})
	reg.MustRegister(info)
	info.Set(1)
	return reg
}

type promLogger struct{}

func (promLogger) Println(v ...any) {
	logger.Warn("promhttp error", zap.Any("details", v))
}

// Handler returns an HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorLog: promLogger{}})
}
