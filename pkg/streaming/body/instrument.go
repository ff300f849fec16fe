package body

import (
	"time"

	"github.com/vnykmshr/streambody/pkg/metrics"
)

const (
	modeSync  = "sync"
	modeAsync = "async"
)

// instrumentation is nil-safe; every method is a no-op without a registry.
type instrumentation struct {
	reg    *metrics.Registry
	mode   string
	name   string
	opened time.Time
}

func newInstrumentation(o Options, mode string) *instrumentation {
	if o.Metrics == nil {
		return nil
	}
	return &instrumentation{
		reg:    o.Metrics,
		mode:   mode,
		name:   o.Name,
		opened: time.Now(),
	}
}

func (i *instrumentation) open() {
	if i == nil {
		return
	}
	i.reg.BodiesOpened.WithLabelValues(i.mode, i.name).Inc()
	i.reg.BodiesActive.WithLabelValues(i.mode, i.name).Inc()
}

func (i *instrumentation) close() {
	if i == nil {
		return
	}
	i.reg.BodiesClosed.WithLabelValues(i.mode, i.name).Inc()
	i.reg.BodiesActive.WithLabelValues(i.mode, i.name).Dec()
	i.reg.BodyDuration.WithLabelValues(i.mode, i.name).Observe(time.Since(i.opened).Seconds())
}

func (i *instrumentation) chunk(n int) {
	if i == nil {
		return
	}
	i.reg.Chunks.WithLabelValues(i.name).Inc()
	i.reg.Bytes.WithLabelValues(i.name).Add(float64(n))
}

func (i *instrumentation) producerError() {
	if i == nil {
		return
	}
	i.reg.ProducerErrors.WithLabelValues(i.name).Inc()
}

func (i *instrumentation) iteration() {
	if i == nil {
		return
	}
	i.reg.LoopIterations.WithLabelValues(i.name).Inc()
}

func (i *instrumentation) recovered() {
	if i == nil {
		return
	}
	i.reg.RecoveredErrors.WithLabelValues(i.name).Inc()
}
