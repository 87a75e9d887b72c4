package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/log"
)

// Agent struct with options
type Agent struct {
	Path            string
	RefreshInterval time.Duration

	stop chan struct{}
}

// NewAgent exposes the prometheus registry on the router at path.
func NewAgent(path string, interval time.Duration, router *httprouter.HTTProuter) *Agent {
	router.ExposePrometheusEndpoint(path)
	return &Agent{Path: path, RefreshInterval: interval, stop: make(chan struct{})}
}

// Collect calls fn every RefreshInterval until Stop is called. It is meant
// for gauges that are sampled rather than updated in place.
func (a *Agent) Collect(fn func()) {
	if a.RefreshInterval <= 0 {
		log.Warnf("metrics refresh interval is %s, not collecting", a.RefreshInterval)
		return
	}
	go func() {
		ticker := time.NewTicker(a.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-a.stop:
				return
			}
		}
	}()
}

// Stop ends every Collect loop.
func (a *Agent) Stop() {
	close(a.stop)
}

// Register the provided prometheus collector, ignoring any error returned (simply logs a Warn)
func Register(c prometheus.Collector) {
	err := prometheus.Register(c)
	if err != nil {
		log.Warnf("cannot register metrics: (%s) (%+v)", err, c)
	}
}
