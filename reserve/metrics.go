package reserve

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.vocdoni.io/reserve/metrics"
)

var (
	proofsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reserve",
		Name:      "proofs_generated_total",
		Help:      "Number of inclusion proofs served",
	})
	proofCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reserve",
		Name:      "proof_cache_hits_total",
		Help:      "Number of proofs served from the cache",
	})
	verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reserve",
		Name:      "verifications_total",
		Help:      "Number of proof verifications by result",
	}, []string{"result"})
	commits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reserve",
		Name:      "commits_total",
		Help:      "Number of commitments built",
	})
	accounts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reserve",
		Name:      "accounts",
		Help:      "Number of accounts in the current commitment",
	})
	commitmentAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reserve",
		Name:      "commitment_age_seconds",
		Help:      "Seconds since the current commitment was built",
	})

	registerOnce sync.Once
)

const (
	resultValid     = "valid"
	resultInvalid   = "invalid"
	resultMalformed = "malformed"
)

func registerMetrics() {
	registerOnce.Do(func() {
		metrics.Register(proofsGenerated)
		metrics.Register(proofCacheHits)
		metrics.Register(verifications)
		metrics.Register(commits)
		metrics.Register(accounts)
		metrics.Register(commitmentAge)
	})
}

// UpdateMetrics samples the gauges that depend on the current time.
func (r *Reserve) UpdateMetrics() {
	commitmentAge.Set(time.Since(r.Current().CreatedAt).Seconds())
}
