package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	psload "github.com/shirou/gopsutil/load"
	psmem "github.com/shirou/gopsutil/mem"
	psnet "github.com/shirou/gopsutil/net"
	"go.vocdoni.io/reserve/log"
)

const (
	healthMemMax   = 100
	healthLoadMax  = 10
	healthSocksMax = 10000
)

var (
	hostHealth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reserve",
		Name:      "host_health",
		Help:      "Host health score between 0 and 99, bigger is better",
	})
	hostMemUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reserve",
		Name:      "host_mem_used_percent",
		Help:      "Percentage of the host virtual memory in use",
	})
	hostLoad15 = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reserve",
		Name:      "host_load15",
		Help:      "Host load average over the last 15 minutes",
	})
	hostTCPSockets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "reserve",
		Name:      "host_tcp_sockets",
		Help:      "Number of TCP sockets open on the host",
	})

	registerHealthOnce sync.Once
)

// HostHealth is a sample of the host resources.
type HostHealth struct {
	MemUsedPercent float64
	Load15         float64
	TCPSockets     int
}

// SampleHostHealth reads the memory usage, the 15 minutes load average and
// the number of TCP sockets of the host.
func SampleHostHealth() (*HostHealth, error) {
	v, err := psmem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	l, err := psload.Avg()
	if err != nil {
		return nil, err
	}
	n, err := psnet.Connections("tcp")
	if err != nil {
		return nil, err
	}
	return &HostHealth{MemUsedPercent: v.UsedPercent, Load15: l.Load15, TCPSockets: len(n)}, nil
}

// Score is 100*(1 - sum(weight*value/max)) with equal weights, truncated to
// a number between 0 and 99. Values over their maximum count as the maximum.
func (h *HostHealth) Score() int32 {
	mem := capAt(h.MemUsedPercent, healthMemMax)
	load := capAt(h.Load15, healthLoadMax)
	socks := capAt(float64(h.TCPSockets), healthSocksMax)
	score := int32((1 - (0.33*(mem/healthMemMax) +
		0.33*(load/healthLoadMax) +
		0.33*(socks/healthSocksMax))) * 100)
	if score < 0 {
		return 0
	}
	if score > 99 {
		return 99
	}
	return score
}

// CollectHostHealth samples the host every RefreshInterval into the
// reserve_host_* gauges.
func (a *Agent) CollectHostHealth() {
	registerHealthOnce.Do(func() {
		Register(hostHealth)
		Register(hostMemUsed)
		Register(hostLoad15)
		Register(hostTCPSockets)
	})
	a.Collect(func() {
		h, err := SampleHostHealth()
		if err != nil {
			log.Warnf("cannot sample host health: %v", err)
			return
		}
		h.set()
	})
}

func (h *HostHealth) set() {
	hostHealth.Set(float64(h.Score()))
	hostMemUsed.Set(h.MemUsedPercent)
	hostLoad15.Set(h.Load15)
	hostTCPSockets.Set(float64(h.TCPSockets))
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
