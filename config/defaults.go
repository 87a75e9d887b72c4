package config

import "go.vocdoni.io/reserve/merkle"

// Default values used by the service flags
const (
	DefaultLogLevel        = "info"
	DefaultLogOutput       = "stdout"
	DefaultListenHost      = "0.0.0.0"
	DefaultListenPort      = 3000
	DefaultAPIRoute        = "/api"
	DefaultProofCacheSize  = 1024
	DefaultMetricsInterval = 5
	DefaultLeafTag         = merkle.DefaultLeafTag
	DefaultBranchTag       = merkle.DefaultBranchTag
	DefaultHashType        = string(merkle.HashTypeTaggedSHA256)
	// ConfigFileName is the file name, without extension, of the config file in the data dir
	ConfigFileName = "reserve"
	// EnvPrefix is the prefix of the environment variables read by the service
	EnvPrefix = "RESERVE"
)

// Defaults returns a config with every default value set.
func Defaults() *ReserveCfg {
	c := NewConfig()
	c.LogLevel = DefaultLogLevel
	c.LogOutput = DefaultLogOutput
	c.LeafTag = DefaultLeafTag
	c.BranchTag = DefaultBranchTag
	c.HashType = DefaultHashType
	c.ProofCacheSize = DefaultProofCacheSize
	c.API.Route = DefaultAPIRoute
	c.API.ListenHost = DefaultListenHost
	c.API.ListenPort = DefaultListenPort
	c.Metrics.RefreshInterval = DefaultMetricsInterval
	return c
}
