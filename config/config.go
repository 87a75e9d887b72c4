package config

import (
	"fmt"

	"github.com/google/uuid"
	"go.vocdoni.io/reserve/log"
	"go.vocdoni.io/reserve/merkle"
)

// ReserveCfg stores global configs for the proof of reserve service
type ReserveCfg struct {
	// DataDir is the directory where the config file and the TLS certificates are stored
	DataDir string
	// LogLevel logging level
	LogLevel string
	// LogOutput configures the log output (stdout, stderr or filepath)
	LogOutput string
	// LogErrorFile configures a file to write errors and warnings to
	LogErrorFile string
	// SaveConfig overwrites the config file with the CLI provided flags
	SaveConfig bool
	// Dev enables the development mode (less security, internal errors are sent to clients)
	Dev bool
	// LedgerFile is the JSON file with the accounts to commit at start. Empty uses the sample accounts.
	LedgerFile string
	// LeafTag is the tag mixed into the leaf hashes
	LeafTag string
	// BranchTag is the tag mixed into the branch hashes
	BranchTag string
	// HashType is the hash function family of the tree
	HashType string
	// ProofCacheSize is the number of proofs kept in memory, zero disables the cache
	ProofCacheSize int
	// AdminToken is the bearer token (a UUID) required by the admin endpoints
	AdminToken string
	// API http(s) endpoint config
	API *APICfg
	// Metrics config options
	Metrics *MetricsCfg
}

// APICfg includes information required by the REST API
type APICfg struct {
	Route      string
	ListenHost string
	ListenPort int
	Ssl        struct {
		Domain  string
		DirCert string
	}
}

// MetricsCfg initializes the metrics config
type MetricsCfg struct {
	Enabled         bool
	RefreshInterval int
}

// NewConfig initializes the fields in the config stuct.
func NewConfig() *ReserveCfg {
	return &ReserveCfg{
		API:     new(APICfg),
		Metrics: new(MetricsCfg),
	}
}

// TreeOptions returns the hashing options of the Merkle tree.
func (c *ReserveCfg) TreeOptions() merkle.Options {
	return merkle.Options{
		HashType:  merkle.HashType(c.HashType),
		LeafTag:   c.LeafTag,
		BranchTag: c.BranchTag,
	}
}

// Validate checks the configuration values.
func (c *ReserveCfg) Validate() error {
	if !log.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LeafTag == "" || c.BranchTag == "" {
		return fmt.Errorf("leaf and branch tags cannot be empty")
	}
	if c.LeafTag == c.BranchTag {
		return fmt.Errorf("%w (%q)", merkle.ErrSameTags, c.LeafTag)
	}
	validHash := false
	for _, h := range merkle.HashTypes() {
		if merkle.HashType(c.HashType) == h {
			validHash = true
		}
	}
	if !validHash {
		return fmt.Errorf("%w: %q, valid ones: %q", merkle.ErrUnknownHashType, c.HashType, merkle.HashTypes())
	}
	if c.ProofCacheSize < 0 {
		return fmt.Errorf("proof cache size cannot be negative")
	}
	if c.AdminToken != "" {
		if _, err := uuid.Parse(c.AdminToken); err != nil {
			return fmt.Errorf("admin token must be a UUID: %w", err)
		}
	}
	if c.API == nil || c.Metrics == nil {
		return fmt.Errorf("api and metrics sections are required")
	}
	if c.API.ListenPort < 0 || c.API.ListenPort > 65535 {
		return fmt.Errorf("invalid listen port %d", c.API.ListenPort)
	}
	if len(c.API.Route) == 0 || c.API.Route[0] != '/' {
		return fmt.Errorf("api route must start with /, got %q", c.API.Route)
	}
	if c.Metrics.Enabled && c.Metrics.RefreshInterval <= 0 {
		return fmt.Errorf("metrics refresh interval must be positive")
	}
	return nil
}

// Error is used by the config parser
type Error struct {
	// Critical indicates if the error encountered is critical and the app must be stopped
	Critical bool
	// Message error message
	Message string
}
