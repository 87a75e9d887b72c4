package config

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/reserve/merkle"
)

func TestValidate(t *testing.T) {
	c := qt.New(t)
	c.Assert(Defaults().Validate(), qt.IsNil)
	c.Assert(Defaults().TreeOptions(), qt.DeepEquals, merkle.Options{
		HashType:  merkle.HashTypeTaggedSHA256,
		LeafTag:   "ProofOfReserve_Leaf",
		BranchTag: "ProofOfReserve_Branch",
	})

	for _, tc := range []struct {
		name   string
		modify func(*ReserveCfg)
		want   string
	}{
		{"logLevel", func(cfg *ReserveCfg) { cfg.LogLevel = "verbose" }, `invalid log level "verbose"`},
		{"sameTags", func(cfg *ReserveCfg) { cfg.BranchTag = cfg.LeafTag }, `leaf and branch tags must differ.*`},
		{"emptyTag", func(cfg *ReserveCfg) { cfg.LeafTag = "" }, `leaf and branch tags cannot be empty`},
		{"hashType", func(cfg *ReserveCfg) { cfg.HashType = "md5" }, `unknown hash type: "md5".*`},
		{"cacheSize", func(cfg *ReserveCfg) { cfg.ProofCacheSize = -1 }, `proof cache size cannot be negative`},
		{"port", func(cfg *ReserveCfg) { cfg.API.ListenPort = 70000 }, `invalid listen port 70000`},
		{"route", func(cfg *ReserveCfg) { cfg.API.Route = "api" }, `api route must start with /.*`},
		{"metrics", func(cfg *ReserveCfg) {
			cfg.Metrics.Enabled = true
			cfg.Metrics.RefreshInterval = 0
		}, `metrics refresh interval must be positive`},
		{"adminToken", func(cfg *ReserveCfg) { cfg.AdminToken = "secret" }, `admin token must be a UUID.*`},
		{"sections", func(cfg *ReserveCfg) { cfg.API = nil }, `api and metrics sections are required`},
	} {
		c.Run(tc.name, func(c *qt.C) {
			cfg := Defaults()
			tc.modify(cfg)
			c.Assert(cfg.Validate(), qt.ErrorMatches, tc.want)
		})
	}

	blake := Defaults()
	blake.HashType = string(merkle.HashTypeTaggedBlake2b)
	blake.AdminToken = "5b9e1c1e-2d0e-4a39-9f3c-7f8f0f6b2b0a"
	c.Assert(blake.Validate(), qt.IsNil)
}
