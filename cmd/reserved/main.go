package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.vocdoni.io/reserve/api"
	"go.vocdoni.io/reserve/config"
	"go.vocdoni.io/reserve/httprouter"
	"go.vocdoni.io/reserve/internal"
	"go.vocdoni.io/reserve/ledger"
	"go.vocdoni.io/reserve/log"
	"go.vocdoni.io/reserve/merkle"
	"go.vocdoni.io/reserve/metrics"
	"go.vocdoni.io/reserve/reserve"
)

func newConfig() (*config.ReserveCfg, config.Error) {
	var err error
	var cfgError config.Error
	globalCfg := config.NewConfig()
	home, err := os.UserHomeDir()
	if err != nil {
		cfgError = config.Error{
			Critical: true,
			Message:  fmt.Sprintf("cannot get user home directory with error: %s", err),
		}
		return nil, cfgError
	}

	// CLI flags have preference over the config file
	// Booleans should be passed to the CLI as: var=True/false

	// global
	flag.StringVarP(&globalCfg.DataDir, "dataDir", "d", filepath.Join(home, ".reserve"),
		"directory where the config file and TLS certificates are stored")
	flag.BoolVar(&globalCfg.Dev, "dev", false,
		"use developer mode (internal errors are sent to the clients)")
	flag.StringP("logLevel", "l", config.DefaultLogLevel,
		"log level (debug, info, warn, error, fatal)")
	flag.String("logOutput", config.DefaultLogOutput,
		"log output (stdout, stderr or filepath)")
	flag.String("logErrorFile", "",
		"log errors and warnings to a file")
	flag.Bool("saveConfig", false,
		"overwrite an existing config file with the provided CLI flags")
	// reserve
	flag.String("ledgerFile", "",
		`JSON file with the accounts to commit, such as [{"id":1,"balance":100}] (empty uses the sample accounts)`)
	flag.String("leafTag", config.DefaultLeafTag, "tag mixed into the leaf hashes")
	flag.String("branchTag", config.DefaultBranchTag, "tag mixed into the branch hashes")
	flag.String("hashType", config.DefaultHashType,
		fmt.Sprintf("hash function family of the tree %q", merkle.HashTypes()))
	flag.Int("proofCacheSize", config.DefaultProofCacheSize,
		"number of proofs kept in memory (zero disables the cache)")
	flag.String("adminToken", "",
		"bearer token for the admin endpoints (a random one is generated if empty)")
	// api
	flag.String("apiRoute", config.DefaultAPIRoute, "REST API base route")
	flag.String("listenHost", config.DefaultListenHost, "API endpoint listen address")
	flag.IntP("listenPort", "p", config.DefaultListenPort, "API endpoint http port")
	flag.String("sslDomain", "",
		"enable TLS-secure domain with LetsEncrypt (listenPort=443 is required)")
	// metrics
	flag.Bool("metricsEnabled", false, "enable prometheus metrics")
	flag.Int("metricsRefreshInterval", config.DefaultMetricsInterval,
		"metrics refresh interval in seconds")

	flag.CommandLine.SortFlags = false
	flag.Parse()

	// setting up viper
	viper := viper.New()
	viper.SetConfigName(config.ConfigFileName)
	viper.SetConfigType("yml")
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.BindPFlag("dataDir", flag.Lookup("dataDir"))
	globalCfg.DataDir = viper.GetString("dataDir")
	viper.BindPFlag("dev", flag.Lookup("dev"))
	globalCfg.Dev = viper.GetBool("dev")

	viper.AddConfigPath(globalCfg.DataDir)

	// global
	viper.BindPFlag("logLevel", flag.Lookup("logLevel"))
	viper.BindPFlag("logErrorFile", flag.Lookup("logErrorFile"))
	viper.BindPFlag("logOutput", flag.Lookup("logOutput"))
	viper.BindPFlag("saveConfig", flag.Lookup("saveConfig"))

	// reserve
	viper.BindPFlag("ledgerFile", flag.Lookup("ledgerFile"))
	viper.BindPFlag("leafTag", flag.Lookup("leafTag"))
	viper.BindPFlag("branchTag", flag.Lookup("branchTag"))
	viper.BindPFlag("hashType", flag.Lookup("hashType"))
	viper.BindPFlag("proofCacheSize", flag.Lookup("proofCacheSize"))
	viper.BindPFlag("adminToken", flag.Lookup("adminToken"))

	// api
	viper.BindPFlag("api.Route", flag.Lookup("apiRoute"))
	viper.BindPFlag("api.ListenHost", flag.Lookup("listenHost"))
	viper.BindPFlag("api.ListenPort", flag.Lookup("listenPort"))
	viper.Set("api.Ssl.DirCert", filepath.Join(globalCfg.DataDir, "tls"))
	viper.BindPFlag("api.Ssl.Domain", flag.Lookup("sslDomain"))

	// metrics
	viper.BindPFlag("metrics.Enabled", flag.Lookup("metricsEnabled"))
	viper.BindPFlag("metrics.RefreshInterval", flag.Lookup("metricsRefreshInterval"))

	// check if config file exists
	_, err = os.Stat(filepath.Join(globalCfg.DataDir, config.ConfigFileName+".yml"))
	if os.IsNotExist(err) {
		cfgError = config.Error{
			Message: fmt.Sprintf("creating new config file in %s", globalCfg.DataDir),
		}
		if err := os.MkdirAll(globalCfg.DataDir, os.ModePerm); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot create data directory: %s", err),
			}
		}
		if err := viper.SafeWriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot write config file into config dir: %s", err),
			}
		}
	} else {
		if err := viper.ReadInConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot read loaded config file in %s: %s", globalCfg.DataDir, err),
			}
		}
	}
	if err := viper.Unmarshal(&globalCfg); err != nil {
		cfgError = config.Error{
			Message: fmt.Sprintf("cannot unmarshal loaded config file: %s", err),
		}
	}

	if globalCfg.SaveConfig {
		viper.Set("saveConfig", false)
		if err := viper.WriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot overwrite config file into config dir: %s", err),
			}
		}
	}

	return globalCfg, cfgError
}

func loadLedger(path string) (*ledger.Ledger, error) {
	if path == "" {
		log.Warn("no ledger file given, committing the sample accounts")
		return ledger.Default(), nil
	}
	return ledger.LoadFile(path)
}

func main() {
	// The logger is not set up until the config is loaded.
	fmt.Fprintf(os.Stderr, "reserve version %q\n", internal.Version)

	globalCfg, cfgErr := newConfig()
	if globalCfg == nil {
		log.Fatal("cannot read configuration")
	}
	log.Init(globalCfg.LogLevel, globalCfg.LogOutput)
	if path := globalCfg.LogErrorFile; path != "" {
		if err := log.SetFileErrorLog(path); err != nil {
			log.Fatal(err)
		}
	}

	// check if errors during config creation and determine if Critical
	if cfgErr.Critical && cfgErr.Message != "" {
		log.Fatalf("critical error loading config: %s", cfgErr.Message)
	} else if !cfgErr.Critical && cfgErr.Message != "" {
		log.Warnf("non-critical error loading config: %s", cfgErr.Message)
	} else if !cfgErr.Critical && cfgErr.Message == "" {
		log.Infof("config file loaded successfully. Reminder: CLI flags have preference")
	}
	if err := globalCfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	log.Infof("starting reserve version %q", internal.Version)
	if globalCfg.Dev {
		log.Warn("developer mode is enabled!")
	}

	l, err := loadLedger(globalCfg.LedgerFile)
	if err != nil {
		log.Fatalf("cannot load ledger: %v", err)
	}
	res, err := reserve.New(l, reserve.Options{
		Tree:           globalCfg.TreeOptions(),
		ProofCacheSize: globalCfg.ProofCacheSize,
	})
	if err != nil {
		log.Fatalf("cannot commit ledger: %v", err)
	}

	httpRouter := httprouter.HTTProuter{
		TLSdomain:  globalCfg.API.Ssl.Domain,
		TLSdirCert: globalCfg.API.Ssl.DirCert,
	}
	if globalCfg.Metrics.Enabled {
		httpRouter.PrometheusID = "reserve_http"
	}
	if err := httpRouter.Init(globalCfg.API.ListenHost, globalCfg.API.ListenPort); err != nil {
		log.Fatal(err)
	}

	var metricsAgent *metrics.Agent
	if globalCfg.Metrics.Enabled {
		metricsAgent = metrics.NewAgent("/metrics",
			time.Duration(globalCfg.Metrics.RefreshInterval)*time.Second, &httpRouter)
		metricsAgent.Collect(res.UpdateMetrics)
		metricsAgent.CollectHostHealth()
	}

	rAPI, err := api.NewAPI(&httpRouter, globalCfg.API.Route, globalCfg.Dev)
	if err != nil {
		log.Fatal(err)
	}
	rAPI.Attach(res)
	if err := rAPI.EnableHandlers(api.ReserveHandler, api.CommitHandler); err != nil {
		log.Fatal(err)
	}
	rAPI.Endpoint.SetAdminToken(resolveAdminToken(globalCfg.AdminToken, os.Stderr))

	log.Infow("startup complete", "root", res.RootHex(), "accounts", l.Len(),
		"api", fmt.Sprintf("%s%s", httpRouter.Address(), globalCfg.API.Route))

	// close if interrupt received
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Warnf("received SIGTERM, exiting at %s", time.Now().Format(time.RFC850))
	if metricsAgent != nil {
		metricsAgent.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpRouter.Shutdown(ctx); err != nil {
		log.Warnf("http server shutdown: %v", err)
	}
}

// resolveAdminToken returns the configured token, or a random one that is
// printed once to w. The generated token never reaches the logs.
func resolveAdminToken(configured string, w io.Writer) string {
	if configured != "" {
		return configured
	}
	token := uuid.New().String()
	log.Warn("no admin token configured, a random one was generated")
	fmt.Fprintf(w, "admin token: %s\n", token)
	return token
}
