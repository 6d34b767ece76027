// Command bench runs a synthetic Zipf workload against one of the cache
// policies and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "ARCBENCH"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic workload against a cache policy",
		Long: `Run a Zipf-distributed read/write workload against one cache policy
(lru, lruk, lfu, arc or hashicorp-arc) and report throughput and hit rate.
Every flag can also be set as ` + envPrefix + `_<FLAG> or in a config file.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Verbose)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, log, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.Int("cap", 100_000, "cache capacity (entries)")
	flags.Int("shards", 0, "number of shards (0=auto); ignored by hashicorp-arc")
	flags.String("policy", "arc", "eviction policy: "+strings.Join(policyNames(), " | "))
	flags.Int("threshold", 0, "ARC promotion threshold (0=default)")
	flags.Int("lruk-k", 2, "accesses before LRU-K admission")
	flags.Int("lfu-max-avg", 0, "LFU aging threshold (0=disabled)")
	flags.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
	flags.Duration("duration", 10*time.Second, "benchmark duration")
	flags.Int("reads", 80, "read percentage [0..100]")
	flags.Int("keys", 1_000_000, "keyspace size")
	flags.Float64("zipf-s", 1.1, "Zipf s > 1 (skew)")
	flags.Float64("zipf-v", 1.0, "Zipf v >= 1")
	flags.Int64("seed", 0, "random seed (0=time based)")
	flags.Int("preload", 0, "preload entries (0 = cap/2)")
	flags.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
	flags.String("http", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
	flags.BoolP("verbose", "v", false, "development logging")
	return cmd
}

// initConfig binds flags and environment to v and reads the optional config
// file. Precedence: flag, env, file, default.
func initConfig(v *viper.Viper, cmd *cobra.Command, cfgFile string) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.WrapIff(err, "reading config %s", cfgFile)
		}
	}
	return nil
}

func newLogger(verbose bool) (logr.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if verbose {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Discard(), errors.WrapIf(err, "failed to initialize zap")
	}
	return zapr.NewLogger(zl), nil
}

// runBench wires metrics, builds the cache, preloads it and drives the
// workload until the duration elapses or ctx is cancelled.
func runBench(ctx context.Context, log logr.Logger, cfg config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	c, err := buildCache(cfg, reg)
	if err != nil {
		return err
	}
	log = log.WithValues("policy", cfg.Policy, "capacity", cfg.Capacity)

	if cfg.PprofAddr != "" {
		go serve(log.WithName("pprof"), cfg.PprofAddr, http.DefaultServeMux)
	}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		go serve(log.WithName("metrics"), cfg.MetricsAddr, mux)
	}

	preload(c, cfg.preloadCount())
	log.V(1).Info("preloaded", "entries", c.Len())

	res, err := runWorkload(ctx, cfg, c)
	if err != nil {
		return err
	}
	log.Info("benchmark finished",
		"elapsed", res.Elapsed,
		"ops", res.Ops,
		"opsPerSec", res.opsPerSec(),
		"reads", res.Reads,
		"writes", res.Writes,
		"hitRatePct", res.hitRate(),
		"len", c.Len())
	fmt.Println(res.String())
	return nil
}

func serve(log logr.Logger, addr string, h http.Handler) {
	log.Info("serving", "addr", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Error(err, "server stopped", "addr", addr)
	}
}
