package main

import (
	"slices"
	"time"

	"emperror.dev/errors"
	"github.com/spf13/viper"
)

const errInvalidConfig = errors.Sentinel("invalid configuration")

type config struct {
	Capacity  int
	Shards    int
	Policy    string
	Threshold int
	LRUK      int
	LFUMaxAvg int

	Workers  int
	Duration time.Duration
	ReadPct  int
	Keys     int
	ZipfS    float64
	ZipfV    float64
	Seed     int64
	Preload  int

	PprofAddr   string
	MetricsAddr string
	Verbose     bool
}

func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Capacity:    v.GetInt("cap"),
		Shards:      v.GetInt("shards"),
		Policy:      v.GetString("policy"),
		Threshold:   v.GetInt("threshold"),
		LRUK:        v.GetInt("lruk-k"),
		LFUMaxAvg:   v.GetInt("lfu-max-avg"),
		Workers:     v.GetInt("workers"),
		Duration:    v.GetDuration("duration"),
		ReadPct:     v.GetInt("reads"),
		Keys:        v.GetInt("keys"),
		ZipfS:       v.GetFloat64("zipf-s"),
		ZipfV:       v.GetFloat64("zipf-v"),
		Seed:        v.GetInt64("seed"),
		Preload:     v.GetInt("preload"),
		PprofAddr:   v.GetString("pprof"),
		MetricsAddr: v.GetString("http"),
		Verbose:     v.GetBool("verbose"),
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	invalid := func(field string, value any, msg string) error {
		return errors.WithDetails(errors.WithMessage(errInvalidConfig, msg), "field", field, "value", value)
	}
	switch {
	case c.Capacity <= 0:
		return invalid("cap", c.Capacity, "capacity must be > 0")
	case !slices.Contains(policyNames(), c.Policy):
		return invalid("policy", c.Policy, "unknown policy")
	case c.ReadPct < 0 || c.ReadPct > 100:
		return invalid("reads", c.ReadPct, "read percentage must be within [0,100]")
	case c.Keys < 2:
		return invalid("keys", c.Keys, "keyspace must hold at least 2 keys")
	case c.ZipfS <= 1:
		return invalid("zipf-s", c.ZipfS, "zipf s must be > 1")
	case c.ZipfV < 1:
		return invalid("zipf-v", c.ZipfV, "zipf v must be >= 1")
	case c.Duration <= 0:
		return invalid("duration", c.Duration, "duration must be > 0")
	case c.Threshold < 0:
		return invalid("threshold", c.Threshold, "threshold must be >= 0")
	}
	return nil
}

func (c config) preloadCount() int {
	if c.Preload > 0 {
		return c.Preload
	}
	return c.Capacity / 2
}
