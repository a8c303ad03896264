// Package config loads OpenRay's runtime tuning parameters from a YAML
// file, OPENRAY_-prefixed environment variables, and persistent-flag
// overrides, in that ascending priority order via spf13/viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sakha1370/openray/internal/openrayerrors"
)

// Config holds every tunable named in the external-interfaces contract.
type Config struct {
	Sources string `yaml:"sources" mapstructure:"sources" doc:"Path to the sources file (URL list)"`

	FetchTimeout time.Duration `yaml:"fetch-timeout" mapstructure:"fetch-timeout" doc:"Per-source HTTP fetch timeout"`
	FetchWorkers int           `yaml:"fetch-workers" mapstructure:"fetch-workers" doc:"Max concurrent subscription fetches"`

	PingWorkers      int           `yaml:"ping-workers" mapstructure:"ping-workers" doc:"Max concurrent Stage 2 port probes (Stage 1 probes hosts one at a time)"`
	PingTimeout      time.Duration `yaml:"ping-timeout" mapstructure:"ping-timeout" doc:"Stage 1 ICMP echo timeout"`
	ConnectTimeout   time.Duration `yaml:"connect-timeout" mapstructure:"connect-timeout" doc:"TCP connect timeout for the Stage 1 fallback and Stage 2"`
	ProbeTimeout     time.Duration `yaml:"probe-timeout" mapstructure:"probe-timeout" doc:"Stage 2 TLS handshake timeout"`
	EnableStage2     bool          `yaml:"enable-stage2" mapstructure:"enable-stage2" doc:"Enable the TLS handshake probe after TCP connect"`
	EnableStage3     bool          `yaml:"enable-stage3" mapstructure:"enable-stage3" doc:"Enable the external core validator"`
	Stage3Max        int           `yaml:"stage3-max" mapstructure:"stage3-max" doc:"Max candidates receiving Stage 3 in one run"`
	Stage3Workers    int           `yaml:"stage3-workers" mapstructure:"stage3-workers" doc:"Max concurrent core subprocesses"`
	Stage3Timeout    time.Duration `yaml:"stage3-timeout" mapstructure:"stage3-timeout" doc:"Per-candidate Stage 3 deadline"`
	NewURIsLimitOn   bool          `yaml:"new-uris-limit-enabled" mapstructure:"new-uris-limit-enabled" doc:"Truncate new URIs per run"`
	NewURIsLimit     int           `yaml:"new-uris-limit" mapstructure:"new-uris-limit" doc:"Max new URIs processed per run"`
	V2RayCore        string        `yaml:"v2ray-core" mapstructure:"v2ray-core" doc:"Explicit path to the xray/v2ray core binary"`
	StreakRequired   int           `yaml:"streak-required" mapstructure:"streak-required" doc:"Minimum streak before an incumbent is exempt from full revalidation"`
	RecheckExisting  bool          `yaml:"recheck-existing" mapstructure:"recheck-existing" doc:"Revalidate incumbents every run regardless of streak"`
	TopListEnabled   bool          `yaml:"top-list-enabled" mapstructure:"top-list-enabled" doc:"Write output/top100.txt ranked by the number of revalidation runs each entry survived"`
	Debug            bool          `yaml:"debug" mapstructure:"debug" doc:"Print parameter snapshot and debug logs at startup"`
	DataDir          string        `yaml:"-" mapstructure:"-"`
}

var defaultConfig = &Config{
	Sources:         "sources.txt",
	FetchTimeout:    15 * time.Second,
	FetchWorkers:    adaptiveWorkers(6, 16, 512),
	PingWorkers:     adaptiveWorkers(16, 32, 2048),
	PingTimeout:     500 * time.Millisecond,
	ConnectTimeout:  800 * time.Millisecond,
	ProbeTimeout:    900 * time.Millisecond,
	EnableStage2:    true,
	EnableStage3:    true,
	Stage3Max:       2000,
	Stage3Workers:   adaptiveWorkers(2, 24, 128),
	Stage3Timeout:   3 * time.Second,
	NewURIsLimitOn:  true,
	NewURIsLimit:    25000,
	StreakRequired:  3,
	RecheckExisting: false,
	TopListEnabled:  true,
	Debug:           false,
}

// adaptiveWorkers scales a per-CPU multiplier into [min,max], mirroring
// the "worker count adapts to available CPU" policy the upstream
// implementation's tuning module uses.
func adaptiveWorkers(perCPU, min, max int) int {
	n := runtime.NumCPU() * perCPU
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}

const (
	debugKey = "debug"
)

// New loads config.yaml from dataDir, applying env-var and default
// overrides. When no config.yaml exists, one holding the defaults is
// written; an existing file is not rewritten.
func New(dataDir string) (*Config, openrayerrors.OpenRayError) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dataDir)
	viper.SetEnvPrefix("OPENRAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPath := filepath.Join(dataDir, "config.yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, newInvalidConfigError(fmt.Errorf("failed to read config file: %w", err).Error())
		}
		if err := setViperDefaults(defaultConfig); err != nil {
			return nil, err
		}
		if err := viper.WriteConfigAs(configPath); err != nil {
			return nil, newInvalidConfigError(fmt.Errorf("failed to write config file: %w", err).Error())
		}
	} else {
		if err := setViperDefaults(defaultConfig); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := cfg.Unmarshal(); err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir

	if err := addDocCommentsToYAML(configPath, cfg); err != nil {
		return nil, newInvalidConfigError(fmt.Errorf("failed to add doc comments to config file: %w", err).Error())
	}

	return cfg, nil
}

func (c *Config) Unmarshal() openrayerrors.OpenRayError {
	hooks := mapstructure.ComposeDecodeHookFunc(
		rejectNumericDurationHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := viper.Unmarshal(c, viper.DecodeHook(hooks)); err != nil {
		return newInvalidConfigError(fmt.Errorf("failed to unmarshal config: %w", err).Error())
	}
	return nil
}

// BindGlobalFlags binds the handful of persistent CLI flags to viper.
func BindGlobalFlags(persistentFlags *pflag.FlagSet) error {
	persistentFlags.Bool(debugKey, false, "enable debug logging")
	if err := viper.BindPFlag(debugKey, persistentFlags.Lookup(debugKey)); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	return nil
}
