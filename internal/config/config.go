package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const ENV_PREFIX = "ACTIONTREE"

const (
	Debug = "debug"

	SelectorCachePath = "selector-cache.path"

	RateLimitStatePath = "rate-limit.state-path"
	RateLimitLimit     = "rate-limit.limit"
	RateLimitPeriod    = "rate-limit.period"

	FourByteFunctionUrl = "fourbyte.function-url"
	FourByteEventUrl    = "fourbyte.event-url"
	FourByteTimeout     = "fourbyte.timeout"
	FourByteMaxRetries  = "fourbyte.max-retries"
	FourByteOffline     = "fourbyte.offline"

	BatchWorkers      = "batch.workers"
	BatchShowProgress = "batch.show-progress"

	PipelineEventless = "pipeline.eventless"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"

	SeedEvents = "events"

	TracePath      = "trace-path"
	EventPath      = "event-path"
	EventInputPath = "event-input-path"
	HashPath       = "hash-path"
	OutputPath     = "output-path"
	ActionTreePath = "actiontree-path"
)

const (
	DefaultFourByteFunctionUrl = "https://www.4byte.directory/api/v1/signatures/?hex_signature="
	DefaultFourByteEventUrl    = "https://www.4byte.directory/api/v1/event-signatures/?hex_signature="

	DefaultRateLimit       = 10
	DefaultRateLimitPeriod = 45 * time.Second
	DefaultMaxRetries      = 5
)

type Config struct {
	Debug               bool
	SelectorCacheConfig SelectorCacheConfig
	RateLimitConfig     RateLimitConfig
	FourByteConfig      FourByteConfig
	BatchConfig         BatchConfig
	PipelineConfig      PipelineConfig
	PrometheusConfig    PrometheusConfig
	SeedConfig          SeedConfig
	InputConfig         InputConfig
}

type SelectorCacheConfig struct {
	Path string
}

type RateLimitConfig struct {
	StatePath string
	Limit     int
	Period    time.Duration
}

type FourByteConfig struct {
	FunctionUrl string
	EventUrl    string
	Timeout     time.Duration
	MaxRetries  int
	Offline     bool
}

type BatchConfig struct {
	Workers      int
	ShowProgress bool
}

type PipelineConfig struct {
	// Eventless tolerates missing event files and builds the tree from calls alone.
	Eventless bool
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type SeedConfig struct {
	// Events computes 32-byte event topics instead of 4-byte function selectors.
	Events bool
}

// InputConfig holds the per-run file locations. Each transaction is read from
// <path>/<hash>.json under the three input directories.
type InputConfig struct {
	TracePath      string
	EventPath      string
	EventInputPath string
	HashPath       string
	OutputPath     string
	ActionTreePath string
}

func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(normalizeFlagName(Debug)),

		SelectorCacheConfig: SelectorCacheConfig{
			Path: viper.GetString(normalizeFlagName(SelectorCachePath)),
		},

		RateLimitConfig: RateLimitConfig{
			StatePath: viper.GetString(normalizeFlagName(RateLimitStatePath)),
			Limit:     viper.GetInt(normalizeFlagName(RateLimitLimit)),
			Period:    viper.GetDuration(normalizeFlagName(RateLimitPeriod)),
		},

		FourByteConfig: FourByteConfig{
			FunctionUrl: viper.GetString(normalizeFlagName(FourByteFunctionUrl)),
			EventUrl:    viper.GetString(normalizeFlagName(FourByteEventUrl)),
			Timeout:     viper.GetDuration(normalizeFlagName(FourByteTimeout)),
			MaxRetries:  viper.GetInt(normalizeFlagName(FourByteMaxRetries)),
			Offline:     viper.GetBool(normalizeFlagName(FourByteOffline)),
		},

		BatchConfig: BatchConfig{
			Workers:      viper.GetInt(normalizeFlagName(BatchWorkers)),
			ShowProgress: viper.GetBool(normalizeFlagName(BatchShowProgress)),
		},

		PipelineConfig: PipelineConfig{
			Eventless: viper.GetBool(normalizeFlagName(PipelineEventless)),
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},

		SeedConfig: SeedConfig{
			Events: viper.GetBool(normalizeFlagName(SeedEvents)),
		},

		InputConfig: InputConfig{
			TracePath:      viper.GetString(normalizeFlagName(TracePath)),
			EventPath:      viper.GetString(normalizeFlagName(EventPath)),
			EventInputPath: viper.GetString(normalizeFlagName(EventInputPath)),
			HashPath:       viper.GetString(normalizeFlagName(HashPath)),
			OutputPath:     viper.GetString(normalizeFlagName(OutputPath)),
			ActionTreePath: viper.GetString(normalizeFlagName(ActionTreePath)),
		},
	}
}

// Validate fills in defaults for unset numeric values and rejects settings the
// engine cannot run with.
func (c *Config) Validate() error {
	if c.RateLimitConfig.Limit == 0 {
		c.RateLimitConfig.Limit = DefaultRateLimit
	}
	if c.RateLimitConfig.Period == 0 {
		c.RateLimitConfig.Period = DefaultRateLimitPeriod
	}
	if c.FourByteConfig.FunctionUrl == "" {
		c.FourByteConfig.FunctionUrl = DefaultFourByteFunctionUrl
	}
	if c.FourByteConfig.EventUrl == "" {
		c.FourByteConfig.EventUrl = DefaultFourByteEventUrl
	}
	if c.FourByteConfig.MaxRetries == 0 {
		c.FourByteConfig.MaxRetries = DefaultMaxRetries
	}

	if c.RateLimitConfig.Limit < 0 {
		return fmt.Errorf("%s must be positive, got %d", RateLimitLimit, c.RateLimitConfig.Limit)
	}
	if c.RateLimitConfig.Period < 0 {
		return fmt.Errorf("%s must be positive, got %s", RateLimitPeriod, c.RateLimitConfig.Period)
	}
	if c.FourByteConfig.MaxRetries < 0 {
		return fmt.Errorf("%s must be positive, got %d", FourByteMaxRetries, c.FourByteConfig.MaxRetries)
	}
	if c.BatchConfig.Workers < 0 {
		return fmt.Errorf("%s must not be negative, got %d", BatchWorkers, c.BatchConfig.Workers)
	}
	if c.SelectorCacheConfig.Path == "" {
		return fmt.Errorf("%s is required", SelectorCachePath)
	}
	if c.RateLimitConfig.StatePath == "" {
		return fmt.Errorf("%s is required", RateLimitStatePath)
	}
	return nil
}

func (c *Config) ValidateInputs() error {
	if c.InputConfig.TracePath == "" {
		return fmt.Errorf("--%s is required", TracePath)
	}
	if c.InputConfig.HashPath == "" {
		return fmt.Errorf("--%s is required", HashPath)
	}
	if c.InputConfig.OutputPath == "" {
		return fmt.Errorf("--%s is required", OutputPath)
	}
	if !c.PipelineConfig.Eventless && (c.InputConfig.EventPath == "" || c.InputConfig.EventInputPath == "") {
		return fmt.Errorf("--%s and --%s are required unless --%s is set", EventPath, EventInputPath, PipelineEventless)
	}
	return nil
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}
