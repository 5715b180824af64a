package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestKebabToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"rate-limit.state-path", "rate_limit.state_path"},
		{"fourbyte.max-retries", "fourbyte.max_retries"},
		{"", ""},
	}

	for _, test := range tests {
		result := KebabToSnakeCase(test.input)
		if result != test.expected {
			t.Errorf("KebabToSnakeCase(%s) = %v, want %v", test.input, result, test.expected)
		}
	}
}

func Test_Config(t *testing.T) {
	t.Run("Should read values bound in viper", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		viper.Set(normalizeFlagName(Debug), true)
		viper.Set(normalizeFlagName(SelectorCachePath), "/tmp/cache/hexmapping.json")
		viper.Set(normalizeFlagName(RateLimitStatePath), "/tmp/cache/rate_limit.json")
		viper.Set(normalizeFlagName(RateLimitLimit), 3)
		viper.Set(normalizeFlagName(RateLimitPeriod), "10s")
		viper.Set(normalizeFlagName(BatchWorkers), 4)
		viper.Set(normalizeFlagName(PipelineEventless), true)

		cfg := NewConfig()

		assert.True(t, cfg.Debug)
		assert.Equal(t, "/tmp/cache/hexmapping.json", cfg.SelectorCacheConfig.Path)
		assert.Equal(t, "/tmp/cache/rate_limit.json", cfg.RateLimitConfig.StatePath)
		assert.Equal(t, 3, cfg.RateLimitConfig.Limit)
		assert.Equal(t, 10*time.Second, cfg.RateLimitConfig.Period)
		assert.Equal(t, 4, cfg.BatchConfig.Workers)
		assert.True(t, cfg.PipelineConfig.Eventless)
	})
	t.Run("Should apply defaults on validate", func(t *testing.T) {
		cfg := &Config{
			SelectorCacheConfig: SelectorCacheConfig{Path: "cache.json"},
			RateLimitConfig:     RateLimitConfig{StatePath: "rate.json"},
		}

		assert.Nil(t, cfg.Validate())
		assert.Equal(t, DefaultRateLimit, cfg.RateLimitConfig.Limit)
		assert.Equal(t, DefaultRateLimitPeriod, cfg.RateLimitConfig.Period)
		assert.Equal(t, DefaultMaxRetries, cfg.FourByteConfig.MaxRetries)
		assert.Equal(t, DefaultFourByteFunctionUrl, cfg.FourByteConfig.FunctionUrl)
		assert.Equal(t, DefaultFourByteEventUrl, cfg.FourByteConfig.EventUrl)
	})
	t.Run("Should reject a missing cache path", func(t *testing.T) {
		cfg := &Config{RateLimitConfig: RateLimitConfig{StatePath: "rate.json"}}
		assert.NotNil(t, cfg.Validate())
	})
	t.Run("Should require event inputs unless eventless", func(t *testing.T) {
		cfg := &Config{InputConfig: InputConfig{
			TracePath:  "trace",
			HashPath:   "hashes.json",
			OutputPath: "out",
		}}
		assert.NotNil(t, cfg.ValidateInputs())

		cfg.PipelineConfig.Eventless = true
		assert.Nil(t, cfg.ValidateInputs())
	})
}
