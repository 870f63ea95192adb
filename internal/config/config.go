// Package config provides configuration types and loading for vitalwatch.
package config

import (
	"time"

	"github.com/vitalwatch/vitalwatch/internal/gateway"
	"github.com/vitalwatch/vitalwatch/internal/notify"
	"github.com/vitalwatch/vitalwatch/internal/provider"
	"github.com/vitalwatch/vitalwatch/internal/scheduler"
)

// Config is the root configuration struct.
// Top-level groups: Server, Store, Stream, Providers, Notify, Scheduler.
type Config struct {
	Server    gateway.Config   `json:"server"`
	Store     StoreConfig      `json:"store"`
	Stream    StreamConfig     `json:"stream"`
	Providers ProvidersConfig  `json:"providers"`
	Notify    NotifyConfig     `json:"notify"`
	Scheduler scheduler.Config `json:"scheduler"`
}

// StoreConfig holds the snapshot database location.
type StoreConfig struct {
	Path string `json:"path" envconfig:"PATH"`
}

// StreamConfig tunes stream cadences and snapshot lookback windows. Cadence
// is how often a subscription ticks; lookback is how far back each tick reads.
type StreamConfig struct {
	GlobalInterval time.Duration `json:"globalInterval" envconfig:"GLOBAL_INTERVAL"`
	UserInterval   time.Duration `json:"userInterval" envconfig:"USER_INTERVAL"`
	GlobalLookback time.Duration `json:"globalLookback" envconfig:"GLOBAL_LOOKBACK"`
	UserLookback   time.Duration `json:"userLookback" envconfig:"USER_LOOKBACK"`
}

// ProvidersConfig groups generative-text provider settings.
type ProvidersConfig struct {
	Gemini provider.Config `json:"gemini"`
}

// NotifyConfig groups notification channel settings.
type NotifyConfig struct {
	Slack notify.SlackConfig `json:"slack"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: gateway.DefaultConfig(),
		Store:  StoreConfig{Path: "~/.vitalwatch/vitalwatch.db"},
		Stream: StreamConfig{
			GlobalInterval: gateway.DefaultGlobalInterval,
			UserInterval:   gateway.DefaultUserInterval,
		},
		Scheduler: scheduler.DefaultConfig(),
	}
}
