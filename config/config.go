package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/uofuseismo/urts-core/associator"
	"github.com/uofuseismo/urts-core/broadcast"
	"github.com/uofuseismo/urts-core/picker"
	"github.com/uofuseismo/urts-core/threshold"
)

// PacketCacheConfig configures the per-channel circular buffer capacity
// shared by every channel the registry sees.
type PacketCacheConfig struct {
	DefaultCapacity int
}

// Validate requires a positive default capacity.
func (c PacketCacheConfig) Validate() error {
	if c.DefaultCapacity < 1 {
		return errors.New("packet cache default capacity must be at least 1")
	}
	return nil
}

// Config aggregates every component's configuration into the single
// object a module entry point reads once at startup and validates before
// wiring goroutines together. Environment/file parsing is explicitly out
// of scope here; the entry point is responsible for populating this
// struct however it sees fit and handing it in.
type Config struct {
	PacketCache PacketCacheConfig
	Threshold   threshold.Options
	Picker      picker.Options
	Associator  associator.RegionOptions
	Broadcast   broadcast.Options
}

// DefaultConfig returns a Config with every component's package defaults,
// using the Utah associator region; on/off thresholds still must be set
// before use.
func DefaultConfig() Config {
	return Config{
		PacketCache: PacketCacheConfig{DefaultCapacity: 100},
		Threshold:   *threshold.NewOptions(),
		Picker: picker.Options{
			PreWindow:       1 * time.Second,
			PostWindow:      1 * time.Second,
			Pad:             850 * time.Millisecond,
			ExpectedSamples: 400,
			SamplingRate:    100,
			GapTolerance:    20 * time.Millisecond,
			PollTimeout:     10 * time.Millisecond,
		},
		Associator: associator.UtahRegion(),
		Broadcast:  broadcast.DefaultOptions(),
	}
}

// Validate checks every component's configuration, returning the first
// failure wrapped as a Configuration-kind Error.
func (c Config) Validate() error {
	if err := c.PacketCache.Validate(); err != nil {
		return New(Configuration, err)
	}
	if err := c.Threshold.Validate(); err != nil {
		return New(Configuration, err)
	}
	if err := c.Picker.Validate(); err != nil {
		return New(Configuration, err)
	}
	if err := c.Associator.Validate(); err != nil {
		return New(Configuration, err)
	}
	if err := c.Broadcast.Validate(); err != nil {
		return New(Configuration, err)
	}
	return nil
}
