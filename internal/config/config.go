package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/borrelio/internal/proximity"
)

// ProximityConfig holds the falloff thresholds handed to clients.
type ProximityConfig struct {
	Near float64 `mapstructure:"near" yaml:"near"`
	Far  float64 `mapstructure:"far" yaml:"far"`
}

// Config holds server configuration values.
type Config struct {
	Addr               string          `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration   `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string          `mapstructure:"log_level" yaml:"log_level"`
	MaxMessageBytes    int64           `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int             `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	MaxRoomSize        int             `mapstructure:"max_room_size" yaml:"max_room_size"`
	DefaultName        string          `mapstructure:"default_name" yaml:"default_name"`
	DefaultLocation    []float64       `mapstructure:"default_location" yaml:"default_location"`
	STUNServers        []string        `mapstructure:"stun_servers" yaml:"stun_servers"`
	Proximity          ProximityConfig `mapstructure:"proximity" yaml:"proximity"`
}

// DefaultSTUNServers are the public Google endpoints; clients try them all.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
	"stun:stun3.l.google.com:19302",
	"stun:stun4.l.google.com:19302",
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		MaxMessageBytes:    64 << 10,
		RateLimitPerMinute: 600,
		MaxRoomSize:        5,
		DefaultName:        "User",
		DefaultLocation:    []float64{250, 250},
		STUNServers:        append([]string(nil), DefaultSTUNServers...),
		Proximity: ProximityConfig{
			Near: proximity.DefaultNear,
			Far:  proximity.DefaultFar,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.MaxRoomSize != 0 {
		c.MaxRoomSize = other.MaxRoomSize
	}
	if other.DefaultName != "" {
		c.DefaultName = other.DefaultName
	}
	if len(other.DefaultLocation) != 0 {
		c.DefaultLocation = other.DefaultLocation
	}
	if len(other.STUNServers) != 0 {
		c.STUNServers = other.STUNServers
	}
	if other.Proximity.Near != 0 {
		c.Proximity.Near = other.Proximity.Near
	}
	if other.Proximity.Far != 0 {
		c.Proximity.Far = other.Proximity.Far
	}
}

// ProximityModel returns the configured falloff model.
func (c Config) ProximityModel() proximity.Model {
	return proximity.Model{Near: c.Proximity.Near, Far: c.Proximity.Far}
}

// Validate reports the first setting that cannot be served.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if c.MaxRoomSize <= 0 {
		errs = append(errs, fmt.Errorf("max_room_size must be positive, got %d", c.MaxRoomSize))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if strings.TrimSpace(c.DefaultName) == "" {
		errs = append(errs, errors.New("default_name is empty"))
	}
	if len(c.DefaultLocation) != 2 {
		errs = append(errs, fmt.Errorf("default_location must have 2 coordinates, got %d", len(c.DefaultLocation)))
	}
	if err := c.ProximityModel().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
