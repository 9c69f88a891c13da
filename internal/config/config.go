// Package config loads the Volume Manager's runtime settings with Viper,
// the same way the teacher codebase loaded its DMG configuration: a named
// config file searched across a handful of conventional paths, with
// environment-variable overrides and hard-coded defaults filling any gap.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// VolumeManagerConfig holds the tunables the Volume Manager and stream
// stack read at startup.
type VolumeManagerConfig struct {
	// CacheSizeMB bounds the block cache internal/diskio readers keep, in
	// megabytes.
	CacheSizeMB int `mapstructure:"cache_size_mb"`
	// AutoRegisterFactories enables the built-in PassthroughFactory and
	// LinearFactory at VolumeManager construction.
	AutoRegisterFactories bool `mapstructure:"auto_register_factories"`
	// OrdinalFallbackEnabled allows a disk with neither a GPT GUID nor an
	// MBR signature to still receive a DO<n> identity rather than being
	// rejected by AddDisk.
	OrdinalFallbackEnabled bool `mapstructure:"ordinal_fallback_enabled"`
	// DiagnosticsEnabled turns on internal/diag logging.
	DiagnosticsEnabled bool `mapstructure:"diagnostics_enabled"`
	// LinearBiosType is the legacy MBR partition type byte LinearFactory
	// claims physical volumes by.
	LinearBiosType int `mapstructure:"linear_bios_type"`
}

// Load reads diskstreams-config.yaml from the conventional search paths,
// falling back to defaults when no file is found, and allows DISKSTREAMS_*
// environment variables to override either.
func Load() (*VolumeManagerConfig, error) {
	v := viper.New()
	v.SetConfigName("diskstreams-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.diskstreams")
	v.AddConfigPath("/etc/diskstreams")

	v.SetDefault("cache_size_mb", 64)
	v.SetDefault("auto_register_factories", true)
	v.SetDefault("ordinal_fallback_enabled", true)
	v.SetDefault("diagnostics_enabled", false)
	v.SetDefault("linear_bios_type", 0x8E)

	v.SetEnvPrefix("DISKSTREAMS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: error reading config file: %w", err)
		}
	}

	var cfg VolumeManagerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load would produce with no config file
// present and no environment overrides set.
func Default() *VolumeManagerConfig {
	return &VolumeManagerConfig{
		CacheSizeMB:            64,
		AutoRegisterFactories:  true,
		OrdinalFallbackEnabled: true,
		DiagnosticsEnabled:     false,
		LinearBiosType:         0x8E,
	}
}
