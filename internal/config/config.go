// Package config provides configuration management for the converter
// binaries.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration values for the converter.
type Config struct {
	// I/O configuration ("-" means stdin/stdout)
	InputPath  string
	OutputPath string

	// Art-Net output configuration
	ArtNetEnabled   bool
	ArtNetPort      int
	ArtNetBroadcast string

	// Monitor HTTP surface
	MonitorEnabled bool
	MonitorPort    int
	CORSOrigin     string

	// Encoder configuration
	GreyFrameRate       int // frames per second written into GREY headers
	UniverseCount       int // universes per encoded frame (required by show2grey)
	LastFrameDurationMS int // duration assumed for a showfile's final frame
	ProgressInterval    int // frames between progress reports (0 = off)

	Env string
}

// Load loads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	return &Config{
		InputPath:  getEnv("INPUT_PATH", "-"),
		OutputPath: getEnv("OUTPUT_PATH", "-"),

		ArtNetEnabled:   getEnvBool("ARTNET_ENABLED", false),
		ArtNetPort:      getEnvInt("ARTNET_PORT", 6454),
		ArtNetBroadcast: getEnv("ARTNET_BROADCAST", "255.255.255.255"),

		MonitorEnabled: getEnvBool("MONITOR_ENABLED", false),
		MonitorPort:    getEnvInt("MONITOR_PORT", 9090),
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:3000"),

		GreyFrameRate:       getEnvInt("GREY_FRAME_RATE", 25),
		UniverseCount:       getEnvInt("UNIVERSE_COUNT", 0),
		LastFrameDurationMS: getEnvInt("LAST_FRAME_DURATION", 1),
		ProgressInterval:    getEnvInt("PROGRESS_INTERVAL", 0),

		Env: getEnv("ENV", "development"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
