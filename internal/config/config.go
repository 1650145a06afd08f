// Package config loads process-wide settings for the mcstatusd server
// from the environment, replacing the teacher CLI's interactive
// JSON-file settings with the idiom the rest of the example pack uses
// for services: one envconfig-decoded struct.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable the HTTP surface and orchestrator need.
// Each field's envconfig tag names its environment variable, read with
// the MCSTATUS_ prefix (e.g. MCSTATUS_LISTEN_ADDR).
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`

	JavaOuterDeadline    time.Duration `envconfig:"JAVA_OUTER_DEADLINE" default:"5s"`
	JavaSocketTimeout    time.Duration `envconfig:"JAVA_SOCKET_TIMEOUT" default:"1s"`
	BedrockSocketTimeout time.Duration `envconfig:"BEDROCK_SOCKET_TIMEOUT" default:"5s"`
	BedrockTries         uint32        `envconfig:"BEDROCK_TRIES" default:"5"`

	ResolverCacheSize int  `envconfig:"RESOLVER_CACHE_SIZE" default:"1024"`
	Debug             bool `envconfig:"DEBUG" default:"false"`
}

// Load decodes Config from environment variables prefixed MCSTATUS_.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("mcstatus", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
