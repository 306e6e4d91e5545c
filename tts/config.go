package tts

import (
	"fmt"
	"strings"
	"time"
)

// Engine names accepted in configuration.
const (
	EngineMock   = "mock"
	EngineEspeak = "espeak"
	EnginePiper  = "piper"
)

// Config contains all speech configuration options.
type Config struct {
	Engine string `yaml:"engine"`

	Espeak EspeakConfig `yaml:"espeak"`
	Piper  PiperConfig  `yaml:"piper"`
	Mock   MockConfig   `yaml:"mock"`
}

// EspeakConfig contains eSpeak NG engine settings.
type EspeakConfig struct {
	// Binary is the executable to run. Empty means espeak-ng, then espeak.
	Binary string `yaml:"binary"`
}

// PiperConfig contains Piper engine settings.
type PiperConfig struct {
	Binary    string        `yaml:"binary"`
	ModelsDir string        `yaml:"models_dir"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MockConfig contains settings for the in-process mock engine.
type MockConfig struct {
	// Duration is how long each utterance "plays". Zero derives it from the
	// text length.
	Duration time.Duration `yaml:"duration"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine: EngineEspeak,
		Piper: PiperConfig{
			Binary:  "piper",
			Timeout: 30 * time.Second,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch strings.ToLower(c.Engine) {
	case EngineMock, EngineEspeak, EnginePiper:
	default:
		return fmt.Errorf("unsupported speech engine %q (want %s, %s or %s)", c.Engine, EngineEspeak, EnginePiper, EngineMock)
	}
	if strings.EqualFold(c.Engine, EnginePiper) && c.Piper.ModelsDir == "" {
		return fmt.Errorf("piper engine requires tts.piper.models_dir")
	}
	if c.Piper.Timeout < 0 {
		return fmt.Errorf("piper timeout must not be negative, got %s", c.Piper.Timeout)
	}
	if c.Mock.Duration < 0 {
		return fmt.Errorf("mock duration must not be negative, got %s", c.Mock.Duration)
	}
	return nil
}
