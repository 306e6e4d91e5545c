package tts

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine != EngineEspeak {
		t.Errorf("Expected default engine %s, got %s", EngineEspeak, cfg.Engine)
	}
	if cfg.Piper.Timeout != 30*time.Second {
		t.Errorf("Expected 30s piper timeout, got %s", cfg.Piper.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"mock", func(c *Config) { c.Engine = EngineMock }, false},
		{"case insensitive", func(c *Config) { c.Engine = "ESPEAK" }, false},
		{"unknown engine", func(c *Config) { c.Engine = "sapi" }, true},
		{"piper without models", func(c *Config) { c.Engine = EnginePiper }, true},
		{"piper with models", func(c *Config) {
			c.Engine = EnginePiper
			c.Piper.ModelsDir = "/voices"
		}, false},
		{"negative timeout", func(c *Config) { c.Piper.Timeout = -time.Second }, true},
		{"negative mock duration", func(c *Config) { c.Mock.Duration = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("tts.engine", "piper")
	viper.Set("tts.piper.models_dir", "~/voices")
	viper.Set("tts.piper.timeout", "5s")
	viper.Set("tts.mock.duration", "250ms")

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper failed: %v", err)
	}
	if cfg.Engine != EnginePiper || cfg.Piper.ModelsDir != "~/voices" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Piper.Binary != "piper" {
		t.Errorf("Expected default piper binary, got %q", cfg.Piper.Binary)
	}
	if cfg.Piper.Timeout != 5*time.Second || cfg.Mock.Duration != 250*time.Millisecond {
		t.Errorf("Durations not parsed: %+v", cfg)
	}
}

func TestLoadConfigFromViperInvalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("tts.engine", "nope")
	if _, err := LoadConfigFromViper(); err == nil {
		t.Error("Expected error for unknown engine")
	}
}
