package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads speech configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") && viper.GetString("tts.engine") != "" {
		cfg.Engine = viper.GetString("tts.engine")
	}

	if viper.IsSet("tts.espeak.binary") {
		cfg.Espeak.Binary = viper.GetString("tts.espeak.binary")
	}

	if viper.IsSet("tts.piper.binary") && viper.GetString("tts.piper.binary") != "" {
		cfg.Piper.Binary = viper.GetString("tts.piper.binary")
	}
	if viper.IsSet("tts.piper.models_dir") {
		cfg.Piper.ModelsDir = viper.GetString("tts.piper.models_dir")
	}
	if viper.IsSet("tts.piper.timeout") {
		cfg.Piper.Timeout = viper.GetDuration("tts.piper.timeout")
	}

	if viper.IsSet("tts.mock.duration") {
		cfg.Mock.Duration = viper.GetDuration("tts.mock.duration")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}
	return cfg, nil
}
