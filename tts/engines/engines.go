// Package engines builds the speech platform selected in configuration.
package engines

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/tts/audio"
	"github.com/echoverse/echoverse/tts/engines/espeak"
	"github.com/echoverse/echoverse/tts/engines/mock"
	"github.com/echoverse/echoverse/tts/engines/piper"
)

// New creates the platform named by cfg.Engine.
func New(cfg tts.Config, logger *log.Logger) (tts.Platform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	switch strings.ToLower(cfg.Engine) {
	case tts.EngineMock:
		return mock.New(cfg.Mock.Duration), nil
	case tts.EngineEspeak:
		engine, err := espeak.New(cfg.Espeak.Binary, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create espeak engine: %w", err)
		}
		return engine, nil
	case tts.EnginePiper:
		engine, err := piper.New(piper.Config{
			Binary:    cfg.Piper.Binary,
			ModelsDir: cfg.Piper.ModelsDir,
			Timeout:   cfg.Piper.Timeout,
		}, audio.NewPlayer(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create piper engine: %w", err)
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unsupported speech engine %q", cfg.Engine)
	}
}

// Close releases platform resources, if the platform holds any.
func Close(p tts.Platform) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
