package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/tts/engines"
)

// speechStack is the configured engine with its voice catalog and
// controller.
type speechStack struct {
	platform   tts.Platform
	catalog    *tts.Catalog
	controller *tts.Controller
}

func newSpeech() (*speechStack, error) {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	platform, err := engines.New(cfg, log.Default())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	log.Debug("Speech engine ready", "engine", platform.Name())

	catalog := tts.NewCatalog(platform, log.Default())
	return &speechStack{
		platform:   platform,
		catalog:    catalog,
		controller: tts.NewController(platform, catalog, tts.WithLogger(log.Default())),
	}, nil
}

// start loads the voice list and follows changes until ctx is done.
func (s *speechStack) start(ctx context.Context) error {
	if err := s.catalog.Start(ctx); err != nil {
		return fmt.Errorf("unable to load voices from %s: %w", s.platform.Name(), err)
	}
	log.Debug("Voices loaded", "count", len(s.catalog.Voices()))
	return nil
}

func (s *speechStack) Close() {
	if err := s.controller.Shutdown(); err != nil {
		log.Warn("Speech shutdown failed", "error", err)
	}
	if err := engines.Close(s.platform); err != nil {
		log.Warn("Closing speech engine failed", "error", err)
	}
}
