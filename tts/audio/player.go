//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process, so every Player shares it.
var (
	deviceMu   sync.Mutex
	device     *oto.Context
	deviceRate int
)

func openDevice(sampleRate int) (*oto.Context, error) {
	deviceMu.Lock()
	defer deviceMu.Unlock()

	if device != nil {
		if deviceRate != sampleRate {
			return nil, fmt.Errorf("%w: device %d Hz, audio %d Hz", ErrRateMismatch, deviceRate, sampleRate)
		}
		return device, nil
	}

	options := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	switch runtime.GOOS {
	case "darwin":
		// macOS benefits from larger buffers
		options.BufferSize = 100 * time.Millisecond
	default:
		options.BufferSize = 50 * time.Millisecond
	}

	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready

	device = ctx
	deviceRate = sampleRate
	log.Debug("Audio device opened", "sample_rate", sampleRate)
	return device, nil
}

// Player plays PCM buffers on the default output device.
type Player struct {
	// pollInterval controls how often playback completion is checked.
	pollInterval time.Duration
}

// NewPlayer creates a player. The device is opened lazily on first Play.
func NewPlayer() *Player {
	return &Player{pollInterval: 20 * time.Millisecond}
}

// Play plays pcm and blocks until it finishes. Canceling ctx stops the
// sound immediately and returns ctx.Err().
func (p *Player) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if err := validate(pcm, sampleRate); err != nil {
		return err
	}

	dev, err := openDevice(sampleRate)
	if err != nil {
		return err
	}

	player := dev.NewPlayer(bytes.NewReader(pcm))
	defer func() { _ = player.Close() }()

	player.Play()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if err := player.Err(); err != nil {
				return fmt.Errorf("audio playback: %w", err)
			}
			if !player.IsPlaying() {
				return nil
			}
		}
	}
}
