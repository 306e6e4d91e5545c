// Package audio plays raw PCM produced by speech engines through the
// platform audio device using oto/v3.
package audio

import (
	"context"
	"errors"
	"time"
)

// PCM format produced by the speech engines: 16-bit signed little-endian.
const (
	Channels       = 1
	BitDepth       = 16
	BytesPerSample = BitDepth / 8
)

// Errors reported by players.
var (
	ErrEmptyAudio   = errors.New("empty audio data")
	ErrMisaligned   = errors.New("PCM data not aligned to sample size")
	ErrRateMismatch = errors.New("sample rate differs from the open audio device")
	ErrUnavailable  = errors.New("audio output not available in this build")
	ErrInvalidRate  = errors.New("invalid sample rate")
)

// Sink plays PCM audio, blocking until playback completes or ctx is done.
type Sink interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// Duration returns how long the PCM buffer plays at the given sample rate.
func Duration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / (BytesPerSample * Channels)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

func validate(pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return ErrEmptyAudio
	}
	if len(pcm)%BytesPerSample != 0 {
		return ErrMisaligned
	}
	if sampleRate <= 0 {
		return ErrInvalidRate
	}
	return nil
}
