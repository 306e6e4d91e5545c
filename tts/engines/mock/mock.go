// Package mock provides an in-process speech engine for tests and demos.
package mock

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/echoverse/echoverse/tts"
)

// Engine implements tts.Platform without touching any audio device.
type Engine struct {
	mu       sync.Mutex
	voices   []tts.Voice
	duration time.Duration
	fail     tts.ErrorCode
	spoken   []tts.Utterance
	changes  chan struct{}
}

// DefaultVoices is the voice list a new mock engine starts with.
func DefaultVoices() []tts.Voice {
	return []tts.Voice{
		{ID: "mock-en-us", Name: "Mock Voice US", Language: "en-US", Gender: "neutral"},
		{ID: "mock-en-gb", Name: "Mock Voice UK", Language: "en-GB", Gender: "female"},
		{ID: "mock-es-es", Name: "Mock Voz", Language: "es-ES", Gender: "male"},
		{ID: "mock-fr-fr", Name: "Mock Voix", Language: "fr-FR", Gender: "female"},
	}
}

// New creates a mock engine. A zero duration derives the playback time from
// the text length.
func New(duration time.Duration) *Engine {
	return &Engine{
		voices:   DefaultVoices(),
		duration: duration,
		changes:  make(chan struct{}, 1),
	}
}

// Name returns the engine name.
func (e *Engine) Name() string { return "mock" }

// Voices returns the configured voice list.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tts.Voice, len(e.voices))
	copy(out, e.voices)
	return out, nil
}

// VoicesChanged signals after SetVoices.
func (e *Engine) VoicesChanged() <-chan struct{} {
	return e.changes
}

// SetVoices replaces the voice list and signals a change.
func (e *Engine) SetVoices(voices []tts.Voice) {
	e.mu.Lock()
	e.voices = append([]tts.Voice(nil), voices...)
	e.mu.Unlock()

	select {
	case e.changes <- struct{}{}:
	default:
	}
}

// SetDuration sets how long each utterance plays.
func (e *Engine) SetDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.duration = d
}

// FailWith makes every following Speak fail with code. An empty code clears
// the failure.
func (e *Engine) FailWith(code tts.ErrorCode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = code
}

// Spoken returns the utterances passed to Speak so far.
func (e *Engine) Spoken() []tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Utterance(nil), e.spoken...)
}

// CallCount returns how many times Speak was called.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.spoken)
}

// Speak waits for the simulated duration or until ctx is canceled.
func (e *Engine) Speak(ctx context.Context, u tts.Utterance) error {
	e.mu.Lock()
	e.spoken = append(e.spoken, u)
	fail := e.fail
	d := e.duration
	e.mu.Unlock()

	if fail != "" {
		return tts.NewSpeechError(fail, nil)
	}
	if d == 0 {
		d = estimateDuration(u.Text, u.Rate)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// estimateDuration assumes roughly 15 characters per second at rate 1.0.
func estimateDuration(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = tts.DefaultParam
	}
	chars := utf8.RuneCountInString(text)
	d := time.Duration(float64(chars) / 15 / rate * float64(time.Second))
	if d < 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}
