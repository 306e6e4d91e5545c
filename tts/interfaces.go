package tts

import (
	"context"
	"strings"
)

// SpeechEngine speaks utterances on the host's synthesis backend.
type SpeechEngine interface {
	// Speak synthesizes and plays the utterance, blocking until playback
	// finishes. It returns nil on natural completion, ctx.Err() when the
	// context is canceled and a *SpeechError when synthesis fails.
	Speak(ctx context.Context, u Utterance) error

	// Name returns the human-readable name of the engine.
	Name() string
}

// VoiceProvider exposes the voices a platform offers.
type VoiceProvider interface {
	// Voices returns the full, ordered list of voices currently available.
	Voices(ctx context.Context) ([]Voice, error)

	// VoicesChanged returns a channel that receives a value whenever the
	// voice list may have changed. Providers with a static list return nil.
	VoicesChanged() <-chan struct{}
}

// Platform is an engine that can both list voices and speak with them.
type Platform interface {
	SpeechEngine
	VoiceProvider
}

// Voice represents a synthesis voice reported by the platform.
type Voice struct {
	ID       string // Engine-specific identifier (model path, espeak name)
	Name     string // Human-readable name, unique within a platform
	Language string // BCP-47 tag (e.g., "en-US")
	Gender   string // Voice gender, if known
}

// Primary returns the primary language subtag of the voice.
func (v Voice) Primary() string {
	return PrimarySubtag(v.Language)
}

// String returns the voice as shown in selection lists.
func (v Voice) String() string {
	if v.Language == "" {
		return v.Name
	}
	return v.Name + " (" + v.Language + ")"
}

// Utterance is a single unit of speech with its voice and parameters bound.
type Utterance struct {
	ID    uint64 // Monotonic identifier assigned by the controller
	Text  string
	Voice *Voice // nil selects the engine default voice
	Pitch float64
	Rate  float64
}

// Lang returns the utterance language, taken from the bound voice.
func (u Utterance) Lang() string {
	if u.Voice == nil {
		return ""
	}
	return u.Voice.Language
}

// isBlank reports whether s contains only whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
