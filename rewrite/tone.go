package rewrite

import (
	"fmt"
	"strings"
)

// Tone is the stylistic instruction given to the rewrite service.
type Tone string

// Supported tones.
const (
	ToneNarrative  Tone = "narrative"
	ToneDramatic   Tone = "dramatic"
	ToneMysterious Tone = "mysterious"
	ToneHumorous   Tone = "humorous"
	ToneFormal     Tone = "formal"
	ToneCasual     Tone = "casual"
	TonePoetic     Tone = "poetic"
)

// DefaultTone is the tone selected at startup.
const DefaultTone = ToneNarrative

// Tones lists every tone in display order.
var Tones = []Tone{
	ToneNarrative,
	ToneDramatic,
	ToneMysterious,
	ToneHumorous,
	ToneFormal,
	ToneCasual,
	TonePoetic,
}

// ParseTone parses a tone name, ignoring case and surrounding space.
func ParseTone(s string) (Tone, error) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tone %q (want one of %s)", s, toneList())
	}
	return t, nil
}

// Valid reports whether t is one of the supported tones.
func (t Tone) Valid() bool {
	for _, tone := range Tones {
		if t == tone {
			return true
		}
	}
	return false
}

// Label returns the display name, e.g. "Formal".
func (t Tone) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

func (t Tone) String() string {
	return string(t)
}

func toneList() string {
	names := make([]string, len(Tones))
	for i, t := range Tones {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
