package studio

import (
	"strings"

	"github.com/echoverse/echoverse/rewrite"
	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/tts/sentence"
)

// View is a point-in-time copy of the controller state for rendering.
type View struct {
	Manuscript string
	Tone       rewrite.Tone
	Language   string
	Voice      string
	Params     tts.Params
	Voices     []tts.Voice // Voices of the selected language
	AllVoices  int
	Result     string
	Rewriting  bool
	Speaking   bool
	Err        string
}

// ManuscriptWords returns the number of words in the manuscript.
func (v View) ManuscriptWords() int {
	return len(strings.Fields(v.Manuscript))
}

// ResultStats counts the sentences of the rewritten text and estimates how
// long it takes to speak at the selected rate.
func (v View) ResultStats() sentence.Stats {
	return sentence.Analyze(v.Result, v.Params.Rate)
}

// CanPlay reports whether the play toggle is enabled.
func (v View) CanPlay() bool {
	return v.Speaking || strings.TrimSpace(v.Result) != ""
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Manuscript: c.manuscript,
		Tone:       c.tone,
		Language:   c.language,
		Voice:      c.voice,
		Params:     c.params,
		Voices:     tts.FilterByLanguage(c.voices, c.language),
		AllVoices:  len(c.voices),
		Result:     c.result,
		Rewriting:  c.rewriting,
		Speaking:   c.speaking,
		Err:        c.err,
	}
}
