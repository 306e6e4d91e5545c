// Package studio holds the Echoverse form state and the rules tying the
// rewrite service, the speech controller and the exporter together.
package studio

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/echoverse/echoverse/export"
	"github.com/echoverse/echoverse/rewrite"
	"github.com/echoverse/echoverse/tts"
)

// User-facing validation messages.
const (
	MsgEmptyManuscript = "Please enter some text to rewrite."
	MsgPlayNoResult    = "Please rewrite the text before generating audio."
	MsgExportNoResult  = "Please rewrite the text first."
)

// DefaultManuscript is the text shown when no manuscript is supplied.
const DefaultManuscript = "The sun dipped below the horizon, painting the sky in shades of orange and purple. " +
	"A gentle breeze rustled the leaves, carrying the scent of pine and damp earth. " +
	"In the distance, a lone wolf howled at the rising moon."

// Errors returned by Controller operations.
var (
	ErrEmptyManuscript  = errors.New("manuscript is empty")
	ErrEmptyResult      = errors.New("no rewritten text")
	ErrRewriteInFlight  = errors.New("a rewrite is already in progress")
	ErrParamsLocked     = errors.New("pitch and rate cannot change while speaking")
	ErrStaleRewrite     = errors.New("rewrite response is stale")
	ErrUnknownLanguage  = errors.New("unsupported language")
	ErrVoiceNotInFilter = errors.New("voice does not match the selected language")
)

// Rewriter rewrites text in a tone.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, tone rewrite.Tone) (string, error)
}

// Speech plays and stops utterances.
type Speech interface {
	Play(text, voiceName string, p tts.Params) (tts.Utterance, error)
	Stop() error
}

// VoiceSource supplies the current voice list.
type VoiceSource interface {
	Voices() []tts.Voice
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Rewriter Rewriter
	Speech   Speech
	Catalog  VoiceSource // optional initial voice list
	Logger   *log.Logger
}

// RewriteRequest is an accepted rewrite, to be sent to the Rewriter and
// completed with CompleteRewrite.
type RewriteRequest struct {
	Token uint64
	Text  string
	Tone  rewrite.Tone

	ctx context.Context
}

// Context returns the request's context. It is canceled when the request is
// abandoned.
func (r RewriteRequest) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Controller is the single source of truth for the form. It is safe for
// concurrent use.
type Controller struct {
	rewriter Rewriter
	speech   Speech
	logger   *log.Logger

	mu         sync.Mutex
	manuscript string
	tone       rewrite.Tone
	language   string
	voice      string
	params     tts.Params
	voices     []tts.Voice
	result     string
	rewriting  bool
	speaking   bool
	token      uint64
	inflight   uint64 // token of the outstanding request, 0 when none
	cancel     context.CancelFunc
	utterance  uint64
	err        string
}

// New creates a controller with default form values.
func New(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{
		rewriter:   deps.Rewriter,
		speech:     deps.Speech,
		logger:     logger.WithPrefix("studio"),
		manuscript: DefaultManuscript,
		tone:       rewrite.DefaultTone,
		language:   DefaultLanguage,
		params:     tts.DefaultParams(),
	}
	if deps.Catalog != nil {
		c.VoicesChanged(deps.Catalog.Voices())
	}
	return c
}

// SetManuscript replaces the manuscript. Editing while a rewrite is in
// flight abandons that rewrite: its context is canceled and its response
// will be discarded. The rewrite stays in flight until that response
// arrives.
func (c *Controller) SetManuscript(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.manuscript {
		return
	}
	c.manuscript = text
	if c.rewriting && c.inflight == c.token {
		c.token++
		if c.cancel != nil {
			c.cancel()
		}
		c.logger.Debug("Manuscript edited during rewrite, abandoning request", "token", c.inflight)
	}
}

// SetTone selects the rewrite tone.
func (c *Controller) SetTone(t rewrite.Tone) error {
	tone, err := rewrite.ParseTone(string(t))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tone = tone
	return nil
}

// SetLanguage selects the speech language and resets the voice to the first
// voice of that language, or none.
func (c *Controller) SetLanguage(tag string) error {
	lang, ok := LookupLanguage(tag)
	if !ok {
		return ErrUnknownLanguage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = lang.Tag
	c.voice = ""
	if filtered := tts.FilterByLanguage(c.voices, c.language); len(filtered) > 0 {
		c.voice = filtered[0].Name
	}
	return nil
}

// SetVoice selects a voice from the voices of the selected language. An
// empty name selects the engine default.
func (c *Controller) SetVoice(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.voice = ""
		return nil
	}
	for _, v := range tts.FilterByLanguage(c.voices, c.language) {
		if v.Name == name {
			c.voice = name
			return nil
		}
	}
	return ErrVoiceNotInFilter
}

// SetPitch sets the pitch. It fails while speaking.
func (c *Controller) SetPitch(v float64) error {
	return c.setParam(func(p *tts.Params) { p.Pitch = v })
}

// SetRate sets the rate. It fails while speaking.
func (c *Controller) SetRate(v float64) error {
	return c.setParam(func(p *tts.Params) { p.Rate = v })
}

// StepPitch moves the pitch by delta steps of 0.1, clamped to range.
func (c *Controller) StepPitch(delta int) error {
	return c.setParam(func(p *tts.Params) { p.Pitch = tts.Step(p.Pitch, delta) })
}

// StepRate moves the rate by delta steps of 0.1, clamped to range.
func (c *Controller) StepRate(delta int) error {
	return c.setParam(func(p *tts.Params) { p.Rate = tts.Step(p.Rate, delta) })
}

func (c *Controller) setParam(update func(*tts.Params)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.speaking {
		return ErrParamsLocked
	}
	next := c.params
	update(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	c.params = next
	return nil
}

// BeginRewrite validates the manuscript and marks a rewrite in flight. The
// returned request carries a context derived from ctx.
func (c *Controller) BeginRewrite(ctx context.Context) (RewriteRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rewriting {
		return RewriteRequest{}, ErrRewriteInFlight
	}
	c.err = ""
	if strings.TrimSpace(c.manuscript) == "" {
		c.err = MsgEmptyManuscript
		return RewriteRequest{}, ErrEmptyManuscript
	}

	c.token++
	c.inflight = c.token
	c.rewriting = true
	c.result = ""
	rctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return RewriteRequest{Token: c.token, Text: c.manuscript, Tone: c.tone, ctx: rctx}, nil
}

// CompleteRewrite records the outcome of the rewrite with the given token.
// Responses for anything but the latest request are discarded and
// ErrStaleRewrite is returned.
func (c *Controller) CompleteRewrite(token uint64, text string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	outstanding := c.rewriting && token == c.inflight
	if outstanding {
		c.rewriting = false
		c.inflight = 0
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
	}
	if !outstanding || token != c.token {
		c.logger.Debug("Discarding stale rewrite response", "token", token, "latest", c.token)
		return ErrStaleRewrite
	}

	if err != nil {
		c.err = err.Error()
		c.logger.Warn("Rewrite failed", "error", err)
		return err
	}
	c.result = text
	return nil
}

// Rewrite runs a complete rewrite synchronously.
func (c *Controller) Rewrite(ctx context.Context) error {
	req, err := c.BeginRewrite(ctx)
	if err != nil {
		return err
	}
	text, err := c.rewriter.Rewrite(req.Context(), req.Text, req.Tone)
	return c.CompleteRewrite(req.Token, text, err)
}

// TogglePlayback stops speech when speaking and otherwise plays the
// rewritten text with the selected voice and parameters.
func (c *Controller) TogglePlayback() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = ""
	if c.speaking {
		c.speaking = false
		c.utterance = 0
		return c.speech.Stop()
	}

	if strings.TrimSpace(c.result) == "" {
		c.err = MsgPlayNoResult
		return ErrEmptyResult
	}

	u, err := c.speech.Play(c.result, c.voice, c.params)
	if err != nil {
		c.err = err.Error()
		c.logger.Warn("Play rejected", "error", err)
		return err
	}
	c.speaking = true
	c.utterance = u.ID
	return nil
}

// HandleSpeechEvent applies a speech lifecycle event. Events for utterances
// other than the current one are ignored.
func (c *Controller) HandleSpeechEvent(ev tts.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.UtteranceID != c.utterance || !c.speaking {
		return
	}
	switch ev.Kind {
	case tts.EventEnded, tts.EventStopped:
		c.speaking = false
		c.utterance = 0
	case tts.EventError:
		c.speaking = false
		c.utterance = 0
		c.err = ev.Message()
	}
}

// Download exports the rewritten text.
func (c *Controller) Download() (export.Blob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = ""
	if strings.TrimSpace(c.result) == "" {
		c.err = MsgExportNoResult
		return export.Blob{}, ErrEmptyResult
	}
	return export.Export(c.result)
}

// VoicesChanged replaces the voice list and auto-selects a voice when none
// is selected.
func (c *Controller) VoicesChanged(voices []tts.Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.voices = append([]tts.Voice(nil), voices...)
	if c.voice == "" {
		c.voice = tts.AutoSelect(c.voices, c.language)
		if c.voice != "" {
			c.logger.Debug("Auto-selected voice", "voice", c.voice, "language", c.language)
		}
	}
}

// SetError records a user-facing error raised outside the controller, such
// as a failed save.
func (c *Controller) SetError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = msg
}

// ClearError clears the error message.
func (c *Controller) ClearError() {
	c.SetError("")
}

// Err returns the current error message, or "".
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Result returns the rewritten text.
func (c *Controller) Result() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
