// Package tts coordinates speech playback for Echoverse: the voice catalog,
// the single-utterance playback state machine and the engine interfaces it
// drives.
package tts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// EventKind identifies a playback lifecycle event.
type EventKind int

const (
	// EventStarted is emitted when an utterance becomes live.
	EventStarted EventKind = iota
	// EventStopped is emitted when the caller stops playback.
	EventStopped
	// EventEnded is emitted when the platform finishes an utterance.
	EventEnded
	// EventError is emitted when the platform reports a failure.
	EventError
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event reports a playback transition to the application.
type Event struct {
	Kind        EventKind
	UtteranceID uint64
	Err         *SpeechError // Set for EventError
	At          time.Time
}

// Message returns the user-facing message for error events.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Message()
}

// Controller owns the Idle/Speaking state machine and the single live
// utterance.
type Controller struct {
	engine  SpeechEngine
	catalog *Catalog
	logger  *log.Logger

	mu      sync.Mutex
	machine *StateMachine
	nextID  uint64
	live    *liveUtterance
	closed  bool
	since   time.Time // when the controller last entered Speaking

	events chan Event
	wg     sync.WaitGroup
}

type liveUtterance struct {
	utterance Utterance
	cancel    context.CancelFunc
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.events = make(chan Event, n)
		}
	}
}

// NewController creates a speech controller. The catalog resolves voice
// names at play time and may be nil, in which case the engine default voice
// is always used.
func NewController(engine SpeechEngine, catalog *Catalog, opts ...ControllerOption) *Controller {
	c := &Controller{
		engine:  engine,
		catalog: catalog,
		logger:  log.Default(),
		machine: NewStateMachine(),
		events:  make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithPrefix("speech")

	c.machine.OnEnter(StateSpeaking, func() { c.since = time.Now() })
	c.machine.OnExit(StateSpeaking, func() {
		c.logger.Debug("Playback idle", "spoke", time.Since(c.since).Round(time.Millisecond))
	})
	return c
}

// Events returns the channel on which lifecycle events are delivered.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// State returns the current playback state.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// Current returns the live utterance, if any.
func (c *Controller) Current() (Utterance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil {
		return Utterance{}, false
	}
	return c.live.utterance, true
}

// Play starts speaking text with the named voice and parameters. The voice
// is looked up in the current catalog; when it is no longer present the
// engine's default voice is used.
//
// Calling Play while speaking stops the live utterance without starting a
// new one and returns ErrAlreadySpeaking.
func (c *Controller) Play(text, voiceName string, p Params) (Utterance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Utterance{}, ErrShutdown
	}
	if c.live != nil {
		c.stopLocked()
		return Utterance{}, ErrAlreadySpeaking
	}

	if isBlank(text) {
		return Utterance{}, ErrEmptyText
	}
	if err := p.Validate(); err != nil {
		return Utterance{}, err
	}
	if c.engine == nil {
		return Utterance{}, ErrNoEngine
	}

	c.nextID++
	u := Utterance{
		ID:    c.nextID,
		Text:  text,
		Pitch: p.Pitch,
		Rate:  p.Rate,
	}
	if c.catalog != nil {
		if v, ok := c.catalog.Find(voiceName); ok {
			u.Voice = &v
		} else if voiceName != "" {
			c.logger.Debug("Voice not in catalog, using engine default", "voice", voiceName)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.live = &liveUtterance{utterance: u, cancel: cancel}
	c.machine.Transition(StateSpeaking)

	c.logger.Debug("Utterance started",
		"id", u.ID,
		"engine", c.engine.Name(),
		"voice", voiceName,
		"pitch", u.Pitch,
		"rate", u.Rate,
		"chars", len(u.Text))
	c.emit(Event{Kind: EventStarted, UtteranceID: u.ID})

	c.wg.Add(1)
	go c.speak(ctx, u)

	return u, nil
}

// Stop cancels the live utterance and returns to Idle immediately. It is a
// no-op when nothing is playing.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return nil
}

func (c *Controller) stopLocked() {
	if c.live == nil {
		return
	}

	id := c.live.utterance.ID
	c.live.cancel()
	c.live = nil
	c.machine.Transition(StateIdle)

	c.logger.Debug("Utterance stopped", "id", id)
	c.emit(Event{Kind: EventStopped, UtteranceID: id})
}

// Shutdown stops playback, waits for engine goroutines to return and closes
// the event channel.
func (c *Controller) Shutdown() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	close(c.events)
	return nil
}

func (c *Controller) speak(ctx context.Context, u Utterance) {
	defer c.wg.Done()

	err := c.engine.Speak(ctx, u)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A stopped or replaced utterance must not report anything further.
	if c.live == nil || c.live.utterance.ID != u.ID {
		return
	}

	c.live.cancel()
	c.live = nil
	c.machine.Transition(StateIdle)

	switch {
	case err == nil:
		c.logger.Debug("Utterance ended", "id", u.ID)
		c.emit(Event{Kind: EventEnded, UtteranceID: u.ID})
	case errors.Is(err, context.Canceled):
		// The engine gave up on its own without a platform error code.
		se := NewSpeechError(CodeInterrupted, err)
		c.logger.Warn("Utterance interrupted", "id", u.ID)
		c.emit(Event{Kind: EventError, UtteranceID: u.ID, Err: se})
	default:
		se := AsSpeechError(err)
		c.logger.Error("Speech engine error", "id", u.ID, "code", se.Code, "error", err)
		c.emit(Event{Kind: EventError, UtteranceID: u.ID, Err: se})
	}
}

// emit delivers an event without blocking the state machine. Callers hold
// c.mu.
func (c *Controller) emit(ev Event) {
	if c.closed {
		return
	}
	ev.At = time.Now()
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("Dropping speech event, channel full", "kind", ev.Kind, "id", ev.UtteranceID)
	}
}
