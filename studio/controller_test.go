package studio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/echoverse/echoverse/export"
	"github.com/echoverse/echoverse/rewrite"
	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/tts/engines/mock"
)

// fakeRewriter returns canned results and records requests.
type fakeRewriter struct {
	mu    sync.Mutex
	out   string
	err   error
	texts []string
	tones []rewrite.Tone
}

func (f *fakeRewriter) Rewrite(ctx context.Context, text string, tone rewrite.Tone) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.tones = append(f.tones, tone)
	return f.out, f.err
}

// fakeSpeech records play and stop calls.
type fakeSpeech struct {
	plays   []tts.Utterance
	voices  []string
	stops   int
	playErr error
	nextID  uint64
}

func (f *fakeSpeech) Play(text, voiceName string, p tts.Params) (tts.Utterance, error) {
	if f.playErr != nil {
		return tts.Utterance{}, f.playErr
	}
	f.nextID++
	u := tts.Utterance{ID: f.nextID, Text: text, Pitch: p.Pitch, Rate: p.Rate}
	f.plays = append(f.plays, u)
	f.voices = append(f.voices, voiceName)
	return u, nil
}

func (f *fakeSpeech) Stop() error {
	f.stops++
	return nil
}

type staticVoices []tts.Voice

func (s staticVoices) Voices() []tts.Voice { return s }

var testVoices = staticVoices{
	{Name: "Daniel", Language: "en-GB"},
	{Name: "Samantha", Language: "en-US"},
	{Name: "Alex", Language: "en-US"},
	{Name: "Monica", Language: "es-ES"},
	{Name: "Paulina", Language: "es-MX"},
}

func newTestController(r Rewriter, s Speech) *Controller {
	return New(Deps{Rewriter: r, Speech: s, Catalog: testVoices})
}

func TestNewDefaults(t *testing.T) {
	c := newTestController(&fakeRewriter{}, &fakeSpeech{})
	v := c.Snapshot()

	if v.Manuscript != DefaultManuscript || v.Tone != rewrite.ToneNarrative || v.Language != "en-US" {
		t.Errorf("Unexpected defaults: %+v", v)
	}
	if v.Params != tts.DefaultParams() {
		t.Errorf("Expected default params, got %+v", v.Params)
	}
	// Auto-select takes the first voice sharing the primary subtag.
	if v.Voice != "Daniel" {
		t.Errorf("Expected auto-selected voice Daniel, got %q", v.Voice)
	}
	if len(v.Voices) != 2 || v.AllVoices != 5 {
		t.Errorf("Expected 2 filtered of 5 voices, got %d of %d", len(v.Voices), v.AllVoices)
	}
}

func TestRewriteFlagResets(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		wantRes string
		wantErr string
	}{
		{"success", "Greetings, world.", nil, "Greetings, world.", ""},
		{"failure", "", &rewrite.Error{Kind: rewrite.KindUnreachable}, "", "Could not connect to the AI service. Please check your network connection and try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&fakeRewriter{out: tt.out, err: tt.err}, &fakeSpeech{})

			_ = c.Rewrite(context.Background())

			v := c.Snapshot()
			if v.Rewriting {
				t.Error("Expected rewriting=false after completion")
			}
			if v.Result != tt.wantRes {
				t.Errorf("Result = %q, want %q", v.Result, tt.wantRes)
			}
			if v.Err != tt.wantErr {
				t.Errorf("Err = %q, want %q", v.Err, tt.wantErr)
			}
		})
	}
}

func TestRewriteEmptyManuscript(t *testing.T) {
	r := &fakeRewriter{out: "x"}
	c := newTestController(r, &fakeSpeech{})
	c.SetManuscript("   \n")

	if err := c.Rewrite(context.Background()); !errors.Is(err, ErrEmptyManuscript) {
		t.Fatalf("Expected ErrEmptyManuscript, got %v", err)
	}
	if c.Err() != MsgEmptyManuscript {
		t.Errorf("Err = %q", c.Err())
	}
	if len(r.texts) != 0 {
		t.Error("Rewriter must not be called for an empty manuscript")
	}
	if c.Snapshot().Rewriting {
		t.Error("Expected rewriting=false")
	}
}

func TestBeginRewriteClearsState(t *testing.T) {
	c := newTestController(&fakeRewriter{out: "first"}, &fakeSpeech{})
	if err := c.Rewrite(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.SetError("old error")

	req, err := c.BeginRewrite(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	v := c.Snapshot()
	if !v.Rewriting || v.Result != "" || v.Err != "" {
		t.Errorf("Expected rewriting with cleared result and error, got %+v", v)
	}
	if req.Text != DefaultManuscript || req.Tone != rewrite.ToneNarrative {
		t.Errorf("Unexpected request %+v", req)
	}

	if _, err := c.BeginRewrite(context.Background()); !errors.Is(err, ErrRewriteInFlight) {
		t.Errorf("Expected ErrRewriteInFlight, got %v", err)
	}
}

func TestStaleRewriteDiscarded(t *testing.T) {
	c := newTestController(&fakeRewriter{}, &fakeSpeech{})

	req, err := c.BeginRewrite(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Editing mid-flight abandons the request but keeps it outstanding.
	c.SetManuscript("A different story.")
	if !c.Snapshot().Rewriting {
		t.Error("Expected the abandoned rewrite to stay in flight")
	}
	select {
	case <-req.Context().Done():
	default:
		t.Error("Expected the abandoned request to be canceled")
	}
	if _, err := c.BeginRewrite(context.Background()); !errors.Is(err, ErrRewriteInFlight) {
		t.Errorf("Expected ErrRewriteInFlight while the abandoned request is outstanding, got %v", err)
	}

	if err := c.CompleteRewrite(req.Token, "late answer", nil); !errors.Is(err, ErrStaleRewrite) {
		t.Errorf("Expected ErrStaleRewrite, got %v", err)
	}
	if c.Result() != "" {
		t.Errorf("Stale response overwrote result: %q", c.Result())
	}
	if c.Snapshot().Rewriting {
		t.Error("Expected rewriting=false once the abandoned response arrived")
	}

	// A fresh request completes normally.
	req2, err := c.BeginRewrite(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if req2.Token == req.Token {
		t.Error("Expected a new token")
	}
	if err := c.CompleteRewrite(req2.Token, "fresh", nil); err != nil {
		t.Fatal(err)
	}
	if c.Result() != "fresh" {
		t.Errorf("Result = %q", c.Result())
	}

	// A duplicate completion is stale.
	if err := c.CompleteRewrite(req2.Token, "again", nil); !errors.Is(err, ErrStaleRewrite) {
		t.Errorf("Expected ErrStaleRewrite for a duplicate, got %v", err)
	}
	if c.Result() != "fresh" {
		t.Errorf("Result = %q", c.Result())
	}
}

func TestTogglePlaybackEmptyResult(t *testing.T) {
	s := &fakeSpeech{}
	c := newTestController(&fakeRewriter{}, s)

	if err := c.TogglePlayback(); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("Expected ErrEmptyResult, got %v", err)
	}
	if c.Err() != MsgPlayNoResult {
		t.Errorf("Err = %q", c.Err())
	}
	if len(s.plays) != 0 || c.Snapshot().Speaking {
		t.Error("Expected no playback")
	}
}

func TestToggleTwiceIsPlayThenStop(t *testing.T) {
	s := &fakeSpeech{}
	c := newTestController(&fakeRewriter{out: "Some words."}, s)
	if err := c.Rewrite(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := c.TogglePlayback(); err != nil {
		t.Fatal(err)
	}
	if !c.Snapshot().Speaking || len(s.plays) != 1 {
		t.Fatal("Expected speaking after first toggle")
	}

	if err := c.TogglePlayback(); err != nil {
		t.Fatal(err)
	}
	if c.Snapshot().Speaking || s.stops != 1 {
		t.Errorf("Expected stopped after second toggle (stops=%d)", s.stops)
	}
}

func TestStopClearsError(t *testing.T) {
	s := &fakeSpeech{}
	c := newTestController(&fakeRewriter{out: "Some words."}, s)
	if err := c.Rewrite(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.TogglePlayback(); err != nil {
		t.Fatal(err)
	}

	c.SetError("Could not save echoverse_script.txt")
	if err := c.TogglePlayback(); err != nil {
		t.Fatal(err)
	}
	if got := c.Err(); got != "" {
		t.Errorf("Expected stop to clear the error, got %q", got)
	}
}

func TestTogglePlaybackPlayError(t *testing.T) {
	s := &fakeSpeech{playErr: tts.ErrAlreadySpeaking}
	c := newTestController(&fakeRewriter{out: "text"}, s)
	if err := c.Rewrite(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := c.TogglePlayback(); !errors.Is(err, tts.ErrAlreadySpeaking) {
		t.Errorf("Expected ErrAlreadySpeaking, got %v", err)
	}
	if c.Snapshot().Speaking || c.Err() == "" {
		t.Error("Expected idle with an error message")
	}
}

func TestHandleSpeechEvent(t *testing.T) {
	tests := []struct {
		name    string
		ev      func(id uint64) tts.Event
		wantErr string
	}{
		{"ended", func(id uint64) tts.Event { return tts.Event{Kind: tts.EventEnded, UtteranceID: id} }, ""},
		{"stopped", func(id uint64) tts.Event { return tts.Event{Kind: tts.EventStopped, UtteranceID: id} }, ""},
		{"error", func(id uint64) tts.Event {
			return tts.Event{Kind: tts.EventError, UtteranceID: id, Err: tts.NewSpeechError(tts.CodeVoiceUnavailable, nil)}
		}, "The selected voice is not available. Please choose another."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSpeech{}
			c := newTestController(&fakeRewriter{out: "text"}, s)
			if err := c.Rewrite(context.Background()); err != nil {
				t.Fatal(err)
			}
			if err := c.TogglePlayback(); err != nil {
				t.Fatal(err)
			}
			id := s.plays[0].ID

			// Events for other utterances are ignored.
			c.HandleSpeechEvent(tt.ev(id + 100))
			if !c.Snapshot().Speaking {
				t.Fatal("Event for another utterance changed state")
			}

			c.HandleSpeechEvent(tt.ev(id))
			v := c.Snapshot()
			if v.Speaking {
				t.Error("Expected speaking=false")
			}
			if v.Err != tt.wantErr {
				t.Errorf("Err = %q, want %q", v.Err, tt.wantErr)
			}
		})
	}
}

func TestSetLanguageResetsVoice(t *testing.T) {
	c := newTestController(&fakeRewriter{}, &fakeSpeech{})

	if err := c.SetLanguage("es-MX"); err != nil {
		t.Fatal(err)
	}
	if v := c.Snapshot(); v.Voice != "Paulina" || v.Language != "es-MX" {
		t.Errorf("Expected Paulina for es-MX, got %q", v.Voice)
	}

	if err := c.SetLanguage("ja-JP"); err != nil {
		t.Fatal(err)
	}
	if v := c.Snapshot(); v.Voice != "" || len(v.Voices) != 0 {
		t.Errorf("Expected no voice for ja-JP, got %q", v.Voice)
	}

	if err := c.SetLanguage("xx-YY"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("Expected ErrUnknownLanguage, got %v", err)
	}
}

func TestSetVoiceMustMatchLanguage(t *testing.T) {
	c := newTestController(&fakeRewriter{}, &fakeSpeech{})

	if err := c.SetVoice("Alex"); err != nil {
		t.Errorf("SetVoice(Alex) failed: %v", err)
	}
	if err := c.SetVoice("Monica"); !errors.Is(err, ErrVoiceNotInFilter) {
		t.Errorf("Expected ErrVoiceNotInFilter, got %v", err)
	}
	if c.Snapshot().Voice != "Alex" {
		t.Error("Rejected voice must not change selection")
	}
	if err := c.SetVoice(""); err != nil || c.Snapshot().Voice != "" {
		t.Errorf("Expected empty selection, got %q (%v)", c.Snapshot().Voice, err)
	}
}

func TestVoicesChangedAutoSelectOnlyWhenEmpty(t *testing.T) {
	c := New(Deps{Rewriter: &fakeRewriter{}, Speech: &fakeSpeech{}})
	if c.Snapshot().Voice != "" {
		t.Fatal("Expected no voice before the list arrives")
	}

	c.VoicesChanged(testVoices)
	if c.Snapshot().Voice != "Daniel" {
		t.Errorf("Expected auto-selected Daniel, got %q", c.Snapshot().Voice)
	}

	c.VoicesChanged([]tts.Voice{{Name: "Newcomer", Language: "en-US"}})
	if c.Snapshot().Voice != "Daniel" {
		t.Error("A selected voice must survive a refresh")
	}
}

func TestParamsLockedWhileSpeaking(t *testing.T) {
	s := &fakeSpeech{}
	c := newTestController(&fakeRewriter{out: "text"}, s)

	if err := c.SetPitch(1.2); err != nil {
		t.Fatal(err)
	}
	if err := c.StepRate(-2); err != nil {
		t.Fatal(err)
	}
	if err := c.SetRate(2.5); !errors.Is(err, tts.ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams, got %v", err)
	}

	if err := c.Rewrite(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.TogglePlayback(); err != nil {
		t.Fatal(err)
	}

	if err := c.SetPitch(1.5); !errors.Is(err, ErrParamsLocked) {
		t.Errorf("Expected ErrParamsLocked, got %v", err)
	}
	if err := c.StepPitch(1); !errors.Is(err, ErrParamsLocked) {
		t.Errorf("Expected ErrParamsLocked, got %v", err)
	}
	if p := c.Snapshot().Params; p.Pitch != 1.2 || p.Rate != 0.8 {
		t.Errorf("Params changed while speaking: %+v", p)
	}
}

func TestDownload(t *testing.T) {
	c := newTestController(&fakeRewriter{out: "The script.\nLine two."}, &fakeSpeech{})

	if _, err := c.Download(); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("Expected ErrEmptyResult, got %v", err)
	}
	if c.Err() != MsgExportNoResult {
		t.Errorf("Err = %q", c.Err())
	}

	if err := c.Rewrite(context.Background()); err != nil {
		t.Fatal(err)
	}
	b, err := c.Download()
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != export.FileName || string(b.Data) != "The script.\nLine two." {
		t.Errorf("Unexpected blob %q %q", b.Name, b.Data)
	}
	if c.Err() != "" {
		t.Errorf("Expected cleared error, got %q", c.Err())
	}
}

func TestViewWordCounts(t *testing.T) {
	v := View{Manuscript: "one two  three\nfour", Result: ""}
	if v.ManuscriptWords() != 4 || v.ResultStats().Words != 0 {
		t.Errorf("Unexpected counts %d %d", v.ManuscriptWords(), v.ResultStats().Words)
	}
	if v.CanPlay() {
		t.Error("Expected play disabled without a result")
	}
}

func TestViewResultStats(t *testing.T) {
	slow := View{Result: "The door creaked. Nobody answered!", Params: tts.Params{Pitch: 1, Rate: 0.5}}
	fast := slow
	fast.Params.Rate = 2

	s := slow.ResultStats()
	if s.Words != 5 || s.Sentences != 2 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if fast.ResultStats().Duration >= s.Duration {
		t.Errorf("Expected a faster rate to shorten the estimate: %v >= %v", fast.ResultStats().Duration, s.Duration)
	}
}

// TestHelloWorldScenario runs the full flow against the real speech
// controller and the mock engine.
func TestHelloWorldScenario(t *testing.T) {
	engine := mock.New(time.Hour)
	catalog := tts.NewCatalog(engine, nil)
	if _, err := catalog.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	speech := tts.NewController(engine, catalog)
	defer speech.Shutdown()

	r := &fakeRewriter{out: "Greetings, world."}
	c := New(Deps{Rewriter: r, Speech: speech, Catalog: catalog})

	c.SetManuscript("Hello world")
	if err := c.SetTone(rewrite.ToneFormal); err != nil {
		t.Fatal(err)
	}
	if err := c.Rewrite(context.Background()); err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}

	if r.texts[0] != "Hello world" || r.tones[0] != rewrite.ToneFormal {
		t.Errorf("Unexpected request %q %q", r.texts[0], r.tones[0])
	}
	prompt := rewrite.BuildPrompt(r.texts[0], r.tones[0])
	if !strings.Contains(prompt, "Formal") || !strings.Contains(prompt, "Hello world") {
		t.Error("Prompt must contain tone and text")
	}
	if c.Result() != "Greetings, world." {
		t.Fatalf("Result = %q", c.Result())
	}

	if err := c.SetVoice("Mock Voice US"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetPitch(1.2); err != nil {
		t.Fatal(err)
	}
	if err := c.SetRate(0.8); err != nil {
		t.Fatal(err)
	}
	if err := c.TogglePlayback(); err != nil {
		t.Fatalf("TogglePlayback failed: %v", err)
	}

	if speech.State() != tts.StateSpeaking {
		t.Fatalf("Expected speaking, got %s", speech.State())
	}
	u, ok := speech.Current()
	if !ok {
		t.Fatal("Expected a live utterance")
	}
	if u.Text != "Greetings, world." || u.Pitch != 1.2 || u.Rate != 0.8 {
		t.Errorf("Unexpected utterance %+v", u)
	}
	if u.Voice == nil || u.Voice.Name != "Mock Voice US" {
		t.Errorf("Expected Mock Voice US, got %+v", u.Voice)
	}

	// Stop and feed the events back.
	if err := c.TogglePlayback(); err != nil {
		t.Fatal(err)
	}
	if speech.State() != tts.StateIdle || c.Snapshot().Speaking {
		t.Error("Expected idle after stop")
	}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-speech.Events():
			c.HandleSpeechEvent(ev)
		case <-time.After(time.Second):
			t.Fatal("Expected speech events")
		}
	}
	if c.Err() != "" {
		t.Errorf("Unexpected error %q", c.Err())
	}
}
