// Package piper speaks through the Piper neural TTS binary, playing its raw
// PCM output on the local audio device.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"

	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/tts/audio"
)

// Config configures the piper engine.
type Config struct {
	Binary    string
	ModelsDir string
	Timeout   time.Duration // Synthesis timeout per utterance
}

// Engine implements tts.Platform with piper and an audio sink.
type Engine struct {
	binary  string
	dir     string
	timeout time.Duration
	sink    audio.Sink
	logger  *log.Logger

	// synthesize runs piper; replaced in tests.
	synthesize func(ctx context.Context, model Model, text string, rate float64) ([]byte, error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
}

// New creates a piper engine. The binary is resolved from PATH and the
// models directory may use a leading "~".
func New(cfg Config, sink audio.Sink, logger *log.Logger) (*Engine, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("piper binary not found: %w", err)
	}

	dir, err := homedir.Expand(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("expand models dir: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	e := &Engine{
		binary:  path,
		dir:     dir,
		timeout: cfg.Timeout,
		sink:    sink,
		logger:  logger.WithPrefix("piper"),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	e.synthesize = e.runPiper
	return e, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return "piper" }

// Voices lists the models in the models directory.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	models, err := ScanModels(e.dir)
	if err != nil {
		return nil, err
	}
	voices := make([]tts.Voice, len(models))
	for i, m := range models {
		voices[i] = m.Voice()
	}
	return voices, nil
}

// VoicesChanged signals when models are added to or removed from the models
// directory. Watching starts on the first call.
func (e *Engine) VoicesChanged() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.watcher != nil {
		return e.changes
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		e.logger.Error("error creating fsnotify watcher", "error", err)
		return nil
	}
	if err := watcher.Add(e.dir); err != nil {
		e.logger.Error("error adding dir to fsnotify watcher", "error", err)
		_ = watcher.Close()
		return nil
	}

	e.watcher = watcher
	e.logger.Debug("fsnotify watching dir", "dir", e.dir)
	go e.watch(watcher)
	return e.changes
}

func (e *Engine) watch(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-e.done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isModelFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			e.logger.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			select {
			case e.changes <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Debug("fsnotify error", "dir", e.dir, "error", err)
		}
	}
}

// Close stops watching the models directory.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	default:
		close(e.done)
	}
	if e.watcher != nil {
		return e.watcher.Close()
	}
	return nil
}

// Speak synthesizes the utterance with piper and plays the result.
func (e *Engine) Speak(ctx context.Context, u tts.Utterance) error {
	model, err := e.resolveModel(u)
	if err != nil {
		return err
	}
	if u.Pitch != 0 && u.Pitch != tts.DefaultParam {
		e.logger.Debug("Pitch is not supported by piper, ignoring", "pitch", u.Pitch)
	}

	pcm, err := e.synthesize(ctx, model, u.Text, u.Rate)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return tts.NewSpeechError(tts.CodeSynthesisFailed, err)
	}

	if err := e.sink.Play(ctx, pcm, model.SampleRate); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return tts.NewSpeechError(tts.CodeSynthesisFailed, err)
	}
	return nil
}

// resolveModel finds the model for the utterance's voice, or the first
// model when no voice is bound.
func (e *Engine) resolveModel(u tts.Utterance) (Model, error) {
	models, err := ScanModels(e.dir)
	if err != nil {
		return Model{}, tts.NewSpeechError(tts.CodeVoiceUnavailable, err)
	}
	if len(models) == 0 {
		return Model{}, tts.NewSpeechError(tts.CodeVoiceUnavailable, errors.New("no piper models installed"))
	}
	if u.Voice == nil {
		return models[0], nil
	}
	for _, m := range models {
		if m.Path == u.Voice.ID || m.Name == u.Voice.Name {
			return m, nil
		}
	}
	return Model{}, tts.NewSpeechError(tts.CodeVoiceUnavailable,
		fmt.Errorf("model %q not found in %s", u.Voice.Name, e.dir))
}

func (e *Engine) runPiper(ctx context.Context, model Model, text string, rate float64) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := buildArgs(model, rate)
	e.logger.Debug("Running piper", "args", args)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = strings.NewReader(text + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("piper failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, errors.New("no audio generated")
	}
	e.logger.Debug("Generated audio", "bytes", len(out), "duration", audio.Duration(out, model.SampleRate))
	return out, nil
}

// buildArgs maps a model and rate onto piper flags. Piper's length scale is
// the inverse of the speaking rate.
func buildArgs(model Model, rate float64) []string {
	args := []string{"--model", model.Path, "--output-raw"}
	if model.ConfigPath != "" {
		args = append(args, "--config", model.ConfigPath)
	}
	if rate > 0 && rate != tts.DefaultParam {
		scale := 1 / rate
		args = append(args, "--length_scale", strconv.FormatFloat(scale, 'f', 2, 64))
	}
	return args
}
