package piper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/echoverse/echoverse/tts"
)

func writeModel(t *testing.T, dir, name, config string) string {
	t.Helper()
	path := filepath.Join(dir, name+".onnx")
	if err := os.WriteFile(path, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}
	if config != "" {
		if err := os.WriteFile(path+".json", []byte(config), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestScanModels(t *testing.T) {
	dir := t.TempDir()

	writeModel(t, dir, "en_US-lessac-medium", `{
		"dataset": "lessac",
		"audio": {"sample_rate": 22050, "quality": "medium"},
		"language": {"code": "en_US"}
	}`)
	writeModel(t, dir, "de_DE-thorsten-high", `{
		"dataset": "thorsten",
		"audio": {"sample_rate": 16000, "quality": "high"},
		"espeak": {"voice": "de"}
	}`)
	writeModel(t, dir, "es_MX-claude-low", "")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	models, err := ScanModels(dir)
	if err != nil {
		t.Fatalf("ScanModels failed: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("Expected 3 models, got %d", len(models))
	}

	// Sorted by name.
	names := []string{models[0].Name, models[1].Name, models[2].Name}
	want := []string{"de_DE-thorsten-high", "en_US-lessac-medium", "es_MX-claude-low"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Names = %v, want %v", names, want)
	}

	de := models[0]
	if de.Language != "de" || de.SampleRate != 16000 || de.Quality != "high" || de.Dataset != "thorsten" {
		t.Errorf("Unexpected de model: %+v", de)
	}

	en := models[1]
	if en.Language != "en-US" || en.SampleRate != 22050 || en.ConfigPath == "" {
		t.Errorf("Unexpected en model: %+v", en)
	}

	es := models[2]
	if es.Language != "es-MX" || es.SampleRate != defaultSampleRate || es.ConfigPath != "" {
		t.Errorf("Unexpected es model: %+v", es)
	}
}

func TestScanModelsMissingDir(t *testing.T) {
	if _, err := ScanModels(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestBuildArgs(t *testing.T) {
	m := Model{Path: "/m/a.onnx", ConfigPath: "/m/a.onnx.json"}

	tests := []struct {
		name string
		rate float64
		want []string
	}{
		{"default rate", 1, []string{"--model", "/m/a.onnx", "--output-raw", "--config", "/m/a.onnx.json"}},
		{"faster", 2, []string{"--model", "/m/a.onnx", "--output-raw", "--config", "/m/a.onnx.json", "--length_scale", "0.50"}},
		{"slower", 0.8, []string{"--model", "/m/a.onnx", "--output-raw", "--config", "/m/a.onnx.json", "--length_scale", "1.25"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildArgs(m, tt.rate); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

type recordingSink struct {
	pcm  []byte
	rate int
	err  error
}

func (s *recordingSink) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	s.pcm = pcm
	s.rate = sampleRate
	return s.err
}

func newTestEngine(t *testing.T, sink *recordingSink) *Engine {
	t.Helper()
	e := &Engine{
		dir:     t.TempDir(),
		sink:    sink,
		logger:  log.New(os.Stderr),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	e.synthesize = func(ctx context.Context, model Model, text string, rate float64) ([]byte, error) {
		return []byte{1, 2, 3, 4}, nil
	}
	return e
}

func TestSpeakPlaysSynthesizedAudio(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(t, sink)
	path := writeModel(t, e.dir, "en_US-test-low", `{"audio": {"sample_rate": 16000}}`)

	v := tts.Voice{ID: path, Name: "en_US-test-low"}
	if err := e.Speak(context.Background(), tts.Utterance{Text: "hi", Voice: &v, Rate: 1, Pitch: 1}); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if len(sink.pcm) != 4 || sink.rate != 16000 {
		t.Errorf("Sink got %d bytes at %d Hz", len(sink.pcm), sink.rate)
	}
}

func TestSpeakErrors(t *testing.T) {
	t.Run("no models", func(t *testing.T) {
		e := newTestEngine(t, &recordingSink{})
		err := e.Speak(context.Background(), tts.Utterance{Text: "hi"})
		assertCode(t, err, tts.CodeVoiceUnavailable)
	})

	t.Run("unknown voice", func(t *testing.T) {
		e := newTestEngine(t, &recordingSink{})
		writeModel(t, e.dir, "en_US-a-low", "")
		err := e.Speak(context.Background(), tts.Utterance{Text: "hi", Voice: &tts.Voice{ID: "x", Name: "x"}})
		assertCode(t, err, tts.CodeVoiceUnavailable)
	})

	t.Run("synthesis failure", func(t *testing.T) {
		e := newTestEngine(t, &recordingSink{})
		writeModel(t, e.dir, "en_US-a-low", "")
		e.synthesize = func(ctx context.Context, model Model, text string, rate float64) ([]byte, error) {
			return nil, errors.New("boom")
		}
		err := e.Speak(context.Background(), tts.Utterance{Text: "hi"})
		assertCode(t, err, tts.CodeSynthesisFailed)
	})

	t.Run("canceled", func(t *testing.T) {
		e := newTestEngine(t, &recordingSink{})
		writeModel(t, e.dir, "en_US-a-low", "")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := e.Speak(ctx, tts.Utterance{Text: "hi"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestVoicesChangedOnNewModel(t *testing.T) {
	e := newTestEngine(t, &recordingSink{})
	defer e.Close()

	changes := e.VoicesChanged()
	if changes == nil {
		t.Skip("fsnotify unavailable")
	}

	writeModel(t, e.dir, "fr_FR-new-low", "")

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a change notification after adding a model")
	}

	voices, err := e.Voices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 1 || voices[0].Language != "fr-FR" {
		t.Errorf("Unexpected voices: %+v", voices)
	}
}

func assertCode(t *testing.T, err error, code tts.ErrorCode) {
	t.Helper()
	var se *tts.SpeechError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *tts.SpeechError, got %T (%v)", err, err)
	}
	if se.Code != code {
		t.Errorf("Expected code %s, got %s", code, se.Code)
	}
}
