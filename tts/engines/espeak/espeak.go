// Package espeak speaks through the eSpeak NG (or classic eSpeak) command
// line synthesizer.
package espeak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/echoverse/echoverse/tts"
)

// Defaults of the espeak command line.
const (
	defaultPitch = 50  // -p, range 0-99
	defaultSpeed = 175 // -s, words per minute
	minSpeed     = 80
)

// ErrNotFound is returned when no espeak executable can be located.
var ErrNotFound = errors.New("espeak-ng or espeak not found in PATH")

// Engine implements tts.Platform on top of the espeak binary.
type Engine struct {
	binary string
	logger *log.Logger
}

// New locates the espeak binary. An empty binary tries espeak-ng first and
// then espeak.
func New(binary string, logger *log.Logger) (*Engine, error) {
	path, err := findExecutable(binary)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{binary: path, logger: logger.WithPrefix("espeak")}, nil
}

func findExecutable(binary string) (string, error) {
	candidates := []string{"espeak-ng", "espeak"}
	if binary != "" {
		candidates = []string{binary}
	}
	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	if binary != "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, binary)
	}
	return "", ErrNotFound
}

// Name returns the engine name.
func (e *Engine) Name() string { return "espeak" }

// Voices lists the voices reported by `espeak --voices`.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	out, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("espeak --voices: %w", err)
	}
	return parseVoices(string(out)), nil
}

// VoicesChanged returns nil; the espeak voice list is static.
func (e *Engine) VoicesChanged() <-chan struct{} {
	return nil
}

// Speak runs espeak for the utterance and waits for it to exit. Canceling
// ctx kills the process.
func (e *Engine) Speak(ctx context.Context, u tts.Utterance) error {
	args := buildArgs(u)
	e.logger.Debug("Speaking", "args", args, "chars", len(u.Text))

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = strings.NewReader(u.Text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		e.logger.Debug("espeak failed", "error", err, "stderr", msg)
		return tts.NewSpeechError(classify(msg), fmt.Errorf("%w: %s", err, msg))
	}
	// espeak exits 0 for an unknown voice and only complains on stderr.
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		if code := classify(msg); code != tts.CodeSynthesisFailed {
			return tts.NewSpeechError(code, errors.New(msg))
		}
		e.logger.Warn("espeak reported a problem", "stderr", msg)
	}
	return nil
}

// buildArgs maps an utterance onto espeak flags. Text is passed on stdin.
func buildArgs(u tts.Utterance) []string {
	var args []string
	if u.Voice != nil && u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}
	args = append(args,
		"-p", strconv.Itoa(pitchValue(u.Pitch)),
		"-s", strconv.Itoa(speedValue(u.Rate)),
	)
	return args
}

func pitchValue(pitch float64) int {
	if pitch <= 0 {
		return defaultPitch
	}
	p := int(math.Round(defaultPitch * pitch))
	return min(max(p, 0), 99)
}

func speedValue(rate float64) int {
	if rate <= 0 {
		return defaultSpeed
	}
	return max(int(math.Round(defaultSpeed*rate)), minSpeed)
}

// classify maps espeak diagnostics to speech error codes.
func classify(stderr string) tts.ErrorCode {
	msg := strings.ToLower(stderr)
	switch {
	case strings.Contains(msg, "voice"):
		return tts.CodeVoiceUnavailable
	case strings.Contains(msg, "language"), strings.Contains(msg, "dictionary"):
		return tts.CodeLanguageUnavailable
	default:
		return tts.CodeSynthesisFailed
	}
}

// parseVoices parses the table printed by `espeak --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US
func parseVoices(output string) []tts.Voice {
	var voices []tts.Voice
	seen := make(map[string]bool)

	for i, line := range strings.Split(output, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		id := fields[1]
		name := strings.ReplaceAll(fields[3], "_", " ")
		if seen[name] {
			// Names must be unique; disambiguate with the language code.
			name = name + " [" + id + "]"
		}
		seen[name] = true

		voices = append(voices, tts.Voice{
			ID:       id,
			Name:     name,
			Language: tts.NormalizeTag(id),
			Gender:   gender(fields[2]),
		})
	}
	return voices
}

func gender(ageGender string) string {
	_, g, _ := strings.Cut(ageGender, "/")
	switch strings.ToUpper(g) {
	case "M":
		return "male"
	case "F":
		return "female"
	default:
		return ""
	}
}
