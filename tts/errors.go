package tts

import (
	"errors"
	"fmt"
)

// Common errors for the speech system.
var (
	ErrEmptyText       = errors.New("no text to speak")
	ErrAlreadySpeaking = errors.New("an utterance was playing and has been stopped")
	ErrInvalidParams   = errors.New("invalid playback parameters")
	ErrNoEngine        = errors.New("no speech engine configured")
	ErrShutdown        = errors.New("speech controller has been shut down")
	ErrVoiceNotFound   = errors.New("requested voice not found")
)

// ErrorCode classifies a synthesis failure reported by the platform.
type ErrorCode string

// Known platform error codes.
const (
	CodeSynthesisFailed     ErrorCode = "synthesis-failed"
	CodeLanguageUnavailable ErrorCode = "language-unavailable"
	CodeVoiceUnavailable    ErrorCode = "voice-unavailable"
	CodeInterrupted         ErrorCode = "interrupted"
)

// SpeechError is returned by engines when synthesis or playback fails.
type SpeechError struct {
	Code ErrorCode
	Err  error // Underlying cause, if any
}

// NewSpeechError creates a speech error with the given code and cause.
func NewSpeechError(code ErrorCode, err error) *SpeechError {
	return &SpeechError{Code: code, Err: err}
}

// Error implements the error interface with the user-facing message.
func (e *SpeechError) Error() string {
	return e.Message()
}

// Unwrap returns the underlying error.
func (e *SpeechError) Unwrap() error {
	return e.Err
}

// Message maps the error code to a user-facing message.
func (e *SpeechError) Message() string {
	switch e.Code {
	case CodeSynthesisFailed:
		return "Speech synthesis failed. Please try a different voice, language, or shorter text."
	case CodeLanguageUnavailable:
		return "The selected language is not supported by your speech engine."
	case CodeVoiceUnavailable:
		return "The selected voice is not available. Please choose another."
	case CodeInterrupted:
		return "Audio playback was interrupted. Please try again."
	default:
		return fmt.Sprintf("An unknown speech error occurred: %s", e.Code)
	}
}

// AsSpeechError converts any engine failure into a *SpeechError. Errors that
// are not already classified are reported as synthesis failures.
func AsSpeechError(err error) *SpeechError {
	if err == nil {
		return nil
	}
	var se *SpeechError
	if errors.As(err, &se) {
		return se
	}
	return NewSpeechError(CodeSynthesisFailed, err)
}
