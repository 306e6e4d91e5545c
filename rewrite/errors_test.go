package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"gemini invalid key message", errors.New("Error 400, Message: API key not valid. Please pass a valid API key., Status: INVALID_ARGUMENT"), KindInvalidCredential},
		{"gemini reason code", errors.New("reason: API_KEY_INVALID"), KindInvalidCredential},
		{"gemini 403", fmt.Errorf("genai generate: %w", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}), KindInvalidCredential},
		{"gemini 401 pointer", &genai.APIError{Code: 401}, KindInvalidCredential},
		{"gemini 503", genai.APIError{Code: 503, Message: "overloaded"}, KindUnavailable},
		{"dns", &net.DNSError{Err: "no such host", Name: "example.invalid"}, KindUnreachable},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), KindUnreachable},
		{"deadline", context.DeadlineExceeded, KindUnreachable},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("network is unreachable")}, KindUnreachable},
		{"other", errors.New("quota exhausted"), KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := Classify(tt.err)
			if re.Kind != tt.want {
				t.Errorf("Classify(%v).Kind = %s, want %s", tt.err, re.Kind, tt.want)
			}
			if re.Unwrap() == nil {
				t.Error("Expected the cause to be preserved")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Expected nil")
	}
}

func TestClassifyAlreadyClassified(t *testing.T) {
	orig := &Error{Kind: KindUnreachable, Err: errors.New("x")}
	if got := Classify(fmt.Errorf("wrap: %w", orig)); got != orig {
		t.Errorf("Expected original error, got %v", got)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindInvalidCredential, "Your API key is not valid. Please check your configuration and ensure it is correct."},
		{KindUnreachable, "Could not connect to the AI service. Please check your network connection and try again later."},
		{KindUnavailable, "The AI service is currently unavailable. Please try again later."},
	}

	for _, tt := range tests {
		err := &Error{Kind: tt.kind, Err: errors.New("cause")}
		if err.Error() != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.kind, err.Error(), tt.want)
		}
		if err.Detail() != tt.kind.String()+": cause" {
			t.Errorf("%s: Detail() = %q", tt.kind, err.Detail())
		}
	}
}
