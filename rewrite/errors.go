package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("API_KEY environment variable not set")

// Kind classifies a rewrite failure.
type Kind int

const (
	// KindUnavailable covers any failure not otherwise classified.
	KindUnavailable Kind = iota
	// KindInvalidCredential means the service rejected the API key.
	KindInvalidCredential
	// KindUnreachable means the service could not be reached.
	KindUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid-credential"
	case KindUnreachable:
		return "unreachable"
	default:
		return "unavailable"
	}
}

// Error is a classified rewrite failure. Its message is meant for users;
// the cause is kept for logs.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidCredential:
		return "Your API key is not valid. Please check your configuration and ensure it is correct."
	case KindUnreachable:
		return "Could not connect to the AI service. Please check your network connection and try again later."
	default:
		return "The AI service is currently unavailable. Please try again later."
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the error with its cause, for logging.
func (e *Error) Detail() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Classify wraps a backend error in an *Error. Errors that are already
// classified are returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	if status := statusCode(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
		return KindInvalidCredential
	}

	msg := err.Error()
	if strings.Contains(msg, "API key not valid") || strings.Contains(msg, "API_KEY_INVALID") {
		return KindInvalidCredential
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return KindUnreachable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnreachable
	}
	return KindUnavailable
}

// statusCode extracts the HTTP status from SDK errors, or 0.
func statusCode(err error) int {
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil {
		return gErrPtr.Code
	}
	var oErr *openai.Error
	if errors.As(err, &oErr) {
		return oErr.StatusCode
	}
	return 0
}
