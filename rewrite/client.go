// Package rewrite asks a text-generation model to rewrite manuscript text
// in a chosen tone.
package rewrite

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Backend generates text for a single prompt.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Name() string
}

// Client rewrites text through a Backend.
type Client struct {
	backend Backend
	model   string
	limiter *rate.Limiter
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the model identifier.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithRateLimit spaces requests to at most perSecond per second. Zero or a
// negative value disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a rewrite client.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		model:   DefaultModel,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithPrefix("rewrite")
	return c
}

// Model returns the model identifier in use.
func (c *Client) Model() string {
	return c.model
}

// Rewrite rewrites text in the given tone. Whitespace-only text returns ""
// without contacting the service. Failures are returned as *Error.
func (c *Client) Rewrite(ctx context.Context, text string, tone Tone) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &Error{Kind: KindUnavailable, Err: err}
		}
	}

	prompt := BuildPrompt(text, tone)
	c.logger.Debug("Sending rewrite request",
		"backend", c.backend.Name(),
		"model", c.model,
		"tone", tone,
		"chars", len(text))

	out, err := c.backend.Generate(ctx, c.model, prompt)
	if err != nil {
		re := Classify(err)
		c.logger.Error("Rewrite failed", "backend", c.backend.Name(), "kind", re.Kind, "error", err)
		return "", re
	}

	out = strings.TrimSpace(out)
	c.logger.Debug("Rewrite complete", "chars", len(out))
	return out, nil
}
