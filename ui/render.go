package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

// glamourStyle picks the renderer style. "auto" and "" follow the terminal
// background; anything else is a standard style name or a JSON style path.
func glamourStyle(style string) glamour.TermRendererOption {
	switch style {
	case "", styles.AutoStyle:
		if termenv.HasDarkBackground() {
			return glamour.WithStandardStyle(styles.DarkStyle)
		}
		return glamour.WithStandardStyle(styles.LightStyle)
	case styles.NoTTYStyle:
		return glamour.WithStandardStyle(styles.NoTTYStyle)
	}
	return glamour.WithStylePath(style)
}

// renderResult formats the rewritten text for a pane of the given width.
func renderResult(cfg Config, text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	width = max(width, 10)
	if cfg.GlamourMaxWidth > 0 {
		width = min(width, int(cfg.GlamourMaxWidth)) //nolint:gosec
	}

	if !cfg.GlamourEnabled {
		return wordwrap.String(text, width), nil
	}

	r, err := glamour.NewTermRenderer(
		glamourStyle(cfg.GlamourStyle),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("error rendering text: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}
