package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// Directory the script is saved to. Empty means the working directory.
	ExportDir string

	// Upper bound for a single rewrite request. Zero means no limit.
	RewriteTimeout time.Duration

	// For debugging the UI
	GlamourEnabled bool `env:"ECHOVERSE_ENABLE_GLAMOUR" envDefault:"true"`
}
