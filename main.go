// Package main provides the entry point for the Echoverse CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/echoverse/echoverse/rewrite"
	"github.com/echoverse/echoverse/studio"
	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	style      string
	width      uint
	mouse      bool
	debug      bool

	// Form values shared by the TUI and the subcommands.
	tone     rewrite.Tone
	language string
	voice    string
	params   tts.Params

	rootCmd = &cobra.Command{
		Use:   "echoverse [SOURCE]",
		Short: "Rewrite your manuscript in a new tone and hear it read aloud",
		Long: paragraph(
			fmt.Sprintf("\nRewrite your manuscript in a new tone and %s!", keyword("hear it read aloud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		style, _ = homedir.Expand(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	debug = viper.GetBool("debug")
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	var err error
	if tone, err = rewrite.ParseTone(viper.GetString("tone")); err != nil {
		return err //nolint:wrapcheck
	}

	lang, ok := studio.LookupLanguage(viper.GetString("language"))
	if !ok {
		return fmt.Errorf("unsupported language %q", viper.GetString("language"))
	}
	language = lang.Tag
	voice = viper.GetString("voice")

	params = tts.Params{
		Pitch: viper.GetFloat64("pitch"),
		Rate:  viper.GetFloat64("rate"),
	}
	if err := params.Validate(); err != nil {
		return err //nolint:wrapcheck
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = styles.NoTTYStyle
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readSource returns the text named by the argument: a file path, or "-"
// for stdin. Without an argument stdin is read when it is a pipe. ok is
// false when there is nothing to read.
func readSource(args []string) (text string, ok bool, err error) {
	var r io.Reader
	switch {
	case len(args) > 0 && args[0] != "-":
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", false, fmt.Errorf("unable to open file: %w", err)
		}
		return string(b), true, nil
	case len(args) > 0:
		r = os.Stdin
	default:
		pipe, err := stdinIsPipe()
		if err != nil {
			return "", false, err
		}
		if !pipe {
			return "", false, nil
		}
		r = os.Stdin
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("unable to read from reader: %w", err)
	}
	return string(b), true, nil
}

// newRewriter builds the rewrite client from configuration. A missing API
// key is fatal.
func newRewriter(ctx context.Context) (*rewrite.Client, rewrite.Config, error) {
	cfg, err := rewrite.LoadConfigFromViper()
	if err != nil {
		return nil, cfg, err //nolint:wrapcheck
	}
	client, err := rewrite.New(ctx, cfg, log.Default())
	if err != nil {
		return nil, cfg, err //nolint:wrapcheck
	}
	log.Debug("Rewrite client ready", "provider", cfg.Provider, "model", client.Model())
	return client, cfg, nil
}

// applyForm copies the command line form values into the controller.
func applyForm(c *studio.Controller, voices []tts.Voice) error {
	if err := c.SetTone(tone); err != nil {
		return err //nolint:wrapcheck
	}
	if err := c.SetLanguage(language); err != nil {
		return err //nolint:wrapcheck
	}
	if voice != "" {
		v, err := tts.MatchVoice(tts.FilterByLanguage(voices, language), voice)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if err := c.SetVoice(v.Name); err != nil {
			return err //nolint:wrapcheck
		}
	}
	if err := c.SetPitch(params.Pitch); err != nil {
		return err //nolint:wrapcheck
	}
	return c.SetRate(params.Rate) //nolint:wrapcheck
}

func execute(cmd *cobra.Command, args []string) error {
	manuscript, ok, err := readSource(args)
	if err != nil {
		return err
	}
	return runTUI(cmd.Context(), manuscript, ok)
}

func runTUI(ctx context.Context, manuscript string, hasManuscript bool) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the flag if unset
	if cfg.GlamourStyle == "" || validateStyle(cfg.GlamourStyle) != nil {
		cfg.GlamourStyle = style
	}
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.ExportDir = viper.GetString("export.dir")

	rewriter, rcfg, err := newRewriter(ctx)
	if err != nil {
		return err
	}
	cfg.RewriteTimeout = rcfg.Timeout

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	speech, err := newSpeech()
	if err != nil {
		return err
	}
	defer speech.Close()

	feed := tts.NewVoiceFeed(speech.catalog)
	if err := speech.start(ctx); err != nil {
		return err
	}

	c := studio.New(studio.Deps{
		Rewriter: rewriter,
		Speech:   speech.controller,
		Catalog:  speech.catalog,
		Logger:   log.Default(),
	})
	if hasManuscript {
		c.SetManuscript(strings.TrimRight(manuscript, "\n"))
	}
	if err := applyForm(c, speech.catalog.Voices()); err != nil {
		return err
	}

	// Run Bubble Tea program
	p := ui.NewProgram(cfg, ui.Deps{
		Studio:   c,
		Rewriter: rewriter,
		Speech:   speech.controller,
		Voices:   feed,
	})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.StringP("tone", "t", string(rewrite.DefaultTone), "rewrite tone")
	flags.StringP("lang", "l", studio.DefaultLanguage, "speech language")
	flags.String("voice", "", "voice name, fuzzy matched")
	flags.Float64("pitch", tts.DefaultParam, "speech pitch (0.5 to 2.0)")
	flags.Float64("rate", tts.DefaultParam, "speech rate (0.5 to 2.0)")
	flags.StringP("engine", "e", "", "speech engine (espeak, piper or mock)")
	flags.String("provider", "", "rewrite service (gemini or openai)")
	flags.String("model", "", "rewrite model")
	flags.StringP("style", "s", styles.AutoStyle, "style name or JSON path")
	flags.UintP("width", "w", 0, "word-wrap at width (set to 0 to disable)")
	flags.Bool("debug", false, "log debug output")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("tone", flags.Lookup("tone"))
	_ = viper.BindPFlag("language", flags.Lookup("lang"))
	_ = viper.BindPFlag("voice", flags.Lookup("voice"))
	_ = viper.BindPFlag("pitch", flags.Lookup("pitch"))
	_ = viper.BindPFlag("rate", flags.Lookup("rate"))
	_ = viper.BindPFlag("tts.engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("rewrite.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("rewrite.model", flags.Lookup("model"))
	_ = viper.BindPFlag("style", flags.Lookup("style"))
	_ = viper.BindPFlag("width", flags.Lookup("width"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("tone", string(rewrite.DefaultTone))
	viper.SetDefault("language", studio.DefaultLanguage)
	viper.SetDefault("pitch", tts.DefaultParam)
	viper.SetDefault("rate", tts.DefaultParam)
	viper.SetDefault("export.dir", "")

	rootCmd.AddCommand(rewriteCmd, voicesCmd, sayCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "echoverse")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "echoverse")}, dirs...)
	}

	if c := os.Getenv("ECHOVERSE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("echoverse")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("echoverse")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "echoverse.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
