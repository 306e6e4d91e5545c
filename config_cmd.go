package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# style name or JSON path for rendering the rewritten text (default "auto")
style: "auto"
# mouse support (TUI-mode only)
mouse: false
# word-wrap at width
width: 80

# tone used for rewrites: narrative, dramatic, mysterious, humorous, formal,
# casual or poetic
tone: "narrative"
# speech language, e.g. en-US, en-GB, es-ES, ja-JP
language: "en-US"
# voice name; empty picks the first voice matching the language
voice: ""
# pitch and rate, between 0.5 and 2.0
pitch: 1.0
rate: 1.0

# AI rewrite service
rewrite:
  # gemini or openai
  provider: "gemini"
  # model: "gemini-2.5-flash"
  # base_url: "https://generativelanguage.googleapis.com/"
  # The key is usually read from API_KEY (or GEMINI_API_KEY / OPENAI_API_KEY).
  # api_key: ""
  timeout: "60s"
  # requests per second, 0 disables limiting
  rate_limit: 1

# Speech engine
tts:
  # espeak, piper or mock
  engine: "espeak"
  espeak:
    # binary: "espeak-ng"
  piper:
    binary: "piper"
    # directory holding *.onnx voice models and their .onnx.json files
    models_dir: "~/.local/share/piper"
    timeout: "30s"
  mock:
    # how long each utterance plays; 0 derives it from the text length
    duration: "0s"

# where echoverse_script.txt is saved (default: working directory)
export:
  dir: ""
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the echoverse config file",
	Long:    paragraph(fmt.Sprintf("\n%s the echoverse config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("echoverse config\nechoverse config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Echoverse", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
