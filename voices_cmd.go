package main

import (
	"errors"
	"fmt"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/tts"
)

const voiceNameWidth = 36

var voicesAll bool

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the voices of the speech engine",
	Long:    paragraph(fmt.Sprintf("\n%s the voices offered by the configured speech engine, filtered by --lang unless --all is given.", keyword("List"))),
	Example: paragraph("echoverse voices --lang es-MX\nechoverse voices --engine piper --all"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		speech, err := newSpeech()
		if err != nil {
			return err
		}
		defer speech.Close()

		voices, err := speech.catalog.Refresh(cmd.Context())
		if err != nil {
			return err //nolint:wrapcheck
		}
		if !voicesAll {
			voices = tts.FilterByLanguage(voices, language)
		}
		if len(voices) == 0 {
			return errors.New("no voices found")
		}

		w := cmd.OutOrStdout()
		for _, v := range voices {
			name := runewidth.FillRight(runewidth.Truncate(v.Name, voiceNameWidth, "…"), voiceNameWidth)
			fmt.Fprintf(w, "%s %s %s\n", keyword(name), v.Language, subtle(v.Gender))
		}
		return nil
	},
}

func init() {
	voicesCmd.Flags().BoolVarP(&voicesAll, "all", "a", false, "list voices of every language")
}
