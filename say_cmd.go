package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/tts/sentence"
)

var sayCmd = &cobra.Command{
	Use:     "say [SOURCE]",
	Short:   "Speak text with the selected voice",
	Long:    paragraph(fmt.Sprintf("\n%s text aloud with the speech engine, using --voice, --pitch and --rate. The text is read from a file, or from stdin when SOURCE is - or omitted.", keyword("Speak"))),
	Example: paragraph("echoverse say script.txt --voice samantha --rate 1.2\necho 'Hello' | echoverse say -l en-GB"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, ok, err := readSource(args)
		if err != nil {
			return err
		}
		if !ok || strings.TrimSpace(text) == "" {
			return errors.New("nothing to say: pass a file or pipe text on stdin")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		speech, err := newSpeech()
		if err != nil {
			return err
		}
		defer speech.Close()

		if err := speech.start(ctx); err != nil {
			return err
		}

		name, err := resolveVoice(speech.catalog.Voices())
		if err != nil {
			return err
		}

		u, err := speech.controller.Play(text, name, params)
		if err != nil {
			return err //nolint:wrapcheck
		}
		stats := sentence.Analyze(text, params.Rate)
		log.Info("Speaking", "voice", name, "pitch", params.Pitch, "rate", params.Rate,
			"utterance", u.ID, "sentences", stats.Sentences, "estimate", stats.Duration.Round(time.Second))
		return waitForUtterance(ctx, speech.controller, u.ID)
	},
}

// resolveVoice picks the voice for say: a fuzzy match of --voice, or the
// first voice for the language.
func resolveVoice(voices []tts.Voice) (string, error) {
	if voice == "" {
		return tts.AutoSelect(voices, language), nil
	}
	v, err := tts.MatchVoice(voices, voice)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return v.Name, nil
}

// waitForUtterance blocks until the utterance ends. Canceling ctx stops it.
func waitForUtterance(ctx context.Context, c *tts.Controller, id uint64) error {
	for {
		select {
		case <-ctx.Done():
			return c.Stop() //nolint:wrapcheck
		case ev, ok := <-c.Events():
			if !ok {
				return nil
			}
			if ev.UtteranceID != id {
				continue
			}
			switch ev.Kind {
			case tts.EventEnded, tts.EventStopped:
				return nil
			case tts.EventError:
				return errors.New(ev.Message())
			}
		}
	}
}
