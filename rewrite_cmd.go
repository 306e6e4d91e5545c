package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/echoverse/echoverse/export"
	"github.com/echoverse/echoverse/studio"
)

var rewriteOut string

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [SOURCE]",
	Short: "Rewrite a manuscript in a tone and print it",
	Long: paragraph(fmt.Sprintf("\n%s a manuscript with the AI service. The manuscript is read from a file, or from stdin when SOURCE is - or omitted. With --out the script is saved as %s instead of printed.",
		keyword("Rewrite"), export.FileName)),
	Example: paragraph("echoverse rewrite draft.txt --tone mysterious\ncat draft.txt | echoverse rewrite -t formal --out ~/scripts"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manuscript, ok, err := readSource(args)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("missing manuscript: pass a file or pipe text on stdin")
		}

		rewriter, _, err := newRewriter(cmd.Context())
		if err != nil {
			return err
		}

		c := studio.New(studio.Deps{Rewriter: rewriter, Logger: log.Default()})
		c.SetManuscript(manuscript)
		if err := c.SetTone(tone); err != nil {
			return err //nolint:wrapcheck
		}
		if err := c.Rewrite(cmd.Context()); err != nil {
			if msg := c.Err(); msg != "" {
				return errors.New(msg)
			}
			return err //nolint:wrapcheck
		}

		if rewriteOut != "" {
			return saveResult(c, rewriteOut, cmd.ErrOrStderr())
		}
		return printResult(c.Result(), cmd.OutOrStdout())
	},
}

func saveResult(c *studio.Controller, dir string, w io.Writer) error {
	blob, err := c.Download()
	if err != nil {
		return errors.New(c.Err())
	}
	path, err := export.Save(dir, blob)
	if err != nil {
		return err //nolint:wrapcheck
	}
	fmt.Fprintf(w, "Wrote %s %s\n", path, subtle("("+humanize.Bytes(blob.Size())+")"))
	return nil
}

// printResult renders the text with glamour on a terminal and writes it
// verbatim otherwise.
func printResult(text string, w io.Writer) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		_, err := fmt.Fprintln(w, text)
		return err //nolint:wrapcheck
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamourStyleOption(style),
		glamour.WithWordWrap(int(width)), //nolint:gosec
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return fmt.Errorf("unable to render text: %w", err)
	}
	if _, err := fmt.Fprint(w, out); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func glamourStyleOption(style string) glamour.TermRendererOption {
	if style == "" || style == "auto" {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStylePath(style)
}

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteOut, "out", "o", "", "save the script into this directory")
}
