package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err //nolint:wrapcheck
		}

		page = page.WithSection("Environment", "API_KEY, GEMINI_API_KEY and OPENAI_API_KEY hold the key for the rewrite service.\n"+
			"Settings can also be given as ECHOVERSE_* variables or in a .env file.")
		fmt.Println(page.Build(roff.NewDocument()))
		return nil
	},
}
