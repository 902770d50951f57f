package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var flagConfigPath string

// newRootCmd builds the root command with all subcommands registered.
// Without a subcommand it opens the browser on a terminal and prints the
// first page of the default view otherwise.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "marquee",
		Short:   "Terminal movie catalog browser",
		Long:    "Browse a remote movie catalog page by page, keeping favorites and seen movies locally.",
		Version: version,
		// We print errors ourselves in main
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flagConfigPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := shutdownContext(cmd.Context(), a.logger)
			defer stop()
			if isTerminal(cmd.OutOrStdout()) {
				return runTUI(ctx, a)
			}
			return runBrowse(ctx, a, cmd.OutOrStdout(), cmd.ErrOrStderr(), browseOptions{pages: 1})
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")

	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(newFavoritesCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marquee %s\n", version)
		},
	}
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
