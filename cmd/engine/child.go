package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"goldrates-engine/internal/render"
	"goldrates-engine/internal/scrapeerr"
)

// childExit carries the renderer's exit code out of cobra. Its output is
// already on stderr, so main exits without printing it again.
type childExit int

func (c childExit) Error() string { return fmt.Sprintf("renderer exited %d", int(c)) }

// Renderer subcommands take raw positional arguments: stdout is reserved
// for the JSON result and diagnostics go to stderr.
func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "render <site> <url> [navigation-ms] [wait-ms]",
		Short:              "Extract rates from one page (child process of serve)",
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.NewFetcher(os.Getenv(FetcherEnv))
			if err != nil {
				_ = scrapeerr.Emit(cmd.ErrOrStderr(), scrapeerr.New(scrapeerr.Unknown, err.Error(), nil))
				return exitWith(1)
			}
			return exitWith(render.Run(cmd.Context(), args, f, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
}

func newCaptureCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "capture <url> <file> [navigation-ms] [wait-ms]",
		Short:              "Write a rendered page to a file (child process of snapshot)",
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.NewFetcher(os.Getenv(FetcherEnv))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return exitWith(1)
			}
			return exitWith(render.Capture(cmd.Context(), args, f, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
}

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return childExit(code)
}
