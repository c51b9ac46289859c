package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"abstagsync/internal/preflight"
)

var errChecksFailed = errors.New("one or more checks failed")

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connectivity to Audiobookshelf and ReadMeABook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Status", colorize) {
				fmt.Fprintln(out, line)
			}

			failed := false
			for _, result := range preflight.RunAll(cmd.Context(), cfg, preflight.Probes{}) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if failed {
				return errChecksFailed
			}
			return nil
		},
	}
}
