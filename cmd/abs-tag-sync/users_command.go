package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"abstagsync/internal/identity"
	"abstagsync/internal/services/audiobookshelf"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the email to username directory built from Audiobookshelf",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := identity.Resolve(cmd.Context(), audiobookshelf.NewFromConfig(cfg))
			if err != nil {
				return err
			}

			entries := dir.Entries()
			if asJSON {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No Audiobookshelf users with an email address")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Email, e.Username})
			}
			fmt.Fprintln(out, renderTable([]tableColumn{{header: "Email"}, {header: "Username"}}, rows, -1, false))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the directory as JSON")
	return cmd
}
