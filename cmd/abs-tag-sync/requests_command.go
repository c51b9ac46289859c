package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"abstagsync/internal/requests"
)

type requestGroupView struct {
	ASIN       string               `json:"asin"`
	Requesters []requests.Requester `json:"requesters"`
}

func newRequestsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List fulfilled ReadMeABook requests grouped by ASIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			groups, err := requests.Group(cmd.Context(), requests.NewSource(cfg))
			if err != nil {
				return err
			}

			views := make([]requestGroupView, 0, groups.Len())
			for _, asin := range groups.ASINs() {
				views = append(views, requestGroupView{ASIN: asin, Requesters: groups.Requesters(asin)})
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No requests found in ReadMeABook to sync.")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				names := make([]string, 0, len(v.Requesters))
				for _, r := range v.Requesters {
					if r.Email != "" {
						names = append(names, fmt.Sprintf("%s <%s>", r.BackupName, r.Email))
					} else {
						names = append(names, r.BackupName)
					}
				}
				rows = append(rows, []string{v.ASIN, strconv.Itoa(len(v.Requesters)), strings.Join(names, ", ")})
			}
			fmt.Fprintln(out, renderTable([]tableColumn{
				{header: "ASIN"},
				{header: "Count", alignR: true},
				{header: "Requesters", maxWidth: 80},
			}, rows, -1, false))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the groups as JSON")
	return cmd
}
