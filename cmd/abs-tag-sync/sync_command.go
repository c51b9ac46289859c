package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"abstagsync/internal/reconcile"
	"abstagsync/internal/tagsync"
)

type syncOptions struct {
	dryRun bool
	json   bool
}

func (o *syncOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Show the tag changes without writing them")
	cmd.Flags().BoolVar(&o.json, "json", false, "Print the run report as JSON")
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var opts syncOptions
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile requester tags once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, ctx, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runSync(cmd *cobra.Command, ctx *commandContext, opts syncOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	runCfg := *cfg
	if opts.dryRun {
		runCfg.Sync.DryRun = true
	}

	report, err := tagsync.Run(cmd.Context(), &runCfg, tagsync.Deps{Logger: logger})
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(cmd, report)
	}
	out := cmd.OutOrStdout()
	renderReport(out, report, shouldColorize(out))
	return nil
}

func renderReport(out io.Writer, report tagsync.Report, colorize bool) {
	for _, line := range renderSectionHeader("abs-tag-sync", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Run", statusInfo, report.RunID, colorize))
	if report.LockHeld {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Another sync run is in progress; nothing to do.")
		return
	}
	if report.LockError != "" {
		fmt.Fprintln(out, renderStatusLine("Lock", statusWarn, "running unlocked: "+report.LockError, colorize))
	}
	if report.DryRun {
		fmt.Fprintln(out, renderStatusLine("Mode", statusWarn, "dry run, nothing written", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Users", statusInfo, strconv.Itoa(report.Users), colorize))
	fmt.Fprintln(out, renderStatusLine("Library items", statusInfo, strconv.Itoa(report.Items), colorize))
	fmt.Fprintln(out, renderStatusLine("Requested titles", statusInfo, strconv.Itoa(report.Requests), colorize))
	for _, component := range report.DegradedComponents() {
		fmt.Fprintln(out, renderStatusLine("Degraded", statusWarn, component+": "+report.Degraded[component], colorize))
	}

	if report.NoRequests {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No requests found in ReadMeABook to sync.")
		return
	}

	s := report.Summary
	fmt.Fprintln(out, renderStatusLine("Not in library", statusInfo, strconv.Itoa(s.NotInLibrary), colorize))
	fmt.Fprintln(out, renderStatusLine("Unchanged", statusOK, strconv.Itoa(s.Unchanged), colorize))
	if report.DryRun {
		fmt.Fprintln(out, renderStatusLine("Planned", statusInfo, strconv.Itoa(s.Planned), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Updated", statusOK, strconv.Itoa(s.Updated), colorize))
	}
	failedKind := statusOK
	if s.Failed > 0 {
		failedKind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failedKind, strconv.Itoa(s.Failed), colorize))

	rows := make([][]string, 0, len(s.Changes))
	for _, change := range s.Changes {
		if change.Status == reconcile.StatusUnchanged {
			continue
		}
		rows = append(rows, []string{
			change.ASIN,
			change.Title,
			string(change.Status),
			strings.Join(change.Requesters, ", "),
		})
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]tableColumn{
		{header: "ASIN"},
		{header: "Title", maxWidth: 48},
		{header: "Status"},
		{header: "Requester Tags", maxWidth: 60},
	}, rows, 2, colorize))
}
