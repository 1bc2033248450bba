package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/replay"
)

var (
	replayHeap heapFlags
	replayJobs int
)

func init() {
	cmd := newReplayCmd()
	replayHeap.register(cmd)
	cmd.Flags().IntVarP(&replayJobs, "jobs", "j", 0, "Traces to replay at once (0 = all)")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay traces and report utilization and throughput",
		Long: `The replay command runs each trace on a fresh heap, validates every
returned block (alignment, bounds, overlap, payload preservation), and prints
one row per trace with the averages at the bottom.

Example:
  heapctl replay traces/*.rep
  heapctl replay --check --chunk 8192 traces/realloc-bal.rep
  heapctl replay --backing-dir /tmp/heaps --jobs 4 traces/*.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args)
		},
	}
}

// replayRow is the JSON form of one replay.
type replayRow struct {
	Trace       string  `json:"trace"`
	Valid       bool    `json:"valid"`
	Ops         int     `json:"ops"`
	Seconds     float64 `json:"seconds"`
	KopsPerSec  float64 `json:"kops_per_sec"`
	Utilization float64 `json:"utilization"`
	PeakLive    int64   `json:"peak_live_bytes"`
	HeapSize    int     `json:"heap_bytes"`
	Error       string  `json:"error,omitempty"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printVerbose(out, "Replaying %d trace(s)\n", len(args))

	results, err := replay.RunFiles(cmd.Context(), args, replayJobs, replayHeap.newHeap(), replayHeap.options())
	if err != nil {
		return err
	}

	rows := make([]replayRow, len(results))
	var failed []error
	for i, fr := range results {
		rows[i] = toRow(fr)
		if fr.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", filepath.Base(fr.Path), fr.Err))
		}
	}

	if jsonOut {
		if err := printJSON(out, rows); err != nil {
			return err
		}
	} else if !quiet {
		renderReplayTable(cmd, rows)
	}

	return errors.Join(failed...)
}

func toRow(fr replay.FileResult) replayRow {
	row := replayRow{Trace: filepath.Base(fr.Path), Valid: fr.Err == nil}
	if fr.Err != nil {
		row.Error = fr.Err.Error()
	}
	if r := fr.Result; r != nil {
		row.Ops = r.Ops
		row.Seconds = r.Elapsed.Seconds()
		row.KopsPerSec = r.Throughput() / 1000
		row.Utilization = r.Utilization()
		row.PeakLive = r.PeakLive
		row.HeapSize = r.HeapSize
	}
	return row
}

func renderReplayTable(cmd *cobra.Command, rows []replayRow) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Trace", "Valid", "Util", "Ops", "Secs", "Kops"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	var (
		n          int
		ops        int
		secs, util float64
	)
	for _, r := range rows {
		valid := "yes"
		if !r.Valid {
			valid = "no"
		}
		table.Append([]string{
			r.Trace,
			valid,
			fmt.Sprintf("%.1f%%", 100*r.Utilization),
			fmt.Sprintf("%d", r.Ops),
			fmt.Sprintf("%.6f", r.Seconds),
			fmt.Sprintf("%.0f", r.KopsPerSec),
		})
		if r.Valid {
			n++
			ops += r.Ops
			secs += r.Seconds
			util += r.Utilization
		}
	}

	if n > 0 {
		kops := 0.0
		if secs > 0 {
			kops = float64(ops) / secs / 1000
		}
		table.SetFooter([]string{
			"Total",
			fmt.Sprintf("%d/%d", n, len(rows)),
			fmt.Sprintf("%.1f%%", 100*util/float64(n)),
			fmt.Sprintf("%d", ops),
			fmt.Sprintf("%.6f", secs),
			fmt.Sprintf("%.0f", kops),
		})
	}
	table.Render()

	for _, r := range rows {
		if r.Error != "" {
			printInfo(cmd.ErrOrStderr(), "%s: %s\n", r.Trace, r.Error)
		}
	}
}
