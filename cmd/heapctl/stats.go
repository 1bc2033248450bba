package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/replay"
)

var statsHeap heapFlags

func init() {
	cmd := newStatsCmd()
	statsHeap.register(cmd)
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <trace>",
		Short: "Show allocator counters and heap usage after a trace",
		Long: `The stats command replays a trace and prints the allocator's internal
counters (extensions, fast and slow allocation paths, splits, coalesces,
realloc paths, fit search cost) and the final heap usage.

Example:
  heapctl stats traces/realloc-bal.rep
  heapctl stats traces/realloc-bal.rep --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0])
		},
	}
}

// statsReport is the JSON form of the stats command.
type statsReport struct {
	Trace string      `json:"trace"`
	Stats alloc.Stats `json:"stats"`
	Usage alloc.Usage `json:"usage"`
}

func runStats(cmd *cobra.Command, path string) error {
	results, err := replay.RunFiles(cmd.Context(), []string{path}, 1, statsHeap.newHeap(), statsHeap.options())
	if err != nil {
		return err
	}
	fr := results[0]
	if fr.Err != nil {
		return fr.Err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, statsReport{Trace: fr.Result.Name, Stats: fr.Stats, Usage: fr.Usage})
	}
	if quiet {
		return nil
	}
	printStats(out, fr.Result.Name, fr.Stats, fr.Usage)
	return nil
}

// printStats writes counters with thousands separators.
func printStats(w io.Writer, name string, s alloc.Stats, u alloc.Usage) {
	p := message.NewPrinter(language.English)

	fmt.Fprintf(w, "=== %s ===\n", name)
	p.Fprintf(w, "Heap bytes:         %d (%d extensions)\n", u.HeapBytes, s.GrowCalls)
	p.Fprintf(w, "Allocated:          %d blocks, %d bytes (%d payload)\n", u.AllocatedBlocks, u.AllocatedBytes, u.PayloadBytes)
	p.Fprintf(w, "Free:               %d blocks, %d bytes (largest %d)\n", u.FreeBlocks, u.FreeBytes, u.LargestFree)
	p.Fprintf(w, "Utilization:        %.1f%%\n", 100*u.Utilization())
	fmt.Fprintln(w)
	p.Fprintf(w, "Alloc calls:        %d (fast: %d, slow: %d)\n", s.AllocCalls, s.AllocFastPath, s.AllocSlowPath)
	p.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	p.Fprintf(w, "Realloc calls:      %d (shrink: %d, grow: %d, move: %d)\n",
		s.ReallocCalls, s.ReallocShrink, s.ReallocGrow, s.ReallocMove)
	p.Fprintf(w, "Splits:             %d\n", s.SplitCount)
	p.Fprintf(w, "Coalesce:           %d fwd, %d bwd, %d both\n", s.CoalesceForward, s.CoalesceBackward, s.CoalesceBoth)
	if s.FitSearches > 0 {
		p.Fprintf(w, "Fit searches:       %d (%.1f blocks visited on average)\n",
			s.FitSearches, float64(s.FitVisits)/float64(s.FitSearches))
	}
}
