package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/heap/replay"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Replay allocation traces against the heapkit allocator",
	Long: `heapctl drives the heapkit boundary-tag allocator with allocation
trace files. It validates every result, reports space utilization and
throughput, and can draw the final block layout of a heap.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		return logger.Init(logger.Options{
			Enabled: true,
			Level:   slog.LevelDebug,
			Writer:  cmd.ErrOrStderr(),
		})
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(w io.Writer, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(w io.Writer, format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// heapFlags are the heap construction flags shared by replay, map and stats.
type heapFlags struct {
	chunk      int
	limit      int
	backingDir string
	check      bool
}

func (f *heapFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.chunk, "chunk", alloc.DefaultConfig.ChunkSize, "Heap extension size in bytes")
	cmd.Flags().IntVar(&f.limit, "limit", region.DefaultLimit, "Maximum heap size in bytes")
	cmd.Flags().StringVar(&f.backingDir, "backing-dir", "", "Back each heap with a file in this directory")
	cmd.Flags().BoolVar(&f.check, "check", false, "Run the heap checker after every operation")
}

func (f *heapFlags) config() alloc.Config {
	return alloc.Config{ChunkSize: f.chunk}
}

func (f *heapFlags) newHeap() replay.NewHeapFunc {
	if f.backingDir != "" {
		return replay.FileHeaps(f.backingDir, f.config(), f.limit)
	}
	return replay.MemoryHeaps(f.config(), f.limit)
}

func (f *heapFlags) options() replay.Options {
	return replay.Options{CheckHeap: f.check}
}
