package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse flags first (before positional args)
	args := os.Args[1:]
	debugMode := false

	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			debugMode = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize logger (must be before any logging calls)
	opts := logger.Options{Enabled: debugMode, Level: slog.LevelDebug, JSON: true}
	if home, err := os.UserHomeDir(); err == nil {
		opts.LogDir = filepath.Join(home, ".heapkit", "logs")
	}
	if err := logger.Init(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	if filteredArgs[0] == "--help" || filteredArgs[0] == "-h" {
		printHelp()
		os.Exit(0)
	}

	if filteredArgs[0] == "--version" || filteredArgs[0] == "-v" {
		fmt.Printf("heapexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}

	tracePath := filteredArgs[0]
	logger.Info("starting heapexplorer", "path", tracePath, "debug", debugMode)

	tr, err := trace.ParseFile(tracePath)
	if err != nil {
		logger.Error("trace load failed", "path", tracePath, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := alloc.DefaultConfig
	cfg.Name = tr.Name
	m := NewModel(tracePath, tr, cfg, region.DefaultLimit)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	logger.Info("heapexplorer exited normally")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapexplorer [options] <trace-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'heapexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("heapexplorer - Step through an allocation trace one operation at a time")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapexplorer [options] <trace-file>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Replays the trace on an in-memory heap and draws every block after each")
	fmt.Println("  operation. Each result is validated the same way 'heapctl replay' does.")
	fmt.Println()
	fmt.Println("  Navigation:")
	fmt.Println("    →/l, space  Next operation")
	fmt.Println("    ←/h         Previous operation")
	fmt.Println("    ] / [       Forward / back 100 operations")
	fmt.Println("    ↑/k, ↓/j    Select block")
	fmt.Println("    c           Copy selected block")
	fmt.Println("    x           Run the heap checker")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.heapkit/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("For non-interactive replays, use the 'heapctl' command instead.")
}
