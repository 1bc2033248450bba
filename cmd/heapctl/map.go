package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/heap/replay"
	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	mapHeap  heapFlags
	mapWidth int
	mapStop  int
)

var (
	// Color palette
	allocColor  = lipgloss.Color("#04B575")
	freeColor   = lipgloss.Color("#666666")
	accentColor = lipgloss.Color("#7D56F4")

	allocCellStyle = lipgloss.NewStyle().Foreground(allocColor)
	freeCellStyle  = lipgloss.NewStyle().Foreground(freeColor)

	mapHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginBottom(1)

	mapBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#383838")).
			Padding(0, 1)
)

const (
	allocGlyph = "█"
	freeGlyph  = "░"
)

func init() {
	cmd := newMapCmd()
	cmd.Flags().IntVar(&mapHeap.chunk, "chunk", alloc.DefaultConfig.ChunkSize, "Heap extension size in bytes")
	cmd.Flags().IntVar(&mapHeap.limit, "limit", region.DefaultLimit, "Maximum heap size in bytes")
	cmd.Flags().BoolVar(&mapHeap.check, "check", false, "Run the heap checker after every operation")
	cmd.Flags().IntVar(&mapWidth, "width", 64, "Blocks per row")
	cmd.Flags().IntVar(&mapStop, "stop-after", -1, "Only replay the first N operations")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <trace>",
		Short: "Draw the block layout left by a trace",
		Long: `The map command replays a trace on an in-memory heap and draws the
resulting heap, one cell per block in address order: filled cells are
allocated blocks, shaded cells are free blocks.

Example:
  heapctl map traces/binary-bal.rep
  heapctl map --stop-after 500 --width 100 traces/coalescing-bal.rep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, args[0])
		},
	}
}

// mapBlock is the JSON form of one block.
type mapBlock struct {
	Offset    uint32 `json:"offset"`
	Size      uint32 `json:"size"`
	Allocated bool   `json:"allocated"`
}

func runMap(cmd *cobra.Command, path string) error {
	tr, err := trace.ParseFile(path)
	if err != nil {
		return err
	}
	if mapStop >= 0 && mapStop < len(tr.Ops) {
		tr.Ops = tr.Ops[:mapStop]
		tr.NumOps = mapStop
	}

	cfg := mapHeap.config()
	cfg.Name = tr.Name
	a, err := alloc.New(region.NewMemory(mapHeap.limit), nil, &cfg)
	if err != nil {
		return err
	}
	if _, err := replay.Run(cmd.Context(), a, tr, replay.Options{CheckHeap: mapHeap.check}); err != nil {
		return err
	}

	var blocks []mapBlock
	it := a.Blocks()
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		blocks = append(blocks, mapBlock{Offset: uint32(b.Ptr), Size: b.Size, Allocated: b.Allocated})
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, blocks)
	}
	if quiet {
		return nil
	}

	u := a.Usage()
	header := fmt.Sprintf("%s: %d blocks, %d bytes, %.1f%% allocated",
		tr.Name, len(blocks), u.HeapBytes, 100*u.Utilization())
	grid := renderGrid(blocks, mapWidth, !noColor)
	legend := fmt.Sprintf("%s allocated (%d)   %s free (%d, largest %d)",
		styled(allocCellStyle, allocGlyph, !noColor), u.AllocatedBlocks,
		styled(freeCellStyle, freeGlyph, !noColor), u.FreeBlocks, u.LargestFree)

	if noColor {
		fmt.Fprintf(out, "%s\n\n%s\n\n%s\n", header, grid, legend)
		return nil
	}
	fmt.Fprintln(out, mapHeaderStyle.Render(header))
	fmt.Fprintln(out, mapBoxStyle.Render(grid))
	fmt.Fprintln(out, legend)
	return nil
}

// renderGrid lays blocks out width cells per row.
func renderGrid(blocks []mapBlock, width int, color bool) string {
	if width <= 0 {
		width = 64
	}
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 && i%width == 0 {
			sb.WriteByte('\n')
		}
		if b.Allocated {
			sb.WriteString(styled(allocCellStyle, allocGlyph, color))
		} else {
			sb.WriteString(styled(freeCellStyle, freeGlyph, color))
		}
	}
	return sb.String()
}

func styled(s lipgloss.Style, text string, color bool) string {
	if !color {
		return text
	}
	return s.Render(text)
}
