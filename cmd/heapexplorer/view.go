package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/heapkit/heap/trace"
)

// defaultGridWidth is used until the first WindowSizeMsg arrives.
const defaultGridWidth = 64

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	mainView := NewMainViewModel(&m)
	if m.showHelp {
		// Recreated each render so the overlay sees the current model
		helpOverlay := overlay.New(
			&HelpViewModel{model: &m},
			mainView,
			overlay.Center, // horizontal position
			overlay.Center, // vertical position
			0,
			0,
		)
		return helpOverlay.View()
	}
	return mainView.View()
}

// renderHeader renders the title, trace path and replay position
func (m Model) renderHeader() string {
	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render("Heap Explorer"),
		"  ",
		pathStyle.Render(fmt.Sprintf("Trace: %s", m.tracePath)),
	)

	last := "none"
	if m.lastOp != nil {
		last = formatOp(*m.lastOp)
	}
	progress := fmt.Sprintf("op %d/%d   last: %s   heap %d bytes   live %d   peak %d",
		m.stepper.Pos(), m.stepper.Len(), last, m.heap.HeapSize(), m.stepper.Live(), m.stepper.Peak())

	return lipgloss.JoinVertical(lipgloss.Left, header, progress)
}

func formatOp(op trace.Op) string {
	if op.Kind == trace.Free {
		return fmt.Sprintf("%s %d", op.Kind, op.ID)
	}
	return fmt.Sprintf("%s %d %d", op.Kind, op.ID, op.Size)
}

// renderContent renders the block grid and the selected block's details
func (m Model) renderContent() string {
	width := defaultGridWidth
	if m.width > 6 {
		// border and padding
		width = m.width - 4
	}

	var grid strings.Builder
	for i, b := range m.blocks {
		if i > 0 && i%width == 0 {
			grid.WriteByte('\n')
		}
		switch {
		case i == m.cursor:
			grid.WriteString(selectedCellStyle.Render(selectedGlyph))
		case b.Allocated:
			grid.WriteString(allocCellStyle.Render(allocGlyph))
		default:
			grid.WriteString(freeCellStyle.Render(freeGlyph))
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		paneStyle.Render(grid.String()),
		m.renderDetail(),
	)
}

// renderDetail renders the block under the cursor
func (m Model) renderDetail() string {
	b, ok := m.selected()
	if !ok {
		return ""
	}
	u := m.heap.Usage()

	state := "free"
	if b.Allocated {
		state = "allocated"
		if id, ok := m.stepper.Owner(b.Ptr); ok {
			state = fmt.Sprintf("allocated, trace id %d", id)
		}
	}

	rows := []string{
		labelStyle.Render("Block") + fmt.Sprintf("%d of %d", m.cursor+1, len(m.blocks)),
		labelStyle.Render("Offset") + fmt.Sprintf("0x%X", uint32(b.Ptr)),
		labelStyle.Render("Size") + fmt.Sprintf("%d (payload %d)", b.Size, b.PayloadSize()),
		labelStyle.Render("State") + state,
		labelStyle.Render("Heap") + fmt.Sprintf("%d allocated, %d free, largest free %d, %.1f%% used",
			u.AllocatedBlocks, u.FreeBlocks, u.LargestFree, 100*u.Utilization()),
	}
	return strings.Join(rows, "\n")
}

// renderStatus renders the status message and short help
func (m Model) renderStatus() string {
	var parts []string
	if m.statusMessage != "" {
		parts = append(parts, m.statusMessage)
	}
	parts = append(parts, m.help.View(m.keys))
	return statusStyle.Render(strings.Join(parts, "  │  "))
}
