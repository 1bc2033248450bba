package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/heap/replay"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Model is the main application model
type Model struct {
	tracePath string
	tr        *trace.Trace
	cfg       alloc.Config
	limit     int

	heap    *alloc.Allocator
	stepper *replay.Stepper
	blocks  []alloc.Block
	lastOp  *trace.Op
	opErr   error // failure at the next op; stepping forward stops here

	cursor int // index into blocks
	keys   KeyMap
	help   help.Model

	width  int
	height int

	// Help overlay
	showHelp bool

	// Status message for temporary feedback
	statusMessage string

	// copyText writes to the system clipboard; tests swap it out
	copyText func(string) error

	err error
}

// NewModel creates a model positioned before the first operation of tr.
func NewModel(tracePath string, tr *trace.Trace, cfg alloc.Config, limit int) Model {
	m := Model{
		tracePath: tracePath,
		tr:        tr,
		cfg:       cfg,
		limit:     limit,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		copyText:  clipboard.WriteAll,
	}
	m.err = m.reset()
	return m
}

// reset rebuilds the heap and rewinds to operation 0.
func (m *Model) reset() error {
	a, err := alloc.New(region.NewMemory(m.limit), nil, &m.cfg)
	if err != nil {
		return err
	}
	st, err := replay.NewStepper(a, m.tr, replay.Options{})
	if err != nil {
		return err
	}
	m.heap, m.stepper = a, st
	m.lastOp, m.opErr = nil, nil
	m.refresh()
	return nil
}

// seek moves to the state after pos operations. Moving backwards replays
// from the start.
func (m *Model) seek(pos int) {
	pos = max(0, min(pos, m.stepper.Len()))
	if pos < m.stepper.Pos() {
		if err := m.reset(); err != nil {
			m.err = err
			return
		}
	}
	for m.stepper.Pos() < pos {
		op, err := m.stepper.Step()
		if err != nil {
			m.opErr = err
			m.statusMessage = fmt.Sprintf("Stopped: %v", err)
			logger.Warn("explorer: op failed", "trace", m.tr.Name, "error", err)
			break
		}
		m.lastOp = &op
	}
	m.refresh()
}

// advance moves n operations forward (negative n moves back).
func (m *Model) advance(n int) {
	if n > 0 && m.opErr != nil {
		m.statusMessage = fmt.Sprintf("Stopped: %v", m.opErr)
		return
	}
	m.seek(m.stepper.Pos() + n)
}

// refresh reloads the block list and keeps the cursor in range.
func (m *Model) refresh() {
	m.blocks = m.blocks[:0]
	it := m.heap.Blocks()
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			m.statusMessage = fmt.Sprintf("Heap walk failed: %v", err)
			break
		}
		m.blocks = append(m.blocks, b)
	}
	m.cursor = max(0, min(m.cursor, len(m.blocks)-1))
}

// selected returns the block under the cursor.
func (m Model) selected() (alloc.Block, bool) {
	if m.cursor < 0 || m.cursor >= len(m.blocks) {
		return alloc.Block{}, false
	}
	return m.blocks[m.cursor], true
}

// describe renders a one-line description of b.
func (m Model) describe(b alloc.Block) string {
	state := "free"
	if b.Allocated {
		state = "allocated"
		if id, ok := m.stepper.Owner(b.Ptr); ok {
			state = fmt.Sprintf("allocated (id %d)", id)
		}
	}
	return fmt.Sprintf("block 0x%X size %d payload %d %s", uint32(b.Ptr), b.Size, b.PayloadSize(), state)
}

// CopySelected copies the selected block's description to the clipboard.
func (m *Model) CopySelected() error {
	b, ok := m.selected()
	if !ok {
		return fmt.Errorf("no block selected")
	}
	return m.copyText(m.describe(b))
}
