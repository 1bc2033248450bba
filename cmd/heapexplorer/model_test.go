package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/trace"
)

const sample = `20000
3
6
1
a 0 100
a 1 200
r 0 300
f 1
a 2 8
f 0
`

func newTestModel(t *testing.T, body string, limit int) Model {
	t.Helper()
	tr, err := trace.Parse(strings.NewReader(body))
	require.NoError(t, err)
	tr.Name = "sample"
	return NewModel("sample.rep", tr, alloc.DefaultConfig, limit)
}

func TestNewModel_StartsEmpty(t *testing.T) {
	m := newTestModel(t, sample, 0)
	require.NoError(t, m.err)
	assert.Zero(t, m.stepper.Pos())
	assert.Empty(t, m.blocks)
	assert.Nil(t, m.lastOp)

	_, ok := m.selected()
	assert.False(t, ok)
}

func TestStepForwardAndBack(t *testing.T) {
	h := NewTestHelper(newTestModel(t, sample, 0))

	h.SendKeyRune('l')
	m := h.Model()
	assert.Equal(t, 1, m.stepper.Pos())
	require.Len(t, m.blocks, 2, "placed block plus the split remainder")
	assert.True(t, m.blocks[0].Allocated)
	assert.EqualValues(t, 16, m.blocks[0].Ptr)

	h.SendKey(tea.KeyRight)
	assert.Equal(t, 2, h.Model().stepper.Pos())
	require.Len(t, h.Model().blocks, 3)

	h.SendKeyRune('h')
	m = h.Model()
	assert.Equal(t, 1, m.stepper.Pos())
	require.NotNil(t, m.lastOp)
	assert.Equal(t, trace.Alloc, m.lastOp.Kind)
	assert.Equal(t, 0, m.lastOp.ID)
	require.Len(t, m.blocks, 2)
}

func TestJumpToEndAndStart(t *testing.T) {
	h := NewTestHelper(newTestModel(t, sample, 0))

	h.SendKeyRune('G')
	m := h.Model()
	assert.Equal(t, 6, m.stepper.Pos())
	require.Len(t, m.blocks, 1, "everything freed coalesces into one block")
	assert.False(t, m.blocks[0].Allocated)
	assert.Zero(t, m.stepper.Live())
	assert.EqualValues(t, 500, m.stepper.Peak())

	// Past the end is a no-op
	h.SendKeyRune(']')
	assert.Equal(t, 6, h.Model().stepper.Pos())

	h.SendKeyRune('g')
	m = h.Model()
	assert.Zero(t, m.stepper.Pos())
	assert.Nil(t, m.lastOp)
	assert.Empty(t, m.blocks)
}

func TestBlockCursor(t *testing.T) {
	h := NewTestHelper(newTestModel(t, sample, 0))
	h.SendKeyRune('l').SendKeyRune('l')

	h.SendKeyRune('j').SendKeyRune('j').SendKeyRune('j')
	assert.Equal(t, 2, h.Model().cursor, "cursor stops at the last block")

	h.SendKeyRune('k')
	assert.Equal(t, 1, h.Model().cursor)

	// Rewinding shrinks the block list and clamps the cursor
	h.SendKeyRune('g')
	assert.Zero(t, h.Model().cursor)
}

func TestCopySelected(t *testing.T) {
	m := newTestModel(t, sample, 0)
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	h := NewTestHelper(m)
	h.SendKeyRune('l').SendKeyRune('c')
	assert.Equal(t, "block 0x10 size 112 payload 104 allocated (id 0)", copied)
	assert.Equal(t, "Copied block to clipboard", h.Model().statusMessage)
}

func TestCopySelected_NoBlocks(t *testing.T) {
	m := newTestModel(t, sample, 0)
	m.copyText = func(string) error {
		t.Fatal("clipboard written with nothing selected")
		return nil
	}

	h := NewTestHelper(m)
	h.SendKeyRune('c')
	assert.Contains(t, h.Model().statusMessage, "Copy failed")
}

func TestCheckKey(t *testing.T) {
	h := NewTestHelper(newTestModel(t, sample, 0))
	h.SendKeyRune('l').SendKeyRune('x')
	assert.Equal(t, "Heap OK", h.Model().statusMessage)
}

func TestStopsAtFailingOp(t *testing.T) {
	// Too small for the first extension
	h := NewTestHelper(newTestModel(t, sample, 64))

	h.SendKeyRune('l')
	m := h.Model()
	require.ErrorIs(t, m.opErr, alloc.ErrOutOfMemory)
	assert.Zero(t, m.stepper.Pos())
	assert.Contains(t, m.statusMessage, "Stopped")

	h.SendKeyRune(']')
	assert.Zero(t, h.Model().stepper.Pos())
	assert.Contains(t, h.Model().statusMessage, "Stopped")
}

func TestHelpOverlay(t *testing.T) {
	h := NewTestHelper(newTestModel(t, sample, 0))
	h.SendWindowSize(100, 40)

	h.SendKeyRune('?')
	require.True(t, h.Model().showHelp)
	assert.Contains(t, h.Model().View(), "Keyboard Shortcuts")

	// Other keys are swallowed while help is open
	h.SendKeyRune('l')
	assert.Zero(t, h.Model().stepper.Pos())

	h.SendKey(tea.KeyEsc)
	assert.False(t, h.Model().showHelp)
	assert.NotContains(t, h.Model().View(), "Keyboard Shortcuts")
}

func TestView(t *testing.T) {
	h := NewTestHelper(newTestModel(t, sample, 0))
	h.SendWindowSize(100, 40)
	h.SendKeyRune('l').SendKeyRune('l')

	view := h.Model().View()
	assert.Contains(t, view, "Heap Explorer")
	assert.Contains(t, view, "Trace: sample.rep")
	assert.Contains(t, view, "op 2/6")
	assert.Contains(t, view, "last: alloc 1 200")
	assert.Contains(t, view, "trace id 0")
	assert.Contains(t, view, selectedGlyph)
	assert.Contains(t, view, allocGlyph)
	assert.Contains(t, view, freeGlyph)
}

func TestView_InvalidTrace(t *testing.T) {
	m := newTestModel(t, "0\n1\n1\n1\nf 0\n", 0)
	require.ErrorIs(t, m.err, trace.ErrInvalid)
	assert.Contains(t, m.View(), "Error:")

	h := NewTestHelper(m)
	h.SendKeyRune('q')
	assert.NotNil(t, h.LastCmd())
}
