package region

import "fmt"

// Memory is a Region backed by a Go byte slice with a hard size limit.
type Memory struct {
	data  []byte
	limit int
}

// NewMemory returns an empty memory region that refuses to grow past limit
// bytes. A limit <= 0 selects DefaultLimit.
func NewMemory(limit int) *Memory {
	return &Memory{limit: clampLimit(limit, DefaultLimit)}
}

// Extend grows the region by n bytes.
func (m *Memory) Extend(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadExtend, n)
	}
	old := len(m.data)
	if n > m.limit-old {
		return 0, fmt.Errorf("%w: have %d, want %d more, limit %d", ErrExhausted, old, n, m.limit)
	}

	newLen := old + n
	if newLen <= cap(m.data) {
		m.data = m.data[:newLen]
		clear(m.data[old:])
		return old, nil
	}

	newCap := min(max(2*cap(m.data), newLen), m.limit)
	grown := make([]byte, newLen, newCap)
	copy(grown, m.data)
	m.data = grown
	return old, nil
}

// Bytes returns the backing slice.
func (m *Memory) Bytes() []byte { return m.data }

// Len returns the current region size.
func (m *Memory) Len() int { return len(m.data) }

// Limit returns the size cap.
func (m *Memory) Limit() int { return m.limit }

// Reset truncates the region to zero length. Capacity is kept so a replay
// loop does not reallocate on every run.
func (m *Memory) Reset() error {
	m.data = m.data[:0]
	return nil
}
