package replay

import (
	"io"
	"slices"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/trace"
)

// Stepper replays a trace one operation at a time, validating each result
// the same way Run does. It is used by interactive tools that inspect the
// heap between operations.
type Stepper struct {
	pl   *player
	tr   *trace.Trace
	opts Options
	pos  int
}

// NewStepper validates tr (unless opts.SkipValidate) and returns a stepper
// positioned before the first operation.
func NewStepper(h Heap, tr *trace.Trace, opts Options) (*Stepper, error) {
	if !opts.SkipValidate {
		if err := tr.Validate(); err != nil {
			return nil, err
		}
	}
	return &Stepper{
		pl:   &player{h: h, blocks: make([]block, tr.NumIDs)},
		tr:   tr,
		opts: opts,
	}, nil
}

// Step executes the next operation and returns it. It returns io.EOF once
// every operation has run, and an *OpError when the operation fails; the
// stepper does not advance past a failed operation.
func (s *Stepper) Step() (trace.Op, error) {
	if s.Done() {
		return trace.Op{}, io.EOF
	}
	op := s.tr.Ops[s.pos]
	if err := s.pl.step(op); err != nil {
		return op, &OpError{Index: s.pos, Op: op, Err: err}
	}
	if s.opts.CheckHeap {
		if err := s.pl.h.Check(); err != nil {
			return op, &OpError{Index: s.pos, Op: op, Err: err}
		}
	}
	s.pos++
	return op, nil
}

// Pos returns the number of operations executed.
func (s *Stepper) Pos() int { return s.pos }

// Len returns the number of operations in the trace.
func (s *Stepper) Len() int { return len(s.tr.Ops) }

// Done reports whether every operation has run.
func (s *Stepper) Done() bool { return s.pos >= len(s.tr.Ops) }

// Live returns the sum of live payload sizes.
func (s *Stepper) Live() int64 { return s.pl.live }

// Peak returns the largest value Live has reached.
func (s *Stepper) Peak() int64 { return s.pl.peak }

// Owner returns the trace id whose live block starts at p.
func (s *Stepper) Owner(p alloc.Ptr) (int, bool) {
	i, found := slices.BinarySearchFunc(s.pl.spans, int(p), func(x span, start int) int { return x.start - start })
	if !found {
		return 0, false
	}
	return s.pl.spans[i].id, true
}
