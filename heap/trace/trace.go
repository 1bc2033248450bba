// Package trace reads allocation trace files.
//
// A trace starts with four header integers, one per line:
//
//	suggested heap size
//	number of ids
//	number of ops
//	weight
//
// followed by one operation per line:
//
//	a <id> <bytes>   allocate bytes and bind the block to id
//	r <id> <bytes>   resize the block bound to id
//	f <id>           free the block bound to id
//
// Blank lines and lines starting with '#' are ignored.
package trace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/internal/mmfile"
)

// Kind is the operation type of one trace line.
type Kind byte

const (
	Alloc   Kind = 'a'
	Free    Kind = 'f'
	Realloc Kind = 'r'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Free:
		return "free"
	case Realloc:
		return "realloc"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one trace operation.
type Op struct {
	Kind Kind
	ID   int
	Size int // 0 for Free
	Line int // source line, 1-based
}

// Trace is a parsed trace file.
type Trace struct {
	Name              string // base name of the file, or "" for readers
	SuggestedHeapSize int
	NumIDs            int
	NumOps            int
	Weight            int
	Ops               []Op
}

var (
	// ErrSyntax indicates a malformed trace line.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrInvalid indicates a well-formed trace whose operations do not make sense.
	ErrInvalid = errors.New("trace: invalid")
)

// ParseError locates a syntax error.
type ParseError struct {
	Name string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("trace %s:%d: %s", e.Name, e.Line, e.Msg)
	}
	return fmt.Sprintf("trace line %d: %s", e.Line, e.Msg)
}

// Unwrap lets errors.Is(err, ErrSyntax) match.
func (e *ParseError) Unwrap() error { return ErrSyntax }

// mapFile is swapped in tests.
var mapFile = mmfile.Map

// ParseFile reads and parses the trace at path. A failure to unmap the file
// is reported like a read error.
func ParseFile(path string) (tr *Trace, err error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			tr, err = nil, errors.Join(err, fmt.Errorf("trace: release %s: %w", path, rerr))
		}
	}()

	return parse(bytes.NewReader(data), filepath.Base(path))
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
	return parse(r, "")
}

func parse(r io.Reader, name string) (*Trace, error) {
	tr := &Trace{Name: name}
	header := []*int{&tr.SuggestedHeapSize, &tr.NumIDs, &tr.NumOps, &tr.Weight}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		if len(header) > 0 {
			n, err := strconv.Atoi(text)
			if err != nil || n < 0 {
				return nil, &ParseError{Name: name, Line: line, Msg: fmt.Sprintf("bad header value %q", text)}
			}
			*header[0] = n
			header = header[1:]
			continue
		}

		op, err := parseOp(text)
		if err != nil {
			return nil, &ParseError{Name: name, Line: line, Msg: err.Error()}
		}
		op.Line = line
		tr.Ops = append(tr.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("trace %s: %w", name, err)
	}
	if len(header) > 0 {
		return nil, &ParseError{Name: name, Line: line, Msg: "truncated header"}
	}
	return tr, nil
}

func parseOp(text string) (Op, error) {
	fields := strings.Fields(text)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}

	op := Op{Kind: Kind(fields[0][0])}
	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%s takes %d fields, got %d", op.Kind, want-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("bad id %q", fields[1])
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("bad size %q", fields[2])
		}
		op.Size = size
	}
	return op, nil
}

// Validate checks that the ops agree with the header and with each other:
// ids are in range, the op count matches, every id is allocated before it is
// resized or freed, no id is allocated twice while live, and no alloc or
// realloc asks for zero bytes.
func (tr *Trace) Validate() error {
	if len(tr.Ops) != tr.NumOps {
		return fmt.Errorf("%w: header says %d ops, found %d", ErrInvalid, tr.NumOps, len(tr.Ops))
	}

	live := make([]bool, tr.NumIDs)
	for i, op := range tr.Ops {
		if op.ID >= tr.NumIDs {
			return fmt.Errorf("%w: op %d (line %d): id %d out of range [0, %d)", ErrInvalid, i, op.Line, op.ID, tr.NumIDs)
		}
		if op.Kind != Free && op.Size == 0 {
			return fmt.Errorf("%w: op %d (line %d): zero-size %s", ErrInvalid, i, op.Line, op.Kind)
		}
		switch op.Kind {
		case Alloc:
			if live[op.ID] {
				return fmt.Errorf("%w: op %d (line %d): id %d allocated twice", ErrInvalid, i, op.Line, op.ID)
			}
			live[op.ID] = true
		case Realloc:
			if !live[op.ID] {
				return fmt.Errorf("%w: op %d (line %d): realloc of dead id %d", ErrInvalid, i, op.Line, op.ID)
			}
		case Free:
			if !live[op.ID] {
				return fmt.Errorf("%w: op %d (line %d): free of dead id %d", ErrInvalid, i, op.Line, op.ID)
			}
			live[op.ID] = false
		}
	}
	return nil
}

// Write serializes tr in the format Parse reads.
func (tr *Trace) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%d\n", tr.SuggestedHeapSize, tr.NumIDs, tr.NumOps, tr.Weight)
	for _, op := range tr.Ops {
		if op.Kind == Free {
			fmt.Fprintf(bw, "%c %d\n", op.Kind, op.ID)
			continue
		}
		fmt.Fprintf(bw, "%c %d %d\n", op.Kind, op.ID, op.Size)
	}
	return bw.Flush()
}
