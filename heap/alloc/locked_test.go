package alloc

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocked_ConcurrentUse(t *testing.T) {
	l := NewLocked(newTestAllocator(t, 256, 0))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var mine []Ptr
			for i := range 300 {
				size := 8 + (w*31+i*17)%500
				p, err := l.Alloc(size)
				if err != nil {
					errs <- err
					return
				}
				want := bytes.Repeat([]byte{byte(w)}, size)
				if err := l.Write(p, 0, want); err != nil {
					errs <- err
					return
				}
				mine = append(mine, p)

				if i%3 == 2 {
					victim := mine[0]
					mine = mine[1:]
					got := make([]byte, 8)
					if err := l.Read(victim, 0, got); err != nil {
						errs <- err
						return
					}
					if !bytes.Equal(got, bytes.Repeat([]byte{byte(w)}, 8)) {
						errs <- fmt.Errorf("worker %d: block 0x%x holds %v", w, uint32(victim), got)
						return
					}
					l.Free(victim)
				}
				if i%50 == 49 && len(mine) > 0 {
					np, err := l.Realloc(mine[0], size*2)
					if err != nil {
						errs <- err
						return
					}
					mine[0] = np
				}
			}
			for _, p := range mine {
				l.Free(p)
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, l.Check())
	assert.Positive(t, l.Stats().AllocCalls)

	l.Do(func(a *Allocator) {
		assert.Len(t, blocks(t, a), 1)
	})
}

func TestLocked_ReadWriteBounds(t *testing.T) {
	l := NewLocked(newTestAllocator(t, 0, 0))
	p, err := l.Alloc(16)
	require.NoError(t, err)

	require.NoError(t, l.Write(p, 4, []byte("abcd")))
	got := make([]byte, 4)
	require.NoError(t, l.Read(p, 4, got))
	assert.Equal(t, "abcd", string(got))

	require.ErrorIs(t, l.Write(p, 14, []byte("abcd")), ErrBadPtr)
	require.ErrorIs(t, l.Read(p, -1, got), ErrBadPtr)
	require.ErrorIs(t, l.Read(Nil, 0, got), ErrBadPtr)
}
