package alloc

// findFit runs the next-fit search for a free block of at least need bytes.
//
// Pass 1 walks from the rover to the epilogue. Pass 2 walks from the first
// block up to, but not including, the rover. Every block is visited at most
// once per call.
func (a *Allocator) findFit(need uint32) (int, bool) {
	visits := 0
	defer func() {
		a.stats.FitSearches++
		a.stats.FitVisits += int64(visits)
		a.stats.LastFitVisits = visits
	}()

	for bp := a.rover; ; {
		size := a.blockSize(bp)
		if size == 0 {
			break
		}
		visits++
		if size >= need && !a.allocated(bp) {
			return bp, true
		}
		bp += int(size)
	}

	for bp := a.firstBlock(); bp < a.rover; {
		size := a.blockSize(bp)
		if size == 0 {
			break
		}
		visits++
		if size >= need && !a.allocated(bp) {
			return bp, true
		}
		bp += int(size)
	}

	return 0, false
}
