package correlate

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-coexp/internal/expr"
)

// WorkItem is one viral vector to correlate against every target.
type WorkItem struct {
	Seq    int
	Gene   string
	Vector []float64
}

// WorkResult holds the records produced for a single WorkItem.
type WorkResult struct {
	Seq      int
	Gene     string
	Records  []Record
	Skipped  int // pairs with fewer than MinJointSamples nonzero samples
	Constant int // pairs whose masked vectors had zero variance
	Err      error
}

// Target is a gene correlated against every work item.
type Target struct {
	Gene   string
	Class  expr.Organism
	Vector []float64
}

// ParallelCorrelate correlates work items against targets using a pool
// of workers. Results are sent in arrival order; use OrderedCollect to
// consume them in sequence-number order. If workers is 0,
// runtime.NumCPU() is used.
func ParallelCorrelate(items <-chan WorkItem, targets []Target, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- correlateItem(item, targets)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// Out-of-order results are buffered until the next expected sequence
// number arrives. Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
