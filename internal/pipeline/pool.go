package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/pburn/internal/source"
)

// workerCount bounds the pool at GOMAXPROCS and at the number of jobs.
func workerCount(jobs int) int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 4
	}
	if n > jobs {
		n = jobs
	}
	return n
}

// parallel runs fn(i) for every i in [0, jobs) on a bounded worker pool.
// done, if non-nil, is called after each job with the number finished.
func parallel(jobs int, fn func(i int), done func(n int)) {
	if jobs == 0 {
		return
	}

	work := make(chan int, jobs)
	for i := 0; i < jobs; i++ {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	var finished atomic.Int64

	workers := workerCount(jobs)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				fn(idx)
				n := finished.Add(1)
				if done != nil {
					done(int(n))
				}
			}
		}()
	}

	wg.Wait()
}

// parseFiles parses files concurrently. Results keep the input order.
// Progress is reported as offset+n out of total.
func parseFiles(files []source.DiscoveredFile, offset, total int, progressFn ProgressFunc) []source.ParseResult {
	results := make([]source.ParseResult, len(files))
	var report func(int)
	if progressFn != nil {
		report = func(n int) { progressFn(offset+n, total) }
	}
	parallel(len(files), func(i int) {
		results[i] = source.ParseFile(files[i])
	}, report)
	return results
}
