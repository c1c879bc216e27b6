package gecco

import (
	"runtime"
	"sync"
)

// mapOrdered fans fn out over a bounded worker pool and gathers the
// results back in submission order, so downstream steps that assume a
// stable sample ordering (fold assembly, merged output) stay correct.
// jobs <= 0 uses every CPU. The first error by input order wins.
func mapOrdered[T, R any](jobs int, in []T, fn func(T) (R, error)) ([]R, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if jobs > len(in) {
		jobs = len(in)
	}

	results := make([]R, len(in))
	errs := make([]error, len(in))

	if jobs <= 1 {
		for i := range in {
			if results[i], errs[i] = fn(in[i]); errs[i] != nil {
				return nil, errs[i]
			}
		}
		return results, nil
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i], errs[i] = fn(in[i])
			}
		}()
	}

	for i := range in {
		work <- i
	}
	close(work)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
