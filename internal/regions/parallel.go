package regions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/inodb/snpfilter/internal/genome"
)

type buildResult struct {
	name string
	set  *Set
}

// BuildAll builds the unsafe set of every contig using a pool of workers.
// Contigs share no state, so results are keyed by contig name.
// If workers is 0, runtime.NumCPU() is used.
func BuildAll(ctx context.Context, contigs []*genome.Contig, gapDistance, workers int) (map[string]*Set, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan *genome.Contig)
	results := make(chan buildResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for c := range items {
				results <- buildResult{name: c.Name, set: Build(c, gapDistance)}
			}
		}()
	}

	go func() {
		defer close(items)
		for _, c := range contigs {
			select {
			case items <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	sets := make(map[string]*Set, len(contigs))
	for r := range results {
		sets[r.name] = r.set
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// WriteBED writes the ranges of a set as BED intervals (0-based, half-open).
func WriteBED(w io.Writer, s *Set) error {
	bw := bufio.NewWriter(w)
	for _, r := range s.ranges {
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%d\n", s.contig, r.Start-1, r.End); err != nil {
			return err
		}
	}
	return bw.Flush()
}
