package main

import (
	"io"
	"log"
	"sync"

	"github.com/cohortbq/cohortvcf/merge"
	"github.com/cohortbq/cohortvcf/vcfout"
)

type job struct {
	seq   int
	batch *merge.LocusBatch
}

type result struct {
	seq  int
	site *merge.MergedSite
}

// mergeAll drives the pipeline: one feeder goroutine pulls locus batches off
// the grouper, a pool of workers merges them, and the collector re-orders
// finished sites back to batch arrival order before writing. Batches are
// mutually independent, so only the write step needs sequencing.
func mergeAll(grouper *merge.Grouper, merger *merge.Merger, writer *vcfout.Writer, workers int) error {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan job, workers*2)
	results := make(chan result, workers*2)

	pool := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		pool.Add(1)
		go func() {
			defer pool.Done()
			for j := range jobs {
				results <- result{seq: j.seq, site: merger.Merge(j.batch)}
			}
		}()
	}

	var feedErr error
	go func() {
		defer close(jobs)
		for seq := 0; ; seq++ {
			batch, err := grouper.Next()
			if err == io.EOF {
				return
			} else if err != nil {
				feedErr = err
				return
			}

			jobs <- job{seq: seq, batch: batch}
		}
	}()

	go func() {
		pool.Wait()
		close(results)
	}()

	pending := make(map[int]*merge.MergedSite)
	next := 0
	var writeErr error
	for r := range results {
		// After a write failure, keep draining so the workers and the feeder
		// can run to completion instead of blocking on full channels.
		if writeErr != nil {
			continue
		}

		pending[r.seq] = r.site

		for writeErr == nil {
			site, ok := pending[next]
			if !ok {
				break
			}

			if err := writer.WriteSite(site); err != nil {
				writeErr = err
				break
			}
			delete(pending, next)
			next++

			if next%1000 == 0 {
				log.Printf("Wrote %d sites. Last %s:%d\n", next, site.Locus.Contig, site.Locus.Position)
			}
		}
	}

	if writeErr != nil {
		return writeErr
	}

	// The feeder finished before the workers did, so this read is safe once
	// the results channel has closed.
	if feedErr != nil {
		return feedErr
	}

	log.Printf("Wrote %d sites.\n", next)

	return nil
}
