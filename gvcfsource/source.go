// Package gvcfsource streams per-sample variant rows out of single-sample
// GVCF files, merged into the same sorted order the remote query produces.
// It exists so the merge pipeline can run, and be tested, without a BigQuery
// backend.
package gvcfsource

import (
	"bufio"
	"compress/gzip"
	"container/heap"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vcfgo"

	"github.com/cohortbq/cohortvcf"
	"github.com/cohortbq/cohortvcf/merge"
	"github.com/cohortbq/cohortvcf/varquery"
)

const BufferSize = 4096 * 8

// Source implements merge.RowSource over N single-sample GVCF inputs via a
// k-way merge ordered by (contig, position, end, alleles). Contigs compare
// lexicographically, matching the remote query's ORDER BY, so the grouper's
// contiguity precondition holds either way. Each input must be sorted; the
// merge preserves that per-file order globally.
type Source struct {
	streams streamHeap
	samples []string
	closers []func() error
}

type stream struct {
	sample string
	read   func() (*vcfgo.Variant, error)
	cur    *merge.Row
}

// advance pulls the stream's next variant, converting it to a row. cur is nil
// once the stream is exhausted.
func (s *stream) advance() error {
	v, err := s.read()
	if err == io.EOF {
		s.cur = nil
		return nil
	} else if err != nil {
		return err
	}

	s.cur, err = rowFromVariant(v, s.sample)

	return err
}

func (s *stream) sortKey() string {
	return fmt.Sprintf("%s\x00%020d\x00%020d\x00%s\x00%s",
		s.cur.ReferenceName, s.cur.Position, s.cur.EndPosition,
		s.cur.ReferenceBases, strings.Join(s.cur.AlternateBases, ","))
}

type streamHeap []*stream

func (h streamHeap) Len() int { return len(h) }
func (h streamHeap) Less(i, j int) bool {
	if ki, kj := h[i].sortKey(), h[j].sortKey(); ki != kj {
		return ki < kj
	}

	// Tie-break on sample name so interleaving is deterministic.
	return h[i].sample < h[j].sample
}
func (h streamHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *streamHeap) Push(x interface{}) {
	*h = append(*h, x.(*stream))
}
func (h *streamHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// Open prepares a merged row stream over the given GVCF paths, which may be
// local or gs:// (gzip or plain text). With intervals set, reads are
// tabix-restricted and each path must have a companion .tbi index.
func Open(paths []string, client *storage.Client, intervals []varquery.Interval) (*Source, error) {
	src := &Source{}

	for _, path := range paths {
		var sampleName string
		var read func() (*vcfgo.Variant, error)

		if len(intervals) > 0 {
			tbx, err := openTabix(path, client)
			if err != nil {
				return nil, pfx.Err(err)
			}
			src.closers = append(src.closers, tbx.Close)

			sampleName, err = singleSampleName(tbx.VReader.Header.SampleNames, path)
			if err != nil {
				return nil, err
			}

			read = tabixRead(tbx, intervals)
		} else {
			fraw, err := cohortvcf.MaybeOpenSeekerFromGoogleStorage(path, client)
			if err != nil {
				return nil, pfx.Err(err)
			}
			src.closers = append(src.closers, fraw.Close)

			var f io.Reader
			f, err = gzip.NewReader(fraw)
			if err != nil {
				if _, err := fraw.Seek(0, io.SeekStart); err != nil {
					return nil, pfx.Err(err)
				}
				f = fraw
			}

			rdr, err := vcfgo.NewReader(bufio.NewReaderSize(f, BufferSize), true)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
			}

			sampleName, err = singleSampleName(rdr.Header.SampleNames, path)
			if err != nil {
				return nil, err
			}

			read = readerRead(rdr)
		}

		if err := src.add(sampleName, read); err != nil {
			return nil, err
		}
	}

	heap.Init(&src.streams)

	return src, nil
}

// NewFromReaders builds a Source over already-open plain-text GVCF readers.
func NewFromReaders(readers []io.Reader) (*Source, error) {
	src := &Source{}

	for i, r := range readers {
		rdr, err := vcfgo.NewReader(bufio.NewReaderSize(r, BufferSize), true)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("reader %d: %w", i, err))
		}

		sampleName, err := singleSampleName(rdr.Header.SampleNames, fmt.Sprintf("reader %d", i))
		if err != nil {
			return nil, err
		}

		if err := src.add(sampleName, readerRead(rdr)); err != nil {
			return nil, err
		}
	}

	heap.Init(&src.streams)

	return src, nil
}

func (src *Source) add(sampleName string, read func() (*vcfgo.Variant, error)) error {
	s := &stream{sample: sampleName, read: read}
	if err := s.advance(); err != nil {
		return err
	}
	if s.cur != nil {
		src.streams = append(src.streams, s)
	}
	src.samples = append(src.samples, sampleName)

	return nil
}

func singleSampleName(sampleNames []string, origin string) (string, error) {
	if len(sampleNames) != 1 {
		return "", fmt.Errorf("%s: expected exactly one sample per GVCF, found %d", origin, len(sampleNames))
	}

	return sampleNames[0], nil
}

func readerRead(rdr *vcfgo.Reader) func() (*vcfgo.Variant, error) {
	return func() (*vcfgo.Variant, error) {
		v := rdr.Read()
		if v == nil {
			return nil, io.EOF
		}

		return v, nil
	}
}

// SampleNames lists the input sample names in path order; this doubles as the
// local sample enumeration for the registry.
func (src *Source) SampleNames() []string {
	return src.samples
}

func (src *Source) Next() (*merge.Row, error) {
	if src.streams.Len() == 0 {
		return nil, io.EOF
	}

	s := src.streams[0]
	row := s.cur

	if err := s.advance(); err != nil {
		return nil, err
	}

	if s.cur == nil {
		heap.Pop(&src.streams)
	} else {
		heap.Fix(&src.streams, 0)
	}

	return row, nil
}

func (src *Source) Close() error {
	var firstErr error
	for _, closer := range src.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
