package merge

import (
	"fmt"
	"io"
)

// UnsortedInputError reports a violation of the sorted-input precondition,
// detected only when the Grouper's CheckOrder mode is enabled.
type UnsortedInputError struct {
	Contig   string
	Position int64
}

func (e UnsortedInputError) Error() string {
	return fmt.Sprintf("input rows are not sorted: row at %s:%d arrived out of order", e.Contig, e.Position)
}

// Grouper consumes a sorted row stream and yields one LocusBatch per locus.
// Grouping relies solely on key equality between consecutive rows: the caller
// guarantees that rows arrive sorted ascending by (contig, position, allele
// sequence). Unsorted input silently produces multiple batches for one
// logical locus unless CheckOrder is set, in which case position regressions
// and contig revisits fail with UnsortedInputError.
type Grouper struct {
	// CheckOrder enables the opt-in sort-order verification pass. It must be
	// set before the first call to Next.
	CheckOrder bool

	src  RowSource
	done bool

	pendingLocus  Locus
	pendingDetail SampleDetail
	havePending   bool

	seenContigs map[string]bool
	lastContig  string
	lastPos     int64
}

func NewGrouper(src RowSource) *Grouper {
	return &Grouper{
		src:         src,
		seenContigs: make(map[string]bool),
	}
}

// Next returns the next completed locus batch, or io.EOF once the source is
// exhausted. Extraction errors abort the stream.
func (g *Grouper) Next() (*LocusBatch, error) {
	if g.done {
		return nil, io.EOF
	}

	var batch *LocusBatch
	if g.havePending {
		batch = &LocusBatch{Locus: g.pendingLocus, Details: []SampleDetail{g.pendingDetail}}
		g.havePending = false
	}

	for {
		row, err := g.src.Next()
		if err == io.EOF {
			g.done = true
			if batch != nil {
				return batch, nil
			}

			return nil, io.EOF
		} else if err != nil {
			g.done = true
			return nil, err
		}

		if g.CheckOrder {
			if err := g.verifyOrder(row); err != nil {
				g.done = true
				return nil, err
			}
		}

		detail, err := ExtractDetail(row)
		if err != nil {
			g.done = true
			return nil, err
		}

		locus := rowLocus(row)

		if batch == nil {
			batch = &LocusBatch{Locus: locus, Details: []SampleDetail{detail}}
			continue
		}

		if locus.Equal(batch.Locus) {
			batch.Details = append(batch.Details, detail)
			continue
		}

		// The locus changed: stash this row's detail for the next batch and
		// hand the completed one to the caller.
		g.pendingLocus = locus
		g.pendingDetail = detail
		g.havePending = true

		return batch, nil
	}
}

func (g *Grouper) verifyOrder(row *Row) error {
	if row.ReferenceName == g.lastContig {
		if row.Position < g.lastPos {
			return UnsortedInputError{Contig: row.ReferenceName, Position: row.Position}
		}
	} else {
		if g.seenContigs[row.ReferenceName] {
			return UnsortedInputError{Contig: row.ReferenceName, Position: row.Position}
		}
		g.seenContigs[row.ReferenceName] = true
		g.lastContig = row.ReferenceName
	}
	g.lastPos = row.Position

	return nil
}
