package gvcfsource

import (
	"fmt"
	"io"
	"math"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/brentp/irelate/interfaces"
	"github.com/carbocation/bix"
	"github.com/carbocation/vcfgo"

	"github.com/cohortbq/cohortvcf/varquery"
)

// tabixLocus adapts an interval to the half-open, 0-based coordinates the
// tabix query layer expects.
type tabixLocus struct {
	chrom string
	start int
	end   int
}

func (tl tabixLocus) Chrom() string {
	return tl.chrom
}

func (tl tabixLocus) Start() uint32 {
	return uint32(tl.start)
}

func (tl tabixLocus) End() uint32 {
	return uint32(tl.end)
}

func openTabix(path string, client *storage.Client) (*bix.Bix, error) {
	if strings.HasPrefix(path, "gs://") {
		return bix.NewGCP(path, client)
	}

	return bix.New(path)
}

// tabixRead iterates the given intervals over one tabix-indexed GVCF,
// unwrapping the query layer's wrappers back to vcfgo variants.
func tabixRead(tbx *bix.Bix, intervals []varquery.Interval) func() (*vcfgo.Variant, error) {
	idx := 0
	var vals interfaces.RelatableIterator

	return func() (*vcfgo.Variant, error) {
		for {
			if vals == nil {
				if idx >= len(intervals) {
					return nil, io.EOF
				}

				interval := intervals[idx]
				idx++

				end := interval.End
				if end > math.MaxUint32 {
					end = math.MaxUint32
				}

				q, err := tbx.Query(tabixLocus{
					chrom: interval.Contig,
					start: int(interval.Start - 1),
					end:   int(end),
				})
				if err != nil {
					return nil, err
				}
				vals = q
			}

			v, err := vals.Next()
			if err == io.EOF {
				vals.Close()
				vals = nil
				continue
			} else if err != nil {
				return nil, err
			}

			// Unwrap multiple layers to get to vcfgo.Variant{}

			v2, ok := v.(interfaces.VarWrap)
			if !ok {
				return nil, fmt.Errorf("%s:%d is not a valid VarWrap", v.Chrom(), v.End())
			}

			snp, ok := v2.IVariant.(*vcfgo.Variant)
			if !ok {
				return nil, fmt.Errorf("%s:%d is not a valid IVariant", v.Chrom(), v.End())
			}

			return snp, nil
		}
	}
}
