package varquery

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Interval is a 1-based inclusive genomic range.
type Interval struct {
	Contig string
	Start  int64
	End    int64
}

func (i Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", i.Contig, i.Start, i.End)
}

// ParseInterval accepts "chr20:1000000-2000000" or a bare contig name, which
// covers the whole contig.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Interval{}, fmt.Errorf("empty interval")
	}

	colon := strings.Index(s, ":")
	if colon == -1 {
		return Interval{Contig: s, Start: 1, End: math.MaxInt64}, nil
	}

	contig := s[:colon]
	rangePart := s[colon+1:]

	dash := strings.Index(rangePart, "-")
	if contig == "" || dash == -1 {
		return Interval{}, fmt.Errorf("malformed interval %q: expected contig:start-end", s)
	}

	start, err := strconv.ParseInt(strings.ReplaceAll(rangePart[:dash], ",", ""), 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("malformed interval %q: %w", s, err)
	}

	end, err := strconv.ParseInt(strings.ReplaceAll(rangePart[dash+1:], ",", ""), 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("malformed interval %q: %w", s, err)
	}

	if start < 1 || end < start {
		return Interval{}, fmt.Errorf("malformed interval %q: start must be >= 1 and <= end", s)
	}

	return Interval{Contig: contig, Start: start, End: end}, nil
}

// SortAndMergeIntervals sorts intervals by (contig, start) and merges
// overlapping or abutting intervals on the same contig, so that downstream
// queries never see edge cases from overlapping requests.
func SortAndMergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}

	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Contig != sorted[j].Contig {
			return sorted[i].Contig < sorted[j].Contig
		}
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}

		return sorted[i].End < sorted[j].End
	})

	out := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		// current.End+1 overflows when End is the whole-contig sentinel, so
		// treat the sentinel as absorbing everything on its contig.
		if next.Contig == current.Contig && (current.End == math.MaxInt64 || next.Start <= current.End+1) {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}

		out = append(out, current)
		current = next
	}
	out = append(out, current)

	return out
}
