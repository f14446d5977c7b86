package varquery

import (
	"math"
	"reflect"
	"testing"
)

func TestParseInterval(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Interval
	}{
		{"chr20:1000000-2000000", Interval{"chr20", 1000000, 2000000}},
		{"chr20:1,000,000-2,000,000", Interval{"chr20", 1000000, 2000000}},
		{"chr20", Interval{"chr20", 1, math.MaxInt64}},
		{" chrX:5-5 ", Interval{"chrX", 5, 5}},
	} {
		interval, err := ParseInterval(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if interval != tc.expected {
			t.Errorf("%s: got %v, expected %v", tc.in, interval, tc.expected)
		}
	}
}

func TestParseIntervalRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "chr20:", "chr20:100", "chr20:abc-200", ":100-200", "chr20:200-100", "chr20:0-100"} {
		if _, err := ParseInterval(in); err == nil {
			t.Errorf("expected %q to fail parsing", in)
		}
	}
}

func TestSortAndMergeIntervals(t *testing.T) {
	merged := SortAndMergeIntervals([]Interval{
		{"chr2", 500, 600},
		{"chr1", 300, 400},
		{"chr1", 100, 250},
		{"chr1", 200, 350}, // overlaps both chr1 intervals
		{"chr2", 601, 700}, // abuts the first chr2 interval
	})

	expected := []Interval{
		{"chr1", 100, 400},
		{"chr2", 500, 700},
	}
	if !reflect.DeepEqual(merged, expected) {
		t.Errorf("got %v, expected %v", merged, expected)
	}
}

func TestSortAndMergeIntervalsBareContigAbsorbsContained(t *testing.T) {
	whole, err := ParseInterval("chr20")
	if err != nil {
		t.Fatal(err)
	}

	merged := SortAndMergeIntervals([]Interval{
		whole,
		{"chr20", 100, 200},
		{"chr21", 100, 200},
	})

	expected := []Interval{
		{"chr20", 1, math.MaxInt64},
		{"chr21", 100, 200},
	}
	if !reflect.DeepEqual(merged, expected) {
		t.Errorf("expected the whole-contig interval to absorb the contained one, got %v", merged)
	}
}

func TestSortAndMergeIntervalsKeepsDisjointApart(t *testing.T) {
	merged := SortAndMergeIntervals([]Interval{
		{"chr1", 100, 200},
		{"chr1", 300, 400},
	})

	if len(merged) != 2 {
		t.Fatalf("expected disjoint intervals to stay separate, got %v", merged)
	}
}

func TestSortAndMergeIntervalsEmpty(t *testing.T) {
	if merged := SortAndMergeIntervals(nil); merged != nil {
		t.Errorf("expected nil, got %v", merged)
	}
}
