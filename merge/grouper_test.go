package merge

import (
	"errors"
	"io"
	"testing"

	"gopkg.in/guregu/null.v3"
)

func testRow(contig string, pos int64, ref string, alts []string, sample string) *Row {
	return &Row{
		ReferenceName:  contig,
		Position:       pos,
		EndPosition:    pos,
		ReferenceBases: ref,
		AlternateBases: alts,
		Call: Call{
			Name:     sample,
			Genotype: []int{0, 1},
			AD:       []int{4, 3},
			PL:       []int{10, 0, 119},
		},
	}
}

func collectBatches(t *testing.T, g *Grouper) []*LocusBatch {
	t.Helper()

	var batches []*LocusBatch
	for {
		batch, err := g.Next()
		if err == io.EOF {
			return batches
		}
		if err != nil {
			t.Fatal(err)
		}

		batches = append(batches, batch)
	}
}

func TestGroupingByLocus(t *testing.T) {
	src := &SliceSource{Rows: []*Row{
		testRow("chr1", 100, "A", []string{"T"}, "S1"),
		testRow("chr1", 100, "A", []string{"T"}, "S2"),
		testRow("chr1", 200, "A", []string{"G"}, "S3"),
	}}

	batches := collectBatches(t, NewGrouper(src))

	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if len(batches[0].Details) != 2 {
		t.Errorf("expected 2 details in the first batch, got %d", len(batches[0].Details))
	}
	if len(batches[1].Details) != 1 {
		t.Errorf("expected 1 detail in the second batch, got %d", len(batches[1].Details))
	}
	if batches[0].Locus.Position != 100 || batches[1].Locus.Position != 200 {
		t.Errorf("batches out of order: %v then %v", batches[0].Locus, batches[1].Locus)
	}
	if batches[0].Details[0].SampleName != "S1" || batches[0].Details[1].SampleName != "S2" {
		t.Errorf("details not in arrival order: %v", batches[0].Details)
	}
}

func TestGroupingSplitsOnAlleleChange(t *testing.T) {
	// Same contig and position, different allele sequences: two loci.
	src := &SliceSource{Rows: []*Row{
		testRow("chr1", 100, "A", []string{"T"}, "S1"),
		testRow("chr1", 100, "A", []string{"G"}, "S2"),
	}}

	batches := collectBatches(t, NewGrouper(src))

	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
}

func TestGroupingEmptyInput(t *testing.T) {
	g := NewGrouper(&SliceSource{})

	if _, err := g.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	// And it stays exhausted.
	if _, err := g.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF on repeated calls, got %v", err)
	}
}

func TestMalformedRowAbortsStream(t *testing.T) {
	bad := testRow("chr1", 200, "A", []string{"G"}, "S2")
	bad.Call.AD = nil

	src := &SliceSource{Rows: []*Row{
		testRow("chr1", 100, "A", []string{"T"}, "S1"),
		bad,
	}}

	g := NewGrouper(src)

	_, err := g.Next()

	var malformed MalformedRowError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRowError, got %v", err)
	}
	if malformed.Field != "call.AD" {
		t.Errorf("expected the missing field to be call.AD, got %s", malformed.Field)
	}

	if _, err := g.Next(); err != io.EOF {
		t.Fatalf("expected the stream to be exhausted after a malformed row, got %v", err)
	}
}

func TestOrderCheckCatchesPositionRegression(t *testing.T) {
	src := &SliceSource{Rows: []*Row{
		testRow("chr1", 200, "A", []string{"T"}, "S1"),
		testRow("chr1", 100, "A", []string{"T"}, "S2"),
	}}

	g := NewGrouper(src)
	g.CheckOrder = true

	var err error
	for err == nil {
		_, err = g.Next()
	}

	var unsorted UnsortedInputError
	if !errors.As(err, &unsorted) {
		t.Fatalf("expected UnsortedInputError, got %v", err)
	}
}

func TestOrderCheckCatchesContigRevisit(t *testing.T) {
	src := &SliceSource{Rows: []*Row{
		testRow("chr1", 100, "A", []string{"T"}, "S1"),
		testRow("chr2", 100, "A", []string{"T"}, "S1"),
		testRow("chr1", 300, "A", []string{"T"}, "S1"),
	}}

	g := NewGrouper(src)
	g.CheckOrder = true

	var err error
	for err == nil {
		_, err = g.Next()
	}

	var unsorted UnsortedInputError
	if !errors.As(err, &unsorted) {
		t.Fatalf("expected UnsortedInputError, got %v", err)
	}
}

func TestUncheckedOutOfOrderInputSplitsLoci(t *testing.T) {
	// Without CheckOrder, grouping trusts the sort precondition; interleaved
	// rows for one logical locus come out as separate batches.
	src := &SliceSource{Rows: []*Row{
		testRow("chr1", 100, "A", []string{"T"}, "S1"),
		testRow("chr1", 200, "A", []string{"T"}, "S2"),
		testRow("chr1", 100, "A", []string{"T"}, "S3"),
	}}

	batches := collectBatches(t, NewGrouper(src))

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches from unsorted input, got %d", len(batches))
	}
}

func TestExtractDetailPreservesAbsence(t *testing.T) {
	row := testRow("chr1", 100, "A", []string{"T"}, "S1")
	row.DP = null.IntFrom(0)

	detail, err := ExtractDetail(row)
	if err != nil {
		t.Fatal(err)
	}

	// A present zero stays a zero...
	if !detail.InfoDP.Valid || detail.InfoDP.Int64 != 0 {
		t.Errorf("expected InfoDP to be a valid zero, got %+v", detail.InfoDP)
	}

	// ...while everything never set stays unset.
	if detail.InfoMQ.Valid || detail.InfoVarDP.Valid || detail.InfoRawMQ.Valid {
		t.Errorf("expected unset fields to stay unset: %+v", detail)
	}
}

func TestExtractDetailCopiesArrays(t *testing.T) {
	row := testRow("chr1", 100, "A", []string{"T"}, "S1")

	detail, err := ExtractDetail(row)
	if err != nil {
		t.Fatal(err)
	}

	row.Call.AD[0] = 999
	if detail.GTAD[0] == 999 {
		t.Error("detail aliases the source row's AD array")
	}
}

func TestExtractDetailRequiredFields(t *testing.T) {
	for _, tc := range []struct {
		field  string
		mutate func(*Row)
	}{
		{"call.name", func(r *Row) { r.Call.Name = "" }},
		{"call.AD", func(r *Row) { r.Call.AD = nil }},
		{"call.PL", func(r *Row) { r.Call.PL = nil }},
		{"reference_bases", func(r *Row) { r.ReferenceBases = "" }},
	} {
		row := testRow("chr1", 100, "A", []string{"T"}, "S1")
		tc.mutate(row)

		_, err := ExtractDetail(row)

		var malformed MalformedRowError
		if !errors.As(err, &malformed) {
			t.Fatalf("%s: expected MalformedRowError, got %v", tc.field, err)
		}
		if malformed.Field != tc.field {
			t.Errorf("expected field %s, got %s", tc.field, malformed.Field)
		}
	}
}
