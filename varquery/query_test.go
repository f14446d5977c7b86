package varquery

import (
	"strings"
	"testing"
)

func testTables() Tables {
	return Tables{
		SampleTable:    "gvcf_test.sample_list",
		PositionTables: map[string]string{"chr20": "gvcf_test.pet_chr20"},
		VariantTables:  map[string]string{"chr20": "gvcf_test.vet_chr20"},
	}
}

func TestRenderVariantQuery(t *testing.T) {
	bq := &WrappedBigQuery{Project: "my-project"}

	queryString, params, err := renderVariantQuery(bq, testTables(), Interval{Contig: "chr20", Start: 1000000, End: 2000000})
	if err != nil {
		t.Fatal(err)
	}

	for _, expected := range []string{
		"`my-project.gvcf_test.pet_chr20` AS variant_samples",
		"`my-project.gvcf_test.vet_chr20` AS variants",
		"UNNEST(variants.call) AS samples",
		"alt_bases.alt != '<NON_REF>'",
		"variant_samples.state = 1",
		"ORDER BY reference_name, start_position, end_position",
	} {
		if !strings.Contains(queryString, expected) {
			t.Errorf("query is missing %q:\n%s", expected, queryString)
		}
	}

	if len(params) != 3 {
		t.Fatalf("expected 3 query parameters, got %d", len(params))
	}

	values := make(map[string]interface{}, len(params))
	for _, p := range params {
		values[p.Name] = p.Value
	}
	if values["contig"] != "chr20" || values["start"] != int64(1000000) || values["end"] != int64(2000000) {
		t.Errorf("unexpected parameter values: %v", values)
	}
}

func TestTablesHasContig(t *testing.T) {
	tables := testTables()

	if !tables.HasContig("chr20") {
		t.Error("expected chr20 to be mapped")
	}
	if tables.HasContig("chr21") {
		t.Error("expected chr21 to be unmapped")
	}
}
