package varquery

import (
	"reflect"
	"testing"

	"cloud.google.com/go/bigquery"
)

func TestVariantRowConversion(t *testing.T) {
	rec := variantRow{
		ReferenceName:  "chr20",
		StartPosition:  99, // stored starts are exclusive
		EndPosition:    100,
		ReferenceBases: "A",
		AlternateBases: []altAllele{{Alt: "T"}, {Alt: "<NON_REF>"}},
		Quality:        bigquery.NullFloat64{Float64: 30, Valid: true},
		Filter:         []string{"LowQual"},
		Call: []callRecord{{
			Name:     "S1",
			Genotype: []int64{0, 1},
			AD:       []int64{4, 3, 0},
			PL:       []int64{10, 0, 119, 101, 128, 229},
			SB:       []int64{0, 4, 0, 3},
			DP:       bigquery.NullInt64{Int64: 7, Valid: true},
			GQ:       bigquery.NullInt64{Int64: 10, Valid: true},
		}},
		DP:    bigquery.NullInt64{Int64: 7, Valid: true},
		MQ:    bigquery.NullFloat64{Float64: 34.15, Valid: true},
		RawMQ: bigquery.NullFloat64{Float64: 239.05, Valid: true},
	}

	row := rec.toRow()

	if row.Position != 100 {
		t.Errorf("expected the exclusive start 99 to become position 100, got %d", row.Position)
	}
	if !reflect.DeepEqual(row.AlternateBases, []string{"T", "<NON_REF>"}) {
		t.Errorf("unexpected alternate alleles: %v", row.AlternateBases)
	}
	if !row.RawMQ.Valid || row.RawMQ.Int64 != 239 {
		t.Errorf("expected RAW_MQ 239.05 to round to 239, got %+v", row.RawMQ)
	}
	if row.MQRankSum.Valid || row.VarDP.Valid {
		t.Errorf("expected SQL NULLs to stay unset: %+v", row)
	}

	if row.Call.Name != "S1" {
		t.Errorf("unexpected sample name %s", row.Call.Name)
	}
	if !reflect.DeepEqual(row.Call.Genotype, []int{0, 1}) {
		t.Errorf("unexpected genotype %v", row.Call.Genotype)
	}
	if !reflect.DeepEqual(row.Call.AD, []int{4, 3, 0}) {
		t.Errorf("unexpected AD %v", row.Call.AD)
	}
	if !row.Call.DP.Valid || row.Call.DP.Int64 != 7 {
		t.Errorf("unexpected call DP %+v", row.Call.DP)
	}
}

func TestVariantRowConversionWithoutCall(t *testing.T) {
	rec := variantRow{
		ReferenceName:  "chr20",
		StartPosition:  99,
		ReferenceBases: "A",
	}

	row := rec.toRow()

	// An empty call surfaces as a missing sample name, which extraction
	// rejects as malformed.
	if row.Call.Name != "" || row.Call.AD != nil {
		t.Errorf("expected an empty call record, got %+v", row.Call)
	}
}
