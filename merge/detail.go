package merge

import (
	"fmt"

	"gopkg.in/guregu/null.v3"
)

// SampleDetail is one sample's contribution at a locus. Numeric fields that
// may be absent on the source row stay null rather than zero; the aggregation
// rules depend on that distinction.
type SampleDetail struct {
	SampleName string
	Qual       null.Float

	InfoDP             null.Int
	InfoMQ             null.Float
	InfoMQRankSum      null.Float
	InfoMQDP           null.Int
	InfoQualApprox     null.Int
	InfoRawMQ          null.Int
	InfoReadPosRankSum null.Float
	InfoVarDP          null.Int

	GTGenotype []int
	GTAD       []int
	GTDP       null.Int
	GTGQ       null.Int
	GTPL       []int
	GTSB       []int
}

// MalformedRowError reports a row missing a field that well-formed input
// always carries. Extraction errors are fatal to the run: a bad row breaks
// locus grouping for its whole batch, and indicates an upstream defect rather
// than a transient condition.
type MalformedRowError struct {
	Field    string
	Contig   string
	Position int64
}

func (e MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row at %s:%d: missing required field %s", e.Contig, e.Position, e.Field)
}

// ExtractDetail converts one raw row into a SampleDetail. It is a pure
// transform: slices are copied so batches own their data independently of the
// source row.
func ExtractDetail(row *Row) (SampleDetail, error) {
	malformed := func(field string) (SampleDetail, error) {
		return SampleDetail{}, MalformedRowError{Field: field, Contig: row.ReferenceName, Position: row.Position}
	}

	if row.ReferenceBases == "" {
		return malformed("reference_bases")
	}
	if row.Call.Name == "" {
		return malformed("call.name")
	}
	if row.Call.AD == nil {
		return malformed("call.AD")
	}
	if row.Call.PL == nil {
		return malformed("call.PL")
	}

	return SampleDetail{
		SampleName: row.Call.Name,
		Qual:       row.Quality,

		InfoDP:             row.DP,
		InfoMQ:             row.MQ,
		InfoMQRankSum:      row.MQRankSum,
		InfoMQDP:           row.MQDP,
		InfoQualApprox:     row.QualApprox,
		InfoRawMQ:          row.RawMQ,
		InfoReadPosRankSum: row.ReadPosRankSum,
		InfoVarDP:          row.VarDP,

		GTGenotype: copyInts(row.Call.Genotype),
		GTAD:       copyInts(row.Call.AD),
		GTDP:       row.Call.DP,
		GTGQ:       row.Call.GQ,
		GTPL:       copyInts(row.Call.PL),
		GTSB:       copyInts(row.Call.SB),
	}, nil
}

func copyInts(in []int) []int {
	if in == nil {
		return nil
	}

	out := make([]int, len(in))
	copy(out, in)

	return out
}
