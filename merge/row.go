package merge

import (
	"io"

	"gopkg.in/guregu/null.v3"
)

// Row is one per-sample variant record as normalized by a row source. Sources
// are responsible for converting to 1-based inclusive positions before
// handing rows to this package. Optional fields use null types so that
// "absent" and "zero" stay distinguishable through aggregation.
type Row struct {
	ReferenceName  string
	Position       int64
	EndPosition    int64
	ReferenceBases string
	AlternateBases []string
	Quality        null.Float
	Filters        []string

	Call Call

	// INFO-style per-sample scalars.
	DP             null.Int
	MQ             null.Float
	MQRankSum      null.Float
	MQDP           null.Int
	QualApprox     null.Int
	RawMQ          null.Int
	ReadPosRankSum null.Float
	VarDP          null.Int
}

// Call is the nested per-sample genotype record on a Row. Genotype entries
// are allele indices where 0 denotes the reference allele and k>0 denotes the
// (k-1)th alternate allele in row order.
type Call struct {
	Name     string
	Genotype []int
	AD       []int
	PL       []int
	SB       []int
	DP       null.Int
	GQ       null.Int
	Phaseset null.String
	MinDP    null.Int
	PhasedGT null.String
	PhaseID  null.String
}

// RowSource yields rows sorted ascending by (contig, position, allele
// sequence), so that all rows for one locus are contiguous. Next returns
// io.EOF once the stream is exhausted.
type RowSource interface {
	Next() (*Row, error)
}

// SliceSource adapts an in-memory row slice to a RowSource.
type SliceSource struct {
	Rows []*Row
	pos  int
}

func (s *SliceSource) Next() (*Row, error) {
	if s.pos >= len(s.Rows) {
		return nil, io.EOF
	}

	row := s.Rows[s.pos]
	s.pos++

	return row, nil
}
