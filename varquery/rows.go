package varquery

import (
	"io"
	"log"
	"math"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
	"gopkg.in/guregu/null.v3"

	"github.com/cohortbq/cohortvcf/merge"
)

// variantRow mirrors one result row of the variant query. SQL NULLs land in
// bigquery.Null* wrappers; columns without a matching field are ignored by
// the struct loader.
type variantRow struct {
	ReferenceName  string               `bigquery:"reference_name"`
	StartPosition  int64                `bigquery:"start_position"`
	EndPosition    int64                `bigquery:"end_position"`
	ReferenceBases string               `bigquery:"reference_bases"`
	AlternateBases []altAllele          `bigquery:"alternate_bases"`
	Quality        bigquery.NullFloat64 `bigquery:"quality"`
	Filter         []string             `bigquery:"filter"`
	Call           []callRecord         `bigquery:"call"`

	DP             bigquery.NullInt64   `bigquery:"DP"`
	MQ             bigquery.NullFloat64 `bigquery:"MQ"`
	MQRankSum      bigquery.NullFloat64 `bigquery:"MQRankSum"`
	MQDP           bigquery.NullInt64   `bigquery:"MQ_DP"`
	QualApprox     bigquery.NullInt64   `bigquery:"QUALapprox"`
	RawMQ          bigquery.NullFloat64 `bigquery:"RAW_MQ"`
	ReadPosRankSum bigquery.NullFloat64 `bigquery:"ReadPosRankSum"`
	VarDP          bigquery.NullInt64   `bigquery:"VarDP"`

	BaseQRankSum    bigquery.NullFloat64 `bigquery:"BaseQRankSum"`
	ClippingRankSum bigquery.NullFloat64 `bigquery:"ClippingRankSum"`
	ExcessHet       bigquery.NullFloat64 `bigquery:"ExcessHet"`
	State           int64                `bigquery:"state"`
}

type altAllele struct {
	Alt string `bigquery:"alt"`
}

type callRecord struct {
	Name     string              `bigquery:"name"`
	Genotype []int64             `bigquery:"genotype"`
	AD       []int64             `bigquery:"AD"`
	PL       []int64             `bigquery:"PL"`
	SB       []int64             `bigquery:"SB"`
	DP       bigquery.NullInt64  `bigquery:"DP"`
	GQ       bigquery.NullInt64  `bigquery:"GQ"`
	Phaseset bigquery.NullString `bigquery:"phaseset"`
	MinDP    bigquery.NullInt64  `bigquery:"MIN_DP"`
	PhasedGT bigquery.NullString `bigquery:"PGT"`
	PhaseID  bigquery.NullString `bigquery:"PID"`
}

func (v *variantRow) toRow() *merge.Row {
	row := &merge.Row{
		ReferenceName: v.ReferenceName,
		// Stored start positions are exclusive, so add 1 to reach the 1-based
		// inclusive position.
		Position:       v.StartPosition + 1,
		EndPosition:    v.EndPosition,
		ReferenceBases: v.ReferenceBases,
		Quality:        nullFloat(v.Quality),
		Filters:        v.Filter,

		DP:             nullInt(v.DP),
		MQ:             nullFloat(v.MQ),
		MQRankSum:      nullFloat(v.MQRankSum),
		MQDP:           nullInt(v.MQDP),
		QualApprox:     nullInt(v.QualApprox),
		ReadPosRankSum: nullFloat(v.ReadPosRankSum),
		VarDP:          nullInt(v.VarDP),
	}

	// RAW_MQ is stored as a floating-point mass; the merge rules carry it as
	// an integer.
	if v.RawMQ.Valid {
		row.RawMQ = null.IntFrom(int64(math.Round(v.RawMQ.Float64)))
	}

	for _, alt := range v.AlternateBases {
		row.AlternateBases = append(row.AlternateBases, alt.Alt)
	}

	// The call record is a single-element repeated field.
	if len(v.Call) > 0 {
		call := v.Call[0]
		row.Call = merge.Call{
			Name:     call.Name,
			Genotype: ints(call.Genotype),
			AD:       ints(call.AD),
			PL:       ints(call.PL),
			SB:       ints(call.SB),
			DP:       nullInt(call.DP),
			GQ:       nullInt(call.GQ),
			Phaseset: nullString(call.Phaseset),
			MinDP:    nullInt(call.MinDP),
			PhasedGT: nullString(call.PhasedGT),
			PhaseID:  nullString(call.PhaseID),
		}
	}

	return row
}

func nullInt(v bigquery.NullInt64) null.Int {
	return null.NewInt(v.Int64, v.Valid)
}

func nullFloat(v bigquery.NullFloat64) null.Float {
	return null.NewFloat(v.Float64, v.Valid)
}

func nullString(v bigquery.NullString) null.String {
	return null.NewString(v.StringVal, v.Valid)
}

func ints(in []int64) []int {
	if in == nil {
		return nil
	}

	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}

	return out
}

// Rows adapts the BigQuery result iterators for a set of merged intervals to
// the merge.RowSource contract. Intervals are consumed in order; their
// per-interval queries each arrive sorted, and SortAndMergeIntervals
// guarantees the intervals themselves are disjoint and ordered.
type Rows struct {
	bq        *WrappedBigQuery
	tables    Tables
	intervals []Interval
	itr       *bigquery.RowIterator
	rowCount  int64
}

// IntervalRows prepares a row stream covering the given intervals. Intervals
// on contigs with no table mapping are logged and skipped, mirroring the
// remote dataset's sharding by contig.
func IntervalRows(bq *WrappedBigQuery, tables Tables, intervals []Interval) *Rows {
	return &Rows{
		bq:        bq,
		tables:    tables,
		intervals: intervals,
	}
}

func (r *Rows) Next() (*merge.Row, error) {
	for {
		if r.itr == nil {
			if len(r.intervals) == 0 {
				return nil, io.EOF
			}

			interval := r.intervals[0]
			r.intervals = r.intervals[1:]

			if !r.tables.HasContig(interval.Contig) {
				log.Printf("No tables are mapped for contig %s; skipping interval %s\n", interval.Contig, interval)
				continue
			}

			query, err := BuildVariantQuery(r.bq, r.tables, interval)
			if err != nil {
				return nil, pfx.Err(err)
			}

			itr, err := query.Read(r.bq.Context)
			if err != nil {
				return nil, pfx.Err(err)
			}
			r.itr = itr
		}

		var rec variantRow

		err := r.itr.Next(&rec)
		if err == iterator.Done {
			r.itr = nil
			continue
		}
		if err != nil {
			return nil, pfx.Err(err)
		}

		r.rowCount++
		if r.rowCount%10000 == 0 {
			log.Printf("Fetched %d rows. Last %s:%d\n", r.rowCount, rec.ReferenceName, rec.StartPosition+1)
		}

		return rec.toRow(), nil
	}
}
