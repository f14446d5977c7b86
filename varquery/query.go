package varquery

import (
	"strings"
	"text/template"

	"cloud.google.com/go/bigquery"
)

// The variant query joins the per-position sample-state table against the
// variant table, unnesting the call and alternate-allele records so that each
// result row carries exactly one sample's data at one position. The position
// table's `position` column corresponds to end_position, so interval bounds
// apply to it directly. ORDER BY establishes the sorted-stream precondition
// the locus grouper depends on.
var variantQueryTemplate = template.Must(template.New("variants").Parse(`SELECT
  reference_name, start_position, end_position, reference_bases, alternate_bases, names, quality,
  filter, call, BaseQRankSum, ClippingRankSum, variants.DP AS DP, ExcessHet, MQ,
  MQRankSum, MQ_DP, QUALapprox, RAW_MQ, ReadPosRankSum, VarDP, variant_samples.state
FROM
  ` + "`{{.positionTable}}`" + ` AS variant_samples
INNER JOIN
  ` + "`{{.variantTable}}`" + ` AS variants ON variants.end_position = variant_samples.position,
UNNEST(variants.call) AS samples,
UNNEST(variants.alternate_bases) AS alt_bases
WHERE
  reference_name = @contig AND
  samples.name = variant_samples.sample AND
  alt_bases.alt != '<NON_REF>' AND
  (position >= @start AND position <= @end) AND
  variant_samples.state = 1
ORDER BY reference_name, start_position, end_position`))

func renderVariantQuery(bq *WrappedBigQuery, tables Tables, interval Interval) (string, []bigquery.QueryParameter, error) {
	queryParts := map[string]interface{}{
		"positionTable": tables.fqTable(bq, tables.PositionTables[interval.Contig]),
		"variantTable":  tables.fqTable(bq, tables.VariantTables[interval.Contig]),
	}

	populatedQuery := &strings.Builder{}
	if err := variantQueryTemplate.Execute(populatedQuery, queryParts); err != nil {
		return "", nil, err
	}

	params := []bigquery.QueryParameter{
		{Name: "contig", Value: interval.Contig},
		{Name: "start", Value: interval.Start},
		{Name: "end", Value: interval.End},
	}

	return populatedQuery.String(), params, nil
}

// BuildVariantQuery assembles the parameterized per-interval variant query.
func BuildVariantQuery(bq *WrappedBigQuery, tables Tables, interval Interval) (*bigquery.Query, error) {
	queryString, params, err := renderVariantQuery(bq, tables, interval)
	if err != nil {
		return nil, err
	}

	query := bq.Client.Query(queryString)
	query.Parameters = params

	return query, nil
}
