package merge

import (
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"
)

// INFO attribute keys emitted on merged sites.
const (
	DepthKey                      = "DP"
	RMSMappingQualityKey          = "MQ"
	MapQualRankSumKey             = "MQRankSum"
	MappingQualityDepthKey        = "MQ_DP"
	RawQualApproxKey              = "QUALapprox"
	RawMappingQualityWithDepthKey = "RAW_MQandDP"
	ReadPosRankSumKey             = "ReadPosRankSum"
	VariantDepthKey               = "VarDP"
)

// NonRefAllele is the catch-all "unknown allele" placeholder carried by GVCF
// rows. It is filtered out of the site allele list before genotype indexing.
const NonRefAllele = "<NON_REF>"

const (
	// missingConfThreshold is the confidence threshold above which variants
	// are excluded from the position tables. It doubles as the GQ and PL
	// filler for synthesized reference genotypes.
	missingConfThreshold = 60

	// highConfRefStrandBias is the strand-bias filler for synthesized
	// reference genotypes.
	highConfRefStrandBias = 50

	// missingRankSumDefault replaces MQ, MQRankSum, and ReadPosRankSum
	// medians that are undefined (no values, or NaN).
	missingRankSumDefault = 20

	rawMQandDPSeparator = ","
)

// siteStats holds the aggregated INFO-level statistics for one locus batch.
type siteStats struct {
	Depth           int64
	VariantDepth    int64
	MapQualityDepth int64
	QualApprox      int64
	RawMQ           int64

	MQ             float64
	MQRankSum      float64
	ReadPosRankSum float64
}

// aggregateStats combines the per-sample details of one batch using the
// field-specific rules: DP, VarDP, MQ_DP, QUALapprox, and RAW_MQ are summed;
// MQ, MQRankSum, and ReadPosRankSum take the median. Absent values are
// excluded from both, not treated as zero. Site-level QUAL is deliberately
// never aggregated.
func aggregateStats(batch *LocusBatch) siteStats {
	var s siteStats

	mq := make([]float64, 0, len(batch.Details))
	mqRankSum := make([]float64, 0, len(batch.Details))
	readPosRankSum := make([]float64, 0, len(batch.Details))

	for _, detail := range batch.Details {
		if detail.InfoDP.Valid {
			s.Depth += detail.InfoDP.Int64
		}
		if detail.InfoQualApprox.Valid {
			s.QualApprox += detail.InfoQualApprox.Int64
		}
		if detail.InfoRawMQ.Valid {
			s.RawMQ += detail.InfoRawMQ.Int64
		}
		if detail.InfoMQDP.Valid {
			s.MapQualityDepth += detail.InfoMQDP.Int64
		}
		if detail.InfoVarDP.Valid {
			s.VariantDepth += detail.InfoVarDP.Int64
		}

		if detail.InfoMQ.Valid {
			mq = append(mq, detail.InfoMQ.Float64)
		}
		if detail.InfoMQRankSum.Valid {
			mqRankSum = append(mqRankSum, detail.InfoMQRankSum.Float64)
		}
		if detail.InfoReadPosRankSum.Valid {
			readPosRankSum = append(readPosRankSum, detail.InfoReadPosRankSum.Float64)
		}
	}

	s.MQ = medianOrDefault(mq)
	s.MQRankSum = medianOrDefault(mqRankSum)
	s.ReadPosRankSum = medianOrDefault(readPosRankSum)

	return s
}

// medianOrDefault is the 50th-percentile statistic over the collected values,
// substituting the fixed default when the result is undefined.
func medianOrDefault(values []float64) float64 {
	m, err := stats.Median(values)
	if err != nil || math.IsNaN(m) {
		return missingRankSumDefault
	}

	return m
}

// attributes renders the aggregated statistics as the merged site's INFO
// attribute map. Integer fields are base-10; medians keep two decimals.
func (s siteStats) attributes() map[string]string {
	return map[string]string{
		DepthKey:                      strconv.FormatInt(s.Depth, 10),
		RawQualApproxKey:              strconv.FormatInt(s.QualApprox, 10),
		MappingQualityDepthKey:        strconv.FormatInt(s.MapQualityDepth, 10),
		VariantDepthKey:               strconv.FormatInt(s.VariantDepth, 10),
		RawMappingQualityWithDepthKey: fmt.Sprintf("%d%s%d", s.RawMQ, rawMQandDPSeparator, s.Depth),

		RMSMappingQualityKey: strconv.FormatFloat(s.MQ, 'f', 2, 64),
		MapQualRankSumKey:    strconv.FormatFloat(s.MQRankSum, 'f', 2, 64),
		ReadPosRankSumKey:    strconv.FormatFloat(s.ReadPosRankSum, 'f', 2, 64),
	}
}

// Aggregate computes the merged INFO attributes and the genotype records for
// the samples present in the batch.
func Aggregate(batch *LocusBatch) (map[string]string, []Genotype) {
	return aggregateStats(batch).attributes(), presentGenotypes(batch)
}
