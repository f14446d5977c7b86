package gvcfsource

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/vcfgo"
	"gopkg.in/guregu/null.v3"

	"github.com/cohortbq/cohortvcf/merge"
)

// rowFromVariant converts one GVCF line from a single-sample file into the
// normalized row shape. INFO and FORMAT fields that the line does not carry
// stay unset rather than zero. An unparseable sample block is malformed
// input, which aborts the stream.
func rowFromVariant(v *vcfgo.Variant, sampleName string) (*merge.Row, error) {
	row := &merge.Row{
		ReferenceName:  v.Chrom(),
		Position:       int64(v.Pos),
		ReferenceBases: v.Ref(),
		AlternateBases: v.Alt(),
	}

	// A missing QUAL parses as zero; GVCF reference blocks and raw variant
	// rows carry no meaningful zero QUAL, so zero is treated as absent.
	if v.Quality != 0 {
		row.Quality = null.FloatFrom(float64(v.Quality))
	}

	if v.Filter != "" && v.Filter != "." {
		row.Filters = strings.Split(v.Filter, ";")
	}

	row.EndPosition = row.Position + int64(len(v.Ref())) - 1
	if end := infoInt(v, "END"); end.Valid {
		row.EndPosition = end.Int64
	}

	row.DP = infoInt(v, "DP")
	row.MQ = infoFloat(v, "MQ")
	row.MQRankSum = infoFloat(v, "MQRankSum")
	row.MQDP = infoInt(v, "MQ_DP")
	row.QualApprox = infoInt(v, "QUALapprox")
	row.ReadPosRankSum = infoFloat(v, "ReadPosRankSum")
	row.VarDP = infoInt(v, "VarDP")

	// RAW_MQ is a floating-point mapping-quality mass; the merge rules carry
	// it as an integer.
	if rawMQ := infoFloat(v, "RAW_MQ"); rawMQ.Valid {
		row.RawMQ = null.IntFrom(int64(math.Round(rawMQ.Float64)))
	}

	if err := v.Header.ParseSamples(v); err != nil {
		return nil, fmt.Errorf("%s at %s:%d: parsing sample fields: %w", sampleName, v.Chrom(), v.Pos, err)
	}

	if len(v.Samples) > 0 && v.Samples[0] != nil {
		sample := v.Samples[0]

		row.Call = merge.Call{
			Name:     sampleName,
			Genotype: copyGT(sample.GT),
			AD:       fieldInts(sample, "AD"),
			PL:       fieldInts(sample, "PL"),
			SB:       fieldInts(sample, "SB"),
			DP:       fieldInt(sample, "DP"),
			GQ:       fieldInt(sample, "GQ"),
			MinDP:    fieldInt(sample, "MIN_DP"),
			Phaseset: fieldString(sample, "PS"),
			PhasedGT: fieldString(sample, "PGT"),
			PhaseID:  fieldString(sample, "PID"),
		}
	}

	return row, nil
}

func copyGT(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)

	return out
}

// infoInt pulls an integer INFO value, coercing across the concrete types the
// VCF parser may hand back.
func infoInt(v *vcfgo.Variant, key string) null.Int {
	value, err := v.Info().Get(key)
	if err != nil || value == nil {
		return null.Int{}
	}

	if f, ok := coerceFloat(value); ok {
		return null.IntFrom(int64(f))
	}

	return null.Int{}
}

func infoFloat(v *vcfgo.Variant, key string) null.Float {
	value, err := v.Info().Get(key)
	if err != nil || value == nil {
		return null.Float{}
	}

	if f, ok := coerceFloat(value); ok {
		return null.FloatFrom(f)
	}

	return null.Float{}
}

func coerceFloat(value interface{}) (float64, bool) {
	switch x := value.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case []interface{}:
		if len(x) == 0 {
			return 0, false
		}
		return coerceFloat(x[0])
	}

	return 0, false
}

// fieldInts parses a comma-delimited integer FORMAT field such as AD or PL.
// A missing field yields nil so required-field checks fire downstream.
func fieldInts(sample *vcfgo.SampleGenotype, key string) []int {
	raw, ok := sample.Fields[key]
	if !ok || raw == "" || raw == "." {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}

	return out
}

func fieldInt(sample *vcfgo.SampleGenotype, key string) null.Int {
	raw, ok := sample.Fields[key]
	if !ok || raw == "" || raw == "." {
		return null.Int{}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return null.Int{}
	}

	return null.IntFrom(n)
}

func fieldString(sample *vcfgo.SampleGenotype, key string) null.String {
	raw, ok := sample.Fields[key]
	if !ok || raw == "" || raw == "." {
		return null.String{}
	}

	return null.StringFrom(raw)
}
