// Package vcfout encodes merged sites as VCF records. The corpus of tools
// this grew out of writes delimited output directly, and the VCF library in
// use here is a reader, so records are formatted explicitly.
package vcfout

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/cohortbq/cohortvcf/merge"
)

// infoKeyOrder fixes the INFO serialization order so output is deterministic.
var infoKeyOrder = []string{
	merge.DepthKey,
	merge.RMSMappingQualityKey,
	merge.MapQualRankSumKey,
	merge.MappingQualityDepthKey,
	merge.RawQualApproxKey,
	merge.RawMappingQualityWithDepthKey,
	merge.ReadPosRankSumKey,
	merge.VariantDepthKey,
}

var headerLines = []string{
	"##fileformat=VCFv4.2",
	`##FILTER=<ID=LowQual,Description="Low quality">`,
	`##INFO=<ID=DP,Number=1,Type=Integer,Description="Approximate read depth; some reads may have been filtered">`,
	`##INFO=<ID=MQ,Number=1,Type=Float,Description="RMS Mapping Quality">`,
	`##INFO=<ID=MQRankSum,Number=1,Type=Float,Description="Z-score From Wilcoxon rank sum test of Alt vs. Ref read mapping qualities">`,
	`##INFO=<ID=MQ_DP,Number=1,Type=Integer,Description="Depth over variant samples for better MQ calculation">`,
	`##INFO=<ID=QUALapprox,Number=1,Type=Integer,Description="Sum of PL[0] values; used to approximate the QUAL score">`,
	`##INFO=<ID=RAW_MQandDP,Number=2,Type=Integer,Description="Raw data (sum of squared MQ and total depth) for improved RMS Mapping Quality calculation">`,
	`##INFO=<ID=ReadPosRankSum,Number=1,Type=Float,Description="Z-score from Wilcoxon rank sum test of Alt vs. Ref read position bias">`,
	`##INFO=<ID=VarDP,Number=1,Type=Integer,Description="(informative) depth over variant genotypes">`,
	`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
	`##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Allelic depths for the ref and alt alleles in the order listed">`,
	`##FORMAT=<ID=DP,Number=1,Type=Integer,Description="Approximate read depth (reads with MQ=255 or with bad mates are filtered)">`,
	`##FORMAT=<ID=GQ,Number=1,Type=Integer,Description="Genotype Quality">`,
	`##FORMAT=<ID=PL,Number=G,Type=Integer,Description="Normalized, Phred-scaled likelihoods for genotypes as defined in the VCF specification">`,
	`##FORMAT=<ID=SB,Number=4,Type=Integer,Description="Per-sample component statistics which comprise the Fisher's Exact Test to detect strand bias">`,
}

const formatKeys = "GT:AD:DP:GQ:PL:SB"

// Writer emits a merged-site VCF: one genotype column per registry sample, in
// registry order, regardless of the in-memory genotype order on each site.
type Writer struct {
	w       io.Writer
	samples []string
	columns map[string]int
}

func NewWriter(w io.Writer, samples []string) *Writer {
	columns := make(map[string]int, len(samples))
	for i, sample := range samples {
		columns[sample] = i
	}

	return &Writer{w: w, samples: samples, columns: columns}
}

func (wr *Writer) WriteHeader() error {
	for _, line := range headerLines {
		if _, err := fmt.Fprintln(wr.w, line); err != nil {
			return err
		}
	}

	fixed := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT"
	if _, err := fmt.Fprintf(wr.w, "%s\t%s\n", fixed, strings.Join(wr.samples, "\t")); err != nil {
		return err
	}

	return nil
}

// WriteSite encodes one merged site. Site-level QUAL is always missing by
// design; FILTER is left unset.
func (wr *Writer) WriteSite(site *merge.MergedSite) error {
	alt := "."
	if len(site.Locus.Alleles) > 1 {
		alt = strings.Join(site.Locus.Alleles[1:], ",")
	}

	ref := "."
	if len(site.Locus.Alleles) > 0 {
		ref = site.Locus.Alleles[0]
	}

	blocks := make([]string, len(wr.samples))
	for _, genotype := range site.Genotypes {
		col, ok := wr.columns[genotype.SampleName]
		if !ok {
			return fmt.Errorf("site %s has a genotype for unregistered sample %s", site.Locus, genotype.SampleName)
		}
		if blocks[col] != "" {
			return fmt.Errorf("site %s has duplicate genotypes for sample %s", site.Locus, genotype.SampleName)
		}
		blocks[col] = genotypeBlock(genotype)
	}

	for i, block := range blocks {
		if block == "" {
			return fmt.Errorf("site %s has no genotype for sample %s", site.Locus, wr.samples[i])
		}
	}

	_, err := fmt.Fprintf(wr.w, "%s\t%d\t.\t%s\t%s\t.\t.\t%s\t%s\t%s\n",
		site.Locus.Contig, site.Locus.Position, ref, alt,
		infoString(site.Attributes), formatKeys, strings.Join(blocks, "\t"))

	return err
}

func infoString(attributes map[string]string) string {
	parts := make([]string, 0, len(infoKeyOrder))
	for _, key := range infoKeyOrder {
		if value, ok := attributes[key]; ok {
			parts = append(parts, key+"="+value)
		}
	}

	if len(parts) == 0 {
		return "."
	}

	return strings.Join(parts, ";")
}

func genotypeBlock(g merge.Genotype) string {
	return strings.Join([]string{
		joinGT(g.GT),
		joinInts(g.AD),
		nullIntFormatter(g.DP),
		nullIntFormatter(g.GQ),
		joinInts(g.PL),
		joinInts(g.SB),
	}, ":")
}

func joinGT(gt []int) string {
	if len(gt) == 0 {
		return "./."
	}

	parts := make([]string, len(gt))
	for i, allele := range gt {
		if allele < 0 {
			parts[i] = "."
			continue
		}
		parts[i] = strconv.Itoa(allele)
	}

	return strings.Join(parts, "/")
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "."
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}

func nullIntFormatter(n null.Int) string {
	if !n.Valid {
		return "."
	}

	return strconv.FormatInt(n.Int64, 10)
}
