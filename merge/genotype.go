package merge

import (
	"gopkg.in/guregu/null.v3"
)

// Genotype is one sample's genotype entry on a merged site: called allele
// indices plus supporting evidence, encoded downstream as GT:AD:DP:GQ:PL:SB.
type Genotype struct {
	SampleName string

	// GT holds allele indices into the site allele list (0 = reference);
	// Alleles holds the same calls resolved to allele strings.
	GT      []int
	Alleles []string

	AD []int
	DP null.Int
	GQ null.Int
	PL []int
	SB []int

	// Synthesized marks placeholder reference-confident genotypes fabricated
	// for samples absent from the raw rows. Their values are fillers, not
	// observed data.
	Synthesized bool
}

// filterNonRef removes the catch-all unknown-allele placeholder from a site
// allele list.
func filterNonRef(alleles []string) []string {
	out := make([]string, 0, len(alleles))
	for _, a := range alleles {
		if a == NonRefAllele {
			continue
		}
		out = append(out, a)
	}

	return out
}

// presentGenotypes builds genotype records for the samples present in the
// batch, in batch order. Per-sample arrays are carried verbatim; no
// recombination of numeric fields happens here. Allele strings are resolved
// against the site allele list with the unknown-allele placeholder filtered
// out before indexing.
func presentGenotypes(batch *LocusBatch) []Genotype {
	siteAlleles := filterNonRef(batch.Locus.Alleles)

	genotypes := make([]Genotype, 0, len(batch.Details))
	for _, detail := range batch.Details {
		resolved := make([]string, 0, len(detail.GTGenotype))
		for _, idx := range detail.GTGenotype {
			if idx >= 0 && idx < len(siteAlleles) {
				resolved = append(resolved, siteAlleles[idx])
			} else {
				resolved = append(resolved, ".")
			}
		}

		genotypes = append(genotypes, Genotype{
			SampleName: detail.SampleName,
			GT:         detail.GTGenotype,
			Alleles:    resolved,
			AD:         detail.GTAD,
			DP:         detail.GTDP,
			GQ:         detail.GTGQ,
			PL:         detail.GTPL,
			SB:         detail.GTSB,
		})
	}

	return genotypes
}

// synthesizeRefGenotype fabricates the placeholder genotype for one sample
// missing from a locus batch. The shape encodes "no direct variant evidence
// here, but coverage analysis established the region as high-confidence
// reference": the call is numAlleles copies of the reference allele, AD
// repeats the merged site depth, GQ and the non-leading PL entries carry the
// confidence threshold, and SB leads with the fixed strand-bias filler.
func synthesizeRefGenotype(sampleName string, depth int64, refAllele string, numAlleles int) Genotype {
	gt := make([]int, numAlleles)
	alleles := make([]string, numAlleles)
	ad := make([]int, numAlleles)
	for i := 0; i < numAlleles; i++ {
		alleles[i] = refAllele
		ad[i] = int(depth)
	}

	pl := make([]int, 0, 3*(numAlleles-1))
	pl = append(pl, 0)
	for i := 0; i < 3*(numAlleles-1)-1; i++ {
		pl = append(pl, missingConfThreshold)
	}

	sb := make([]int, 0, 2*numAlleles)
	sb = append(sb, highConfRefStrandBias, highConfRefStrandBias)
	for i := 0; i < 2*(numAlleles-1); i++ {
		sb = append(sb, 0)
	}

	return Genotype{
		SampleName:  sampleName,
		GT:          gt,
		Alleles:     alleles,
		AD:          ad,
		DP:          null.IntFrom(depth),
		GQ:          null.IntFrom(missingConfThreshold),
		PL:          pl,
		SB:          sb,
		Synthesized: true,
	}
}
