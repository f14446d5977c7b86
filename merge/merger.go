package merge

// MergedSite is one consolidated multi-sample variant call site: the locus,
// the aggregated INFO attributes, and exactly one genotype entry per registry
// sample. Present-sample genotypes come first in batch order, followed by
// synthesized genotypes in registry order. A MergedSite is immutable once
// built.
type MergedSite struct {
	Locus      Locus
	Attributes map[string]string
	Genotypes  []Genotype
}

// Merger converts locus batches into merged sites. The registry must be fully
// populated before the first Merge call; after that a single Merger may be
// shared by concurrent workers, since Merge only reads its configuration.
type Merger struct {
	// TrimPlaceholderNonRef excludes the catch-all unknown allele from the
	// allele count used to shape synthesized genotypes. The default (false)
	// reproduces the established placeholder shape, which counts that allele;
	// downstream consumers may depend on either count, so this is a policy
	// switch rather than a fix.
	TrimPlaceholderNonRef bool

	registry *SampleRegistry
}

func NewMerger(registry *SampleRegistry) *Merger {
	return &Merger{registry: registry}
}

// Merge aggregates one locus batch into a merged site, synthesizing
// placeholder reference genotypes for every registry sample absent from the
// batch. Batches are mutually independent, so Merge may be called from
// multiple goroutines at once.
func (m *Merger) Merge(batch *LocusBatch) *MergedSite {
	stats := aggregateStats(batch)
	genotypes := presentGenotypes(batch)

	siteAlleles := filterNonRef(batch.Locus.Alleles)

	refAllele := ""
	if len(siteAlleles) > 0 {
		refAllele = siteAlleles[0]
	}

	numAlleles := len(batch.Locus.Alleles)
	if m.TrimPlaceholderNonRef {
		numAlleles = len(siteAlleles)
	}

	present := make(map[string]bool, len(genotypes))
	for _, g := range genotypes {
		present[g.SampleName] = true
	}

	for _, sampleName := range m.registry.Names() {
		if present[sampleName] {
			continue
		}
		genotypes = append(genotypes, synthesizeRefGenotype(sampleName, stats.Depth, refAllele, numAlleles))
	}

	// The emitted site drops the catch-all allele: genotype indices already
	// resolve against the filtered list, and it never belongs in output ALT
	// columns.
	return &MergedSite{
		Locus:      Locus{Contig: batch.Locus.Contig, Position: batch.Locus.Position, Alleles: siteAlleles},
		Attributes: stats.attributes(),
		Genotypes:  genotypes,
	}
}
