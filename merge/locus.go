package merge

import (
	"fmt"
	"strings"
)

// Locus identifies one genomic site: contig, 1-based position, and the full
// ordered allele sequence. Alleles[0] is the reference allele. Two rows
// belong to the same locus only when all three parts are equal.
type Locus struct {
	Contig   string
	Position int64
	Alleles  []string
}

func (l Locus) Equal(other Locus) bool {
	if l.Contig != other.Contig || l.Position != other.Position {
		return false
	}

	if len(l.Alleles) != len(other.Alleles) {
		return false
	}

	for i, allele := range l.Alleles {
		if allele != other.Alleles[i] {
			return false
		}
	}

	return true
}

func (l Locus) String() string {
	return fmt.Sprintf("%s:%d[%s]", l.Contig, l.Position, strings.Join(l.Alleles, ","))
}

// rowLocus derives the grouping key from a row. The reference allele comes
// first, followed by the alternate alleles in row order.
func rowLocus(row *Row) Locus {
	alleles := make([]string, 0, 1+len(row.AlternateBases))
	alleles = append(alleles, row.ReferenceBases)
	alleles = append(alleles, row.AlternateBases...)

	return Locus{
		Contig:   row.ReferenceName,
		Position: row.Position,
		Alleles:  alleles,
	}
}

// LocusBatch accumulates the per-sample details observed at one locus, in row
// arrival order.
type LocusBatch struct {
	Locus   Locus
	Details []SampleDetail
}
