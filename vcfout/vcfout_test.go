package vcfout

import (
	"strings"
	"testing"

	"gopkg.in/guregu/null.v3"

	"github.com/cohortbq/cohortvcf/merge"
)

func testSite() *merge.MergedSite {
	return &merge.MergedSite{
		Locus: merge.Locus{Contig: "chr20", Position: 100, Alleles: []string{"A", "T"}},
		Attributes: map[string]string{
			merge.DepthKey:                      "10",
			merge.RMSMappingQualityKey:          "35.00",
			merge.RawMappingQualityWithDepthKey: "139,10",
		},
		Genotypes: []merge.Genotype{
			{
				SampleName: "S1",
				GT:         []int{0, 1},
				AD:         []int{6, 4},
				DP:         null.IntFrom(10),
				GQ:         null.IntFrom(30),
				PL:         []int{30, 0, 90},
				SB:         []int{3, 3, 2, 2},
			},
			{
				SampleName:  "S2",
				GT:          []int{0, 0},
				AD:          []int{10, 10},
				DP:          null.IntFrom(10),
				GQ:          null.IntFrom(60),
				PL:          []int{0, 60, 60},
				SB:          []int{50, 50, 0, 0},
				Synthesized: true,
			},
		},
	}
}

func TestWriteHeader(t *testing.T) {
	var buf strings.Builder
	wr := NewWriter(&buf, []string{"S1", "S2"})

	if err := wr.WriteHeader(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if lines[0] != "##fileformat=VCFv4.2" {
		t.Errorf("unexpected first header line %q", lines[0])
	}

	last := lines[len(lines)-1]
	expected := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2"
	if last != expected {
		t.Errorf("unexpected column header:\ngot      %q\nexpected %q", last, expected)
	}

	for _, id := range []string{"##INFO=<ID=RAW_MQandDP", "##FORMAT=<ID=SB", "##FILTER=<ID=LowQual"} {
		if !strings.Contains(buf.String(), id) {
			t.Errorf("header is missing %s", id)
		}
	}
}

func TestWriteSiteRecordLine(t *testing.T) {
	var buf strings.Builder
	wr := NewWriter(&buf, []string{"S1", "S2"})

	if err := wr.WriteSite(testSite()); err != nil {
		t.Fatal(err)
	}

	expected := "chr20\t100\t.\tA\tT\t.\t.\t" +
		"DP=10;MQ=35.00;RAW_MQandDP=139,10\t" +
		"GT:AD:DP:GQ:PL:SB\t" +
		"0/1:6,4:10:30:30,0,90:3,3,2,2\t" +
		"0/0:10,10:10:60:0,60,60:50,50,0,0\n"
	if buf.String() != expected {
		t.Errorf("unexpected record:\ngot      %q\nexpected %q", buf.String(), expected)
	}
}

func TestWriteSiteReordersGenotypesToColumnOrder(t *testing.T) {
	var buf strings.Builder
	wr := NewWriter(&buf, []string{"S2", "S1"})

	if err := wr.WriteSite(testSite()); err != nil {
		t.Fatal(err)
	}

	fields := strings.Split(strings.TrimRight(buf.String(), "\n"), "\t")
	if !strings.HasPrefix(fields[9], "0/0") || !strings.HasPrefix(fields[10], "0/1") {
		t.Errorf("genotype columns do not follow header order: %v", fields[9:])
	}
}

func TestWriteSiteRejectsSampleMismatches(t *testing.T) {
	site := testSite()

	wr := NewWriter(&strings.Builder{}, []string{"S1"})
	if err := wr.WriteSite(site); err == nil {
		t.Error("expected an error for an unregistered sample")
	}

	wr = NewWriter(&strings.Builder{}, []string{"S1", "S2", "S3"})
	if err := wr.WriteSite(site); err == nil {
		t.Error("expected an error for a sample with no genotype")
	}

	site.Genotypes = append(site.Genotypes, site.Genotypes[0])
	wr = NewWriter(&strings.Builder{}, []string{"S1", "S2"})
	if err := wr.WriteSite(site); err == nil {
		t.Error("expected an error for duplicate genotypes")
	}
}

func TestMissingValuesRenderAsDots(t *testing.T) {
	site := &merge.MergedSite{
		Locus:      merge.Locus{Contig: "chr20", Position: 5, Alleles: []string{"G"}},
		Attributes: map[string]string{},
		Genotypes: []merge.Genotype{
			{SampleName: "S1", GT: []int{0, -1}},
		},
	}

	var buf strings.Builder
	wr := NewWriter(&buf, []string{"S1"})

	if err := wr.WriteSite(site); err != nil {
		t.Fatal(err)
	}

	expected := "chr20\t5\t.\tG\t.\t.\t.\t.\tGT:AD:DP:GQ:PL:SB\t0/.:.:.:.:.:.\n"
	if buf.String() != expected {
		t.Errorf("unexpected record:\ngot      %q\nexpected %q", buf.String(), expected)
	}
}
