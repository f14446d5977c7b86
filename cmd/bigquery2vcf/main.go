// bigquery2vcf merges per-sample variant rows held in BigQuery (or in local
// single-sample GVCFs) into one multi-sample VCF, with one consolidated
// record per locus and a genotype entry for every known sample.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/cohortbq/cohortvcf/gvcfsource"
	"github.com/cohortbq/cohortvcf/merge"
	"github.com/cohortbq/cohortvcf/varquery"
	"github.com/cohortbq/cohortvcf/vcfout"
)

// Special value that is to be set using ldflags
// E.g.: go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"
var builddate string

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

type flagSlice []string

func (f *flagSlice) String() string {
	return strings.Join(*f, ",")
}

func (f *flagSlice) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func main() {
	defer STDOUT.Flush()

	fmt.Fprintf(os.Stderr, "This bigquery2vcf binary was built at: %s\n", builddate)

	var project, sampleTable, output string
	var intervalFlags, positionTables, variantTables, gvcfPaths flagSlice
	var workers int
	var trimNonRef, checkOrder bool

	flag.StringVar(&project, "project", "", "Google Cloud project containing the variant dataset.")
	flag.StringVar(&sampleTable, "sample_table", "", "Dataset-qualified table holding the names of all samples, e.g. gvcf_test.sample_list.")
	flag.Var(&positionTables, "position_table", "contig=dataset.table pair mapping a contig to its position table. Pass once per contig.")
	flag.Var(&variantTables, "variant_table", "contig=dataset.table pair mapping a contig to its variant table. Pass once per contig.")
	flag.Var(&intervalFlags, "interval", "Genomic interval to extract, e.g. chr20:1000000-2000000 or a bare contig name. Pass once per interval.")
	flag.Var(&gvcfPaths, "gvcf", "Path to a single-sample GVCF (local or gs://). Pass once per sample. Setting this switches to local mode and skips BigQuery entirely.")
	flag.StringVar(&output, "out", "", "Output VCF path. Writes to stdout when empty.")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Number of concurrent locus-merging workers. Output order is unaffected.")
	flag.BoolVar(&trimNonRef, "trim_nonref_placeholder", false, "Exclude the <NON_REF> allele from the allele count used to shape placeholder genotypes for absent samples.")
	flag.BoolVar(&checkOrder, "check_order", false, "Verify that input rows arrive in sorted order, failing rather than emitting split loci.")
	flag.Parse()

	intervals := make([]varquery.Interval, 0, len(intervalFlags))
	for _, s := range intervalFlags {
		interval, err := varquery.ParseInterval(s)
		if err != nil {
			log.Fatalln(err)
		}
		intervals = append(intervals, interval)
	}
	intervals = varquery.SortAndMergeIntervals(intervals)

	var src merge.RowSource
	var sampleNames []string

	if len(gvcfPaths) > 0 {

		// Local mode: the row stream is a k-way merge over single-sample
		// GVCFs, and the sample registry comes from their headers.

		var client *storage.Client
		if anyGoogleStorage(gvcfPaths) {
			var err error
			client, err = storage.NewClient(context.Background())
			if err != nil {
				log.Fatalln(err)
			}
		}

		source, err := gvcfsource.Open(gvcfPaths, client, intervals)
		if err != nil {
			log.Fatalln(err)
		}
		defer source.Close()

		src = source
		sampleNames = source.SampleNames()
	} else {

		// Remote mode: enumerate the samples, then stream the per-interval
		// variant queries.

		if project == "" || sampleTable == "" || len(positionTables) == 0 || len(variantTables) == 0 || len(intervals) == 0 {
			flag.PrintDefaults()
			os.Exit(1)
		}

		bq, err := varquery.Connect(context.Background(), project)
		if err != nil {
			log.Fatalln(err)
		}
		defer bq.Client.Close()

		tables := varquery.Tables{
			SampleTable:    sampleTable,
			PositionTables: parseTablePairs(positionTables),
			VariantTables:  parseTablePairs(variantTables),
		}

		sampleNames, err = varquery.SampleNames(bq, tables)
		if err != nil {
			log.Fatalln(err)
		}

		src = varquery.IntervalRows(bq, tables, intervals)
	}

	// The registry must be complete before the first batch is merged; it is
	// read-only from here on.
	registry := merge.NewSampleRegistry(sampleNames)
	if registry.Len() == 0 {
		log.Fatalln("No samples were enumerated; refusing to emit a zero-sample VCF")
	}
	log.Println(registry.Len(), "samples in the registry")

	merger := merge.NewMerger(registry)
	merger.TrimPlaceholderNonRef = trimNonRef

	grouper := merge.NewGrouper(src)
	grouper.CheckOrder = checkOrder

	out := STDOUT
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()

		out = bufio.NewWriterSize(f, BufferSize)
	}
	defer out.Flush()

	writer := vcfout.NewWriter(out, registry.Names())
	if err := writer.WriteHeader(); err != nil {
		log.Fatalln(err)
	}

	if err := mergeAll(grouper, merger, writer, workers); err != nil {
		log.Fatalln(err)
	}

	log.Println("Completed")
}

func anyGoogleStorage(paths []string) bool {
	for _, path := range paths {
		if strings.HasPrefix(path, "gs://") {
			return true
		}
	}

	return false
}

func parseTablePairs(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		eq := strings.Index(pair, "=")
		if eq == -1 {
			log.Fatalf("Expected contig=dataset.table, but got %q\n", pair)
		}
		out[pair[:eq]] = pair[eq+1:]
	}

	return out
}
