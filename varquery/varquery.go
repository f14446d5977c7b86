// Package varquery is the remote query boundary: it pulls per-sample variant
// rows and the dataset's sample list out of BigQuery and adapts them to the
// row stream consumed by the merge package.
package varquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

type WrappedBigQuery struct {
	Context  context.Context
	Client   *bigquery.Client
	Project  string
	Database string
}

// Connect opens a BigQuery client against the given project using default
// credentials.
func Connect(ctx context.Context, project string) (*WrappedBigQuery, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("connecting to BigQuery: %w", err)
	}

	return &WrappedBigQuery{
		Context: ctx,
		Client:  client,
		Project: project,
	}, nil
}

// Tables maps the dataset layout: one sample-list table, plus per-contig
// position and variant tables. Table names are dataset-qualified
// (e.g. "gvcf_test.vet_chr20").
type Tables struct {
	SampleTable    string
	PositionTables map[string]string
	VariantTables  map[string]string
}

// HasContig reports whether both per-contig tables exist for the contig.
func (t Tables) HasContig(contig string) bool {
	_, posOK := t.PositionTables[contig]
	_, varOK := t.VariantTables[contig]

	return posOK && varOK
}

func (t Tables) fqTable(bq *WrappedBigQuery, table string) string {
	return bq.Project + "." + table
}

// SampleNames runs the one-shot enumeration query returning every distinct
// sample identifier known to the dataset. The result populates the sample
// registry before any aggregation begins.
func SampleNames(bq *WrappedBigQuery, tables Tables) ([]string, error) {
	query := bq.Client.Query(fmt.Sprintf("SELECT DISTINCT sample FROM `%s`", tables.fqTable(bq, tables.SampleTable)))

	itr, err := query.Read(bq.Context)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var names []string
	for {
		var values struct {
			Sample string `bigquery:"sample"`
		}

		err := itr.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}

		names = append(names, values.Sample)
	}

	return names, nil
}
