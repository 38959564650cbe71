// Package export renders ranked match results as tables, CSV, and XLSX
// workbooks for the CLI and for download endpoints.
package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/startupbase/fundmatch/internal/engine"
)

// factorColumns derives the column order for factor contributions from the
// first result. Every result in a run carries the same factors in the same
// order, so the first one is authoritative.
func factorColumns(results []engine.MatchResult) []string {
	if len(results) == 0 {
		return nil
	}
	cols := make([]string, 0, len(results[0].Explanation))
	for _, fs := range results[0].Explanation {
		cols = append(cols, fs.Factor)
	}
	return cols
}

func topRecordNames(r engine.MatchResult) string {
	names := make([]string, 0, len(r.TopRecords))
	for _, rec := range r.TopRecords {
		names = append(names, rec.Name)
	}
	return strings.Join(names, "; ")
}

func contribution(r engine.MatchResult, factor string) float64 {
	for _, fs := range r.Explanation {
		if fs.Factor == factor {
			return fs.Value
		}
	}
	return 0
}

// WriteTable renders results as an aligned text table.
func WriteTable(w io.Writer, results []engine.MatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	cols := factorColumns(results)
	header := append([]string{"RANK", "ENTITY", "SCORE"}, cols...)
	header = append(header, "TOP RECORDS")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, r := range results {
		row := []string{
			fmt.Sprintf("%d", i+1),
			r.TargetName,
			fmt.Sprintf("%d", r.Score),
		}
		for _, c := range cols {
			row = append(row, fmt.Sprintf("%.2f", contribution(r, c)))
		}
		row = append(row, topRecordNames(r))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}
