package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/startupbase/fundmatch/internal/engine"
)

// WriteCSV renders results as CSV with one factor contribution column per
// scoring factor.
func WriteCSV(w io.Writer, results []engine.MatchResult) error {
	cw := csv.NewWriter(w)

	cols := factorColumns(results)
	header := append([]string{"rank", "entity", "score"}, cols...)
	header = append(header, "top_records")
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

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
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "export: write csv row for %s", r.TargetName)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
