package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/startupbase/fundmatch/internal/engine"
)

// WriteXLSX writes results to an XLSX workbook at path. The Matches sheet
// holds the ranking with per-factor contributions; the Top Records sheet
// lists each entity's most popular offers.
func WriteXLSX(path string, results []engine.MatchResult) error {
	f := xlsx.NewFile()

	if err := addMatchesSheet(f, results); err != nil {
		return err
	}
	if err := addTopRecordsSheet(f, results); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "export: save workbook %s", path)
}

func addMatchesSheet(f *xlsx.File, results []engine.MatchResult) error {
	sheet, err := f.AddSheet("Matches")
	if err != nil {
		return eris.Wrap(err, "export: add matches sheet")
	}

	cols := factorColumns(results)
	header := sheet.AddRow()
	for _, h := range append([]string{"Rank", "Entity", "Score"}, cols...) {
		header.AddCell().SetString(h)
	}
	header.AddCell().SetString("Top Records")

	for i, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(r.TargetName)
		row.AddCell().SetInt(r.Score)
		for _, c := range cols {
			row.AddCell().SetFloat(contribution(r, c))
		}
		row.AddCell().SetString(topRecordNames(r))
	}
	return nil
}

func addTopRecordsSheet(f *xlsx.File, results []engine.MatchResult) error {
	sheet, err := f.AddSheet("Top Records")
	if err != nil {
		return eris.Wrap(err, "export: add top records sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Entity", "Record", "Sector", "Funding Type", "Verified", "Popularity"} {
		header.AddCell().SetString(h)
	}

	for _, r := range results {
		for _, rec := range r.TopRecords {
			row := sheet.AddRow()
			row.AddCell().SetString(r.TargetName)
			row.AddCell().SetString(rec.Name)
			row.AddCell().SetString(rec.Sector)
			row.AddCell().SetString(string(rec.FundingType))
			row.AddCell().SetBool(rec.Verified)
			row.AddCell().SetInt(rec.PopularityScore)
		}
	}
	return nil
}
