// Package export renders ballot results as xlsx workbooks.
package export

import (
	"fmt"
	"strings"

	"github.com/Dosada05/debate-tab/results"
	"github.com/xuri/excelize/v2"
)

const (
	MajoritySheet = "Majority"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSheetName = 31
)

var header = []interface{}{"Side", "Team", "Position", "Speaker", "Score"}

// Workbook writes the majority result on the first sheet followed by one
// sheet per scoring adjudicator. Missing scores are left blank.
func Workbook(res results.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MajoritySheet); err != nil {
		return nil, err
	}
	rows := majorityRows(res)
	if err := writeRows(f, MajoritySheet, rows); err != nil {
		return nil, err
	}

	for i, sheet := range res.Sheets {
		name := SheetName(i, sheet.Adjudicator)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
		if err := writeRows(f, name, adjudicatorRows(res, sheet)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SheetName is the worksheet title for the i-th adjudicator.
func SheetName(i int, adj results.Adjudicator) string {
	name := adj.Name
	if name == "" {
		name = fmt.Sprintf("Adjudicator %d", adj.ID)
	}
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, fmt.Sprintf("%d %s", i+1, name))
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

func majorityRows(res results.Result) [][]interface{} {
	rows := [][]interface{}{header}
	for i, sr := range []results.SideResult{res.Aff, res.Neg} {
		side := results.Sides[i].String()
		for _, p := range sr.Positions {
			rows = append(rows, []interface{}{side, sr.Team.Name, p.Name, p.Speaker.Name, cellValue(p.Score)})
		}
		rows = append(rows, []interface{}{side, sr.Team.Name, "Total", "", cellValue(sr.Total)})
		rows = append(rows, []interface{}{side, sr.Team.Name, "Margin", "", cellValue(sr.Margin)})
	}

	winner := ""
	switch {
	case res.Winner == nil:
	case *res.Winner == results.Aff:
		winner = res.Aff.Team.Name
	default:
		winner = res.Neg.Team.Name
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Winner", winner},
		[]interface{}{"Votes", fmt.Sprintf("%d-%d", res.AffVotes, res.NegVotes)},
	)
	return rows
}

func adjudicatorRows(res results.Result, sheet results.SheetView) [][]interface{} {
	rows := [][]interface{}{header}
	add := func(label string, team results.Team, positions []results.PositionView, total results.Score) {
		for _, p := range positions {
			rows = append(rows, []interface{}{label, team.Name, p.Name, p.Speaker.Name, cellValue(p.Score)})
		}
		rows = append(rows, []interface{}{label, team.Name, "Total", "", cellValue(total)})
	}
	add(results.Aff.String(), res.Aff.Team, sheet.Affs, sheet.AffScore)
	add(results.Neg.String(), res.Neg.Team, sheet.Negs, sheet.NegScore)

	winner := ""
	switch {
	case sheet.AffWin:
		winner = res.Aff.Team.Name
	case sheet.NegWin:
		winner = res.Neg.Team.Name
	}
	rows = append(rows, []interface{}{}, []interface{}{"Winner", winner})
	return rows
}

func cellValue(s results.Score) interface{} {
	if v, ok := s.Float64(); ok {
		return v
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
