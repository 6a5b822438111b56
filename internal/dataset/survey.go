package dataset

import (
	"fmt"
	"regexp"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// CodeSuffix marks the column keeping the raw code next to a decoded label
const CodeSuffix = "_CODE"

// CodeColumn names the raw code column of a decoded variable
func CodeColumn(variable string) string {
	return variable + CodeSuffix
}

// labelCodeRe finds the code embedded in labels such as "Bourg-en-Bresse (01053)".
// Only used for tables written before codes had their own column.
var labelCodeRe = regexp.MustCompile(`\(([0-9][0-9AB][0-9]{3})\)\s*$`)

// ReadSurvey loads a normalized survey table
func ReadSurvey(path string) ([]models.SurveyRow, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return SurveyFromTable(t)
}

// SurveyFromTable projects a normalized table onto survey rows.
// Rows with an unreadable weight are skipped.
func SurveyFromTable(t *Table) ([]models.SurveyRow, error) {
	for _, c := range []string{models.VarResidence, models.VarMode, models.ColWeight} {
		if !t.HasCol(c) {
			return nil, fmt.Errorf("survey table: missing required column: %s", c)
		}
	}

	rows := make([]models.SurveyRow, 0, t.Len())
	for _, rec := range t.Records {
		weight, ok := ParseNumber(t.Value(rec, models.ColWeight))
		if !ok || weight < 0 {
			continue
		}
		rows = append(rows, models.SurveyRow{
			ResidenceCode: codeOf(t, rec, models.VarResidence, true),
			Residence:     t.Value(rec, models.VarResidence),
			WorkplaceCode: codeOf(t, rec, models.VarWorkplace, true),
			Workplace:     t.Value(rec, models.VarWorkplace),
			ModeCode:      codeOf(t, rec, models.VarMode, false),
			Mode:          t.Value(rec, models.VarMode),
			AgeCode:       codeOf(t, rec, models.VarAge, false),
			Age:           t.Value(rec, models.VarAge),
			UrbanUnitCode: codeOf(t, rec, models.VarUrbanUnit, false),
			UrbanUnit:     t.Value(rec, models.VarUrbanUnit),
			Weight:        weight,
		})
	}
	return rows, nil
}

func codeOf(t *Table, rec []string, variable string, commune bool) string {
	if col := CodeColumn(variable); t.HasCol(col) {
		return t.Value(rec, col)
	}
	if !commune {
		return ""
	}
	if m := labelCodeRe.FindStringSubmatch(t.Value(rec, variable)); m != nil {
		return m[1]
	}
	return ""
}
