package dataset

import (
	"errors"
	"fmt"
	"os"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// Columns of the variable/modality reference
const (
	colVariable = "COD_VAR"
	colModality = "COD_MOD"
	colLabel    = "LIB_MOD"
)

// ReadModalities loads the variable/modality reference table.
// A missing file yields ErrReferenceMissing. Duplicate and incomplete rows are dropped.
func ReadModalities(path string) ([]models.ModalityRow, error) {
	t, err := ReadTable(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReferenceMissing, path)
		}
		return nil, err
	}
	return ModalitiesFromTable(t)
}

// ModalitiesFromTable extracts modality rows from a parsed table
func ModalitiesFromTable(t *Table) ([]models.ModalityRow, error) {
	for _, c := range []string{colVariable, colModality, colLabel} {
		if !t.HasCol(c) {
			return nil, fmt.Errorf("modality reference: missing required column: %s", c)
		}
	}

	seen := make(map[models.ModalityRow]bool, t.Len())
	rows := make([]models.ModalityRow, 0, t.Len())
	for _, rec := range t.Records {
		row := models.ModalityRow{
			Variable: t.Value(rec, colVariable),
			Code:     t.Value(rec, colModality),
			Label:    t.Value(rec, colLabel),
		}
		if IsMissing(row.Variable) || IsMissing(row.Code) || IsMissing(row.Label) {
			continue
		}
		if seen[row] {
			continue
		}
		seen[row] = true
		rows = append(rows, row)
	}
	return rows, nil
}
