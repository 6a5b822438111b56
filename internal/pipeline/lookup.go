// Package pipeline turns the raw mobility survey into the figures shown on the
// dashboard: code decoding, normalization, commute-time estimation, corpus-wide
// shares and per-commune/per-region breakdowns.
package pipeline

import (
	"github.com/jengzang/mobility-backend-go/internal/dataset"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

// DecodedVariables are the survey variables decoded through the modality reference
var DecodedVariables = []string{
	models.VarResidence,
	models.VarWorkplace,
	models.VarMode,
	models.VarAge,
	models.VarUrbanUnit,
}

var codeWidths = map[string]int{
	models.VarResidence: 5,
	models.VarWorkplace: 5,
	models.VarMode:      1,
	models.VarAge:       3,
	models.VarUrbanUnit: 1,
}

// CodeWidth returns the zero-padded width of a variable's codes, 0 when unpadded
func CodeWidth(variable string) int {
	return codeWidths[variable]
}

// Lookup decodes survey codes into labels
type Lookup struct {
	tables map[string]map[string]string
}

// NewLookup builds one code->label mapping per variable. Codes are padded to the
// variable's width; when a code appears twice the first label is kept.
func NewLookup(rows []models.ModalityRow) *Lookup {
	l := &Lookup{tables: make(map[string]map[string]string)}
	for _, r := range rows {
		m, ok := l.tables[r.Variable]
		if !ok {
			m = make(map[string]string)
			l.tables[r.Variable] = m
		}
		code := dataset.PadCode(r.Code, CodeWidth(r.Variable))
		if _, dup := m[code]; !dup {
			m[code] = r.Label
		}
	}
	return l
}

// Mapping returns the code->label mapping of a variable (nil when unknown)
func (l *Lookup) Mapping(variable string) map[string]string {
	return l.tables[variable]
}

// Decode pads code to the variable's width and returns its label.
// ok is false when the code is absent from the reference.
func (l *Lookup) Decode(variable, code string) (string, bool) {
	m, found := l.tables[variable]
	if !found {
		return "", false
	}
	label, ok := m[dataset.PadCode(code, CodeWidth(variable))]
	return label, ok
}

// Size returns the number of codes known for a variable
func (l *Lookup) Size(variable string) int {
	return len(l.tables[variable])
}
