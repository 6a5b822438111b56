package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jengzang/mobility-backend-go/internal/dataset"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/stats"
)

// NormalizeReport counts what normalization removed
type NormalizeReport struct {
	InputRows         int `json:"input_rows"`
	DroppedIncomplete int `json:"dropped_incomplete"`
	DroppedUnmapped   int `json:"dropped_unmapped"`
	DroppedDuplicates int `json:"dropped_duplicates"`
	OutputRows        int `json:"output_rows"`
}

// NormalizedTable is the decoded survey, both as the records to persist and
// as projected rows ready for aggregation
type NormalizedTable struct {
	Header  []string
	Records [][]string
	Rows    []models.SurveyRow
}

type columnKind int

const (
	columnPassthrough columnKind = iota
	columnCode
	columnLabel
	columnWeight
)

type outputColumn struct {
	kind     columnKind
	source   int    // passthrough source index
	variable string // decoded variable
}

// Normalize cleans and decodes a survey table.
//
// Every raw column is kept. Each decoded variable X becomes two columns, X_CODE
// holding the zero-padded code and X holding its label; IPONDI is rounded to two
// decimals. Exact duplicates of an earlier raw row are dropped first, compared
// field by field before any rounding or padding; then rows with a missing field,
// an unreadable weight or a code absent from the lookup.
// Tables produced by Normalize are accepted as input.
func Normalize(t *dataset.Table, lookup *Lookup) (*NormalizedTable, NormalizeReport, error) {
	report := NormalizeReport{InputRows: t.Len()}

	sources := make(map[string]int, len(DecodedVariables))
	for _, v := range DecodedVariables {
		if i, ok := t.Col(dataset.CodeColumn(v)); ok {
			sources[v] = i
		} else if i, ok := t.Col(v); ok {
			sources[v] = i
		} else {
			return nil, report, fmt.Errorf("survey table: missing required column: %s", v)
		}
	}
	weightIdx, ok := t.Col(models.ColWeight)
	if !ok {
		return nil, report, fmt.Errorf("survey table: missing required column: %s", models.ColWeight)
	}

	var header []string
	var columns []outputColumn
	for i, name := range t.Header {
		switch {
		case isCodeColumn(name):
			continue
		case CodeWidth(name) > 0:
			header = append(header, dataset.CodeColumn(name), name)
			columns = append(columns,
				outputColumn{kind: columnCode, variable: name},
				outputColumn{kind: columnLabel, variable: name})
		case name == models.ColWeight:
			header = append(header, name)
			columns = append(columns, outputColumn{kind: columnWeight})
		default:
			header = append(header, name)
			columns = append(columns, outputColumn{kind: columnPassthrough, source: i})
		}
	}

	out := &NormalizedTable{Header: header}
	seen := make(map[string]bool, t.Len())
	codes := make(map[string]string, len(DecodedVariables))
	labels := make(map[string]string, len(DecodedVariables))

	for _, rec := range t.Records {
		key := rawKey(rec)
		if seen[key] {
			report.DroppedDuplicates++
			continue
		}
		seen[key] = true

		if hasMissing(rec) {
			report.DroppedIncomplete++
			continue
		}
		raw, err := strconv.ParseFloat(strings.TrimSpace(rec[weightIdx]), 64)
		if err != nil || raw < 0 {
			report.DroppedIncomplete++
			continue
		}
		weight := stats.Round(raw, 2)

		mapped := true
		for _, v := range DecodedVariables {
			code := dataset.PadCode(rec[sources[v]], CodeWidth(v))
			label, ok := lookup.Decode(v, code)
			if !ok {
				mapped = false
				break
			}
			codes[v], labels[v] = code, label
		}
		if !mapped {
			report.DroppedUnmapped++
			continue
		}

		record := make([]string, len(columns))
		for i, c := range columns {
			switch c.kind {
			case columnCode:
				record[i] = codes[c.variable]
			case columnLabel:
				record[i] = labels[c.variable]
			case columnWeight:
				record[i] = FormatWeight(weight)
			default:
				record[i] = rec[c.source]
			}
		}

		out.Records = append(out.Records, record)
		out.Rows = append(out.Rows, models.SurveyRow{
			ResidenceCode: codes[models.VarResidence],
			Residence:     labels[models.VarResidence],
			WorkplaceCode: codes[models.VarWorkplace],
			Workplace:     labels[models.VarWorkplace],
			ModeCode:      codes[models.VarMode],
			Mode:          labels[models.VarMode],
			AgeCode:       codes[models.VarAge],
			Age:           labels[models.VarAge],
			UrbanUnitCode: codes[models.VarUrbanUnit],
			UrbanUnit:     labels[models.VarUrbanUnit],
			Weight:        weight,
		})
	}

	report.OutputRows = len(out.Records)
	return out, report, nil
}

// FormatWeight renders a weight with the shortest representation that reads back exactly
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func isCodeColumn(name string) bool {
	if !strings.HasSuffix(name, dataset.CodeSuffix) {
		return false
	}
	return CodeWidth(strings.TrimSuffix(name, dataset.CodeSuffix)) > 0
}

// rawKey identifies a raw record; fields are compared after trimming only
func rawKey(rec []string) string {
	var b strings.Builder
	for i, v := range rec {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(strings.TrimSpace(v))
	}
	return b.String()
}

func hasMissing(rec []string) bool {
	for _, v := range rec {
		if dataset.IsMissing(v) {
			return true
		}
	}
	return false
}
