// Package dataset reads and writes the delimited files the dashboard is built on:
// the modality reference, the mobility survey and the demographic references.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrReferenceMissing is returned when a required reference file does not exist
var ErrReferenceMissing = errors.New("reference table not found")

// Table is a header-indexed delimited file held in memory
type Table struct {
	Header  []string
	Records [][]string
	index   map[string]int
}

// NewTable builds a table from a header and its records
func NewTable(header []string, records [][]string) *Table {
	t := &Table{Header: header, Records: records, index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Col returns the position of a column
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasCol reports whether any of the names is a column of the table
func (t *Table) HasCol(names ...string) bool {
	for _, n := range names {
		if _, ok := t.index[n]; ok {
			return true
		}
	}
	return false
}

// Value returns the trimmed value of column name in rec, or "" when absent
func (t *Table) Value(rec []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// First returns the value of the first present column among names
func (t *Table) First(rec []string, names ...string) string {
	for _, n := range names {
		if _, ok := t.index[n]; ok {
			return t.Value(rec, n)
		}
	}
	return ""
}

// Len returns the number of data records
func (t *Table) Len() int {
	return len(t.Records)
}

// ReadTable opens and parses a delimited file.
// A missing file yields an error wrapping os.ErrNotExist.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// ParseTable parses delimited text. The delimiter is detected from the header
// line (';', ',' or tab) and a UTF-8 BOM on the first cell is dropped.
// Short records are padded with empty fields.
func ParseTable(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if strings.TrimSpace(first) == "" {
		return nil, errors.New("empty file")
	}

	reader := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	reader.Comma = sniffDelimiter(first)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(records)+2, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}

	return NewTable(header, records), nil
}

func sniffDelimiter(line string) rune {
	best, bestCount := ';', 0
	for _, d := range []rune{';', ',', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// WriteTable writes header and records ';'-separated with '\n' line endings
func WriteTable(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

// WriteTableFile writes the table to path through a temporary file and rename,
// so readers never observe a half-written table.
func WriteTableFile(path string, header []string, records [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	bw := bufio.NewWriter(f)
	if err := WriteTable(bw, header, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// missingMarkers are the spellings treated as an absent value
var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"NULL": true,
	"null": true,
	"<NA>": true,
	"None": true,
}

// IsMissing reports whether a raw field holds no value
func IsMissing(v string) bool {
	return missingMarkers[strings.TrimSpace(v)]
}
