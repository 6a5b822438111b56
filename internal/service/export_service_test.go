package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

func newTestExports(t *testing.T) *ExportService {
	t.Helper()
	s := NewExportService(newTestMobility(t))
	s.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestCommunesCSV(t *testing.T) {
	s := newTestExports(t)
	exp, err := s.CommunesCSV(context.Background(), models.EntityFilter{Region: "84"})
	if err != nil {
		t.Fatalf("CommunesCSV: %v", err)
	}
	if exp.Filename != "communes_mobilite_20240315.csv" {
		t.Errorf("filename = %s", exp.Filename)
	}
	if !bytes.HasPrefix(exp.Data, []byte("\ufeff")) {
		t.Fatal("missing BOM")
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(exp.Data, []byte("\ufeff"))))
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	if strings.Join(records[0][:4], "|") != "Code|Commune|Département|Région" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "01001" || records[1][5] != "66.7" {
		t.Errorf("first row = %v", records[1])
	}
}

func TestRegionsCSV(t *testing.T) {
	s := newTestExports(t)
	exp, err := s.RegionsCSV(context.Background(), models.EntityFilter{})
	if err != nil {
		t.Fatalf("RegionsCSV: %v", err)
	}
	if exp.Filename != "regions_mobilite_20240315.csv" {
		t.Errorf("filename = %s", exp.Filename)
	}
	if !strings.Contains(string(exp.Data), "Nombre Communes") || !strings.Contains(string(exp.Data), "Île-de-France") {
		t.Errorf("unexpected content: %s", exp.Data)
	}
}

func TestPDFReports(t *testing.T) {
	s := newTestExports(t)
	ctx := context.Background()

	communes, err := s.CommunesPDF(ctx, models.EntityFilter{Age: "19-35"})
	if err != nil {
		t.Fatalf("CommunesPDF: %v", err)
	}
	regions, err := s.RegionsPDF(ctx, models.EntityFilter{})
	if err != nil {
		t.Fatalf("RegionsPDF: %v", err)
	}
	for _, exp := range []*Export{communes, regions} {
		if !bytes.HasPrefix(exp.Data, []byte("%PDF")) {
			t.Errorf("%s is not a PDF", exp.Filename)
		}
		if exp.ContentType != contentTypePDF {
			t.Errorf("%s content type = %s", exp.Filename, exp.ContentType)
		}
	}
	if communes.Filename != "rapport_communes_mobilite_20240315.pdf" {
		t.Errorf("filename = %s", communes.Filename)
	}
}

func TestXLSX(t *testing.T) {
	s := newTestExports(t)
	exp, err := s.XLSX(context.Background(), models.EntityFilter{})
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	if exp.Filename != "mobilite_20240315.xlsx" {
		t.Errorf("filename = %s", exp.Filename)
	}

	book, err := excelize.OpenReader(bytes.NewReader(exp.Data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()

	sheets := strings.Join(book.GetSheetList(), ",")
	if sheets != "Communes,Régions,Statistiques" {
		t.Fatalf("sheets = %s", sheets)
	}
	rows, err := book.GetRows("Communes")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 || rows[1][0] != "01001" {
		t.Fatalf("unexpected commune rows: %v", rows)
	}
	bike, err := book.GetCellValue("Statistiques", "B4")
	if err != nil || bike != "25" {
		t.Fatalf("bike share cell = %q, %v", bike, err)
	}
}

func TestExportWithoutData(t *testing.T) {
	s := newTestExports(t)
	if _, err := s.CommunesCSV(context.Background(), models.EntityFilter{Region: "99"}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}
