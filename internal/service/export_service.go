package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// pdfCommuneRows caps the commune table of the PDF report
	pdfCommuneRows = 50
)

// Export is a generated file ready to be downloaded
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type columnKind int

const (
	textColumn columnKind = iota
	numberColumn
	percentColumn
)

type column struct {
	header string
	short  string // PDF header
	width  float64
	kind   columnKind
	value  func(e models.EntityAggregate) float64
	text   func(e models.EntityAggregate) string
}

// format renders the cell; percentages get a % sign in the PDF only
func (c column) format(e models.EntityAggregate, pdf bool) string {
	switch c.kind {
	case textColumn:
		return c.text(e)
	case percentColumn:
		if pdf {
			return strconv.FormatFloat(c.value(e), 'f', 1, 64) + "%"
		}
	}
	return strconv.FormatFloat(c.value(e), 'f', -1, 64)
}

func textCol(header, short string, width float64, text func(e models.EntityAggregate) string) column {
	return column{header: header, short: short, width: width, kind: textColumn, text: text}
}

func numberCol(header, short string, width float64, kind columnKind, value func(e models.EntityAggregate) float64) column {
	return column{header: header, short: short, width: width, kind: kind, value: value}
}

var metricColumns = []column{
	numberCol("Population", "Population", 22, numberColumn, func(e models.EntityAggregate) float64 { return e.Population }),
	numberCol("Mobilité Verte (%)", "Mobilité Verte", 24, numberColumn, func(e models.EntityAggregate) float64 { return e.GreenMobilityIndex }),
	numberCol("Temps Trajet (min)", "Temps Trajet", 22, numberColumn, func(e models.EntityAggregate) float64 { return e.AvgCommuteTime }),
	numberCol("% Vélo", "% Vélo", 17, percentColumn, func(e models.EntityAggregate) float64 { return e.VeloPercentage }),
	numberCol("% Voiture", "% Voiture", 18, percentColumn, func(e models.EntityAggregate) float64 { return e.VoiturePercentage }),
	numberCol("% Transport en Commun", "% TC", 15, percentColumn, func(e models.EntityAggregate) float64 { return e.TransportCommunPercentage }),
	numberCol("% Marche", "% Marche", 17, percentColumn, func(e models.EntityAggregate) float64 { return e.MarchePercentage }),
	numberCol("% Deux-roues", "% 2-roues", 18, percentColumn, func(e models.EntityAggregate) float64 { return e.DeuxRouesPercentage }),
	numberCol("% Sans Transport", "% Sans Transport", 26, percentColumn, func(e models.EntityAggregate) float64 { return e.PasTransportPercentage }),
}

func communeColumns() []column {
	return append([]column{
		textCol("Code", "Code", 14, func(e models.EntityAggregate) string { return e.Code }),
		textCol("Commune", "Commune", 58, func(e models.EntityAggregate) string { return e.Name }),
		textCol("Département", "Dép.", 12, func(e models.EntityAggregate) string { return e.Department }),
		textCol("Région", "Rég.", 12, func(e models.EntityAggregate) string { return e.Region }),
	}, metricColumns...)
}

func regionColumns() []column {
	return append([]column{
		textCol("Code", "Code", 12, func(e models.EntityAggregate) string { return e.Code }),
		textCol("Région", "Région", 62, func(e models.EntityAggregate) string { return e.Name }),
		numberCol("Nombre Communes", "Nb Communes", 22, numberColumn, func(e models.EntityAggregate) float64 { return float64(e.CommuneCount) }),
	}, metricColumns...)
}

// ExportService renders the aggregates as CSV, PDF and XLSX downloads
type ExportService struct {
	mobility *MobilityService
	now      func() time.Time
}

// NewExportService creates a new export service
func NewExportService(mobility *MobilityService) *ExportService {
	return &ExportService{mobility: mobility, now: time.Now}
}

func (s *ExportService) stamp() string {
	return s.now().Format("20060102")
}

func (s *ExportService) communes(ctx context.Context, f models.EntityFilter) ([]models.EntityAggregate, error) {
	f.Limit = 0
	out, err := s.mobility.Communes(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

func (s *ExportService) regions(ctx context.Context, f models.EntityFilter) ([]models.EntityAggregate, error) {
	f.Limit = 0
	out, err := s.mobility.Regions(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

// CommunesCSV exports the communes matching f
func (s *ExportService) CommunesCSV(ctx context.Context, f models.EntityFilter) (*Export, error) {
	communes, err := s.communes(ctx, f)
	if err != nil {
		return nil, err
	}
	data, err := writeCSV(communeColumns(), communes)
	if err != nil {
		return nil, err
	}
	return &Export{Filename: "communes_mobilite_" + s.stamp() + ".csv", ContentType: contentTypeCSV, Data: data}, nil
}

// RegionsCSV exports the regions
func (s *ExportService) RegionsCSV(ctx context.Context, f models.EntityFilter) (*Export, error) {
	regions, err := s.regions(ctx, f)
	if err != nil {
		return nil, err
	}
	data, err := writeCSV(regionColumns(), regions)
	if err != nil {
		return nil, err
	}
	return &Export{Filename: "regions_mobilite_" + s.stamp() + ".csv", ContentType: contentTypeCSV, Data: data}, nil
}

// writeCSV writes a ';' separated table with a UTF-8 BOM for spreadsheet software
func writeCSV(cols []column, entities []models.EntityAggregate) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, len(cols))
	for _, e := range entities {
		for i, c := range cols {
			record[i] = c.format(e, false)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func filterSummary(f models.EntityFilter) string {
	var parts []string
	if f.Region != "" {
		parts = append(parts, "Région: "+f.Region)
	}
	if f.Department != "" {
		parts = append(parts, "Département: "+f.Department)
	}
	if f.Age != "" {
		parts = append(parts, "Tranche d'âge: "+f.Age)
	}
	return strings.Join(parts, ", ")
}

type pdfReport struct {
	title    string
	noun     string
	filter   string
	cols     []column
	entities []models.EntityAggregate
	total    int
	global   models.GlobalStats
	date     time.Time
}

// CommunesPDF renders the report of the communes matching f, showing the first 50
func (s *ExportService) CommunesPDF(ctx context.Context, f models.EntityFilter) (*Export, error) {
	communes, err := s.communes(ctx, f)
	if err != nil {
		return nil, err
	}
	global, _ := s.mobility.GlobalStats(ctx)

	shown := communes
	if len(shown) > pdfCommuneRows {
		shown = shown[:pdfCommuneRows]
	}
	data, err := renderPDF(pdfReport{
		title:    "Rapport - Indicateurs de Mobilité par Commune",
		noun:     "communes",
		filter:   filterSummary(f),
		cols:     communeColumns(),
		entities: shown,
		total:    len(communes),
		global:   global,
		date:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &Export{Filename: "rapport_communes_mobilite_" + s.stamp() + ".pdf", ContentType: contentTypePDF, Data: data}, nil
}

// RegionsPDF renders the report of every region
func (s *ExportService) RegionsPDF(ctx context.Context, f models.EntityFilter) (*Export, error) {
	regions, err := s.regions(ctx, f)
	if err != nil {
		return nil, err
	}
	global, _ := s.mobility.GlobalStats(ctx)

	data, err := renderPDF(pdfReport{
		title:    "Rapport - Indicateurs de Mobilité par Région",
		noun:     "régions",
		filter:   filterSummary(models.EntityFilter{Age: f.Age}),
		cols:     regionColumns(),
		entities: regions,
		total:    len(regions),
		global:   global,
		date:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &Export{Filename: "rapport_regions_mobilite_" + s.stamp() + ".pdf", ContentType: contentTypePDF, Data: data}, nil
}

func renderPDF(r pdfReport) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(r.title, true)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(r.title), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 10)
	lines := []string{
		"Date du rapport: " + r.date.Format("02/01/2006 15:04"),
		fmt.Sprintf("Nombre de %s: %d", r.noun, r.total),
	}
	if r.filter != "" {
		lines = append(lines, "Filtres appliqués: "+r.filter)
	}
	lines = append(lines,
		fmt.Sprintf("Taux moyen d'utilisation du vélo: %.2f%%", r.global.ShareBike),
		fmt.Sprintf("Taux moyen d'utilisation des transports en commun: %.2f%%", r.global.SharePublicTransit),
	)
	for _, l := range lines {
		pdf.CellFormat(0, 6, tr(l), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(245, 245, 245)
		for _, c := range r.cols {
			pdf.CellFormat(c.width, 8, tr(c.short), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetFillColor(245, 245, 220)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, e := range r.entities {
		if pdf.GetY()+6 > pageHeight-bottom-12 {
			pdf.AddPage()
			header()
		}
		for _, c := range r.cols {
			pdf.CellFormat(c.width, 6, tr(truncate(c.format(e, true), 30)), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	if r.total > len(r.entities) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		note := fmt.Sprintf("Note: Seules les %d premières %s sont affichées. Total: %d %s.", len(r.entities), r.noun, r.total, r.noun)
		pdf.CellFormat(0, 6, tr(note), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// XLSX exports communes, regions and the global statistics as one workbook
func (s *ExportService) XLSX(ctx context.Context, f models.EntityFilter) (*Export, error) {
	communes, err := s.communes(ctx, f)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions(ctx, models.EntityFilter{Age: f.Age, Sort: f.Sort})
	if err != nil {
		return nil, err
	}
	global, _ := s.mobility.GlobalStats(ctx)

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", "Communes"); err != nil {
		return nil, err
	}
	bold, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2E7D32"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	if err := writeSheet(book, "Communes", communeColumns(), communes, bold); err != nil {
		return nil, err
	}
	if _, err := book.NewSheet("Régions"); err != nil {
		return nil, err
	}
	if err := writeSheet(book, "Régions", regionColumns(), regions, bold); err != nil {
		return nil, err
	}

	if _, err := book.NewSheet("Statistiques"); err != nil {
		return nil, err
	}
	statsRows := [][]interface{}{
		{"Indicateur", "Valeur"},
		{"% Sans Transport", global.ShareNoTransport},
		{"Temps moyen (indice)", global.MeanCommuteTime},
		{"% Vélo", global.ShareBike},
		{"% Transport en Commun", global.SharePublicTransit},
		{"Poids total", global.TotalWeight},
		{"Lignes", global.RowCount},
	}
	for i, row := range statsRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow("Statistiques", cell, &row); err != nil {
			return nil, err
		}
	}
	if err := book.SetCellStyle("Statistiques", "A1", "B1", bold); err != nil {
		return nil, err
	}
	_ = book.SetColWidth("Statistiques", "A", "A", 28)

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return &Export{Filename: "mobilite_" + s.stamp() + ".xlsx", ContentType: contentTypeXLSX, Data: buf.Bytes()}, nil
}

func writeSheet(book *excelize.File, sheet string, cols []column, entities []models.EntityAggregate, headerStyle int) error {
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := book.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, e := range entities {
		row := make([]interface{}, len(cols))
		for i, c := range cols {
			// codes stay text so leading zeros survive
			if c.kind == textColumn {
				row[i] = c.text(e)
			} else {
				row[i] = c.value(e)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	_ = book.SetColWidth(sheet, "A", lastCol, 14)
	return book.SetColWidth(sheet, "B", "B", 32)
}
