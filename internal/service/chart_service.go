package service

import (
	"bytes"
	"context"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/pipeline"
	"github.com/jengzang/mobility-backend-go/internal/stats"
)

const (
	histogramBins = 30
	maxChartBars  = 20
)

var steelBlue = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// HistogramKind names a commune distribution chart
type HistogramKind string

const (
	HistogramTravelTime      HistogramKind = "travel-time"
	HistogramBikeUsage       HistogramKind = "bike-usage"
	HistogramPublicTransport HistogramKind = "public-transport"
)

// BarKind names a region bar chart
type BarKind string

const (
	BarGreenMobilityByRegion BarKind = "green-mobility-by-region"
	BarTravelTimeByRegion    BarKind = "travel-time-by-region"
)

type chartSpec struct {
	field  string
	title  string
	xLabel string
	yLabel string
}

var histograms = map[HistogramKind]chartSpec{
	HistogramTravelTime:      {"avg_commute_time", "Distribution du Temps de Trajet Domicile-Travail", "Temps (minutes)", "Nombre de communes"},
	HistogramBikeUsage:       {"velo_percentage", "Distribution du Taux d'Utilisation du Vélo", "Vélo (%)", "Nombre de communes"},
	HistogramPublicTransport: {"transport_commun_percentage", "Distribution de l'Utilisation des Transports en Commun", "Transports en commun (%)", "Nombre de communes"},
}

var bars = map[BarKind]chartSpec{
	BarGreenMobilityByRegion: {"green_mobility_index", "Indicateur de Mobilité Verte par Région", "Indicateur de Mobilité Verte", "Région"},
	BarTravelTimeByRegion:    {"avg_commute_time", "Temps de Trajet Moyen par Région", "Temps (minutes)", "Région"},
}

// ChartService renders the dashboard charts as PNG images
type ChartService struct {
	mobility *MobilityService
}

// NewChartService creates a new chart service
func NewChartService(mobility *MobilityService) *ChartService {
	return &ChartService{mobility: mobility}
}

// Histogram renders the distribution of one commune indicator over the communes matching f
func (s *ChartService) Histogram(ctx context.Context, kind HistogramKind, f models.EntityFilter) ([]byte, error) {
	spec, ok := histograms[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown histogram %q", ErrNotFound, kind)
	}

	f.Limit = 0
	communes, err := s.mobility.Communes(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(communes) == 0 {
		return nil, ErrNoData
	}

	values := make(plotter.Values, len(communes))
	for i, c := range communes {
		values[i], _ = pipeline.FieldValue(c, spec.field)
	}
	return renderHistogram(spec, values)
}

func renderHistogram(spec chartSpec, values plotter.Values) ([]byte, error) {
	p := plot.New()
	p.Title.Text = spec.title
	p.X.Label.Text = spec.xLabel
	p.Y.Label.Text = spec.yLabel

	var h *plotter.Histogram
	if lo, hi := stats.Min(values), stats.Max(values); lo == hi {
		// a single value would give zero-width bins
		h = &plotter.Histogram{
			Bins:      []plotter.HistogramBin{{Min: lo - 0.5, Max: hi + 0.5, Weight: float64(len(values))}},
			Width:     1,
			LineStyle: plotter.DefaultLineStyle,
		}
	} else {
		var err error
		if h, err = plotter.NewHist(values, histogramBins); err != nil {
			return nil, fmt.Errorf("failed to build histogram: %w", err)
		}
	}
	h.FillColor = steelBlue
	p.Add(h)

	return writePNG(p, 10*vg.Inch, 6*vg.Inch)
}

// Bar renders one region indicator for the 20 best regions
func (s *ChartService) Bar(ctx context.Context, kind BarKind, f models.EntityFilter) ([]byte, error) {
	spec, ok := bars[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown bar chart %q", ErrNotFound, kind)
	}

	regions, err := s.mobility.Regions(ctx, models.EntityFilter{Age: f.Age})
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, ErrNoData
	}
	top := pipeline.Top(regions, maxChartBars, spec.field)

	// horizontal bars are drawn bottom-up, so the best region goes last
	values := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, r := range top {
		j := len(top) - 1 - i
		values[j], _ = pipeline.FieldValue(r, spec.field)
		names[j] = r.Name
	}

	p := plot.New()
	p.Title.Text = spec.title
	p.X.Label.Text = spec.xLabel
	p.Y.Label.Text = spec.yLabel

	chart, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	chart.Horizontal = true
	chart.Color = steelBlue
	p.Add(chart)
	p.NominalY(names...)

	return writePNG(p, 12*vg.Inch, 6*vg.Inch)
}

func writePNG(p *plot.Plot, width, height vg.Length) ([]byte, error) {
	w, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
