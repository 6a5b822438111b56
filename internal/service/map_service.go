package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/mobility-backend-go/internal/geo"
	"github.com/jengzang/mobility-backend-go/internal/logger"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/pipeline"
	"github.com/jengzang/mobility-backend-go/internal/spatial"
)

// MaxMarkers bounds the markers of one map; the most populated communes win
const MaxMarkers = 500

// MapKind names a commune map variant
type MapKind string

const (
	MapCommunes      MapKind = "communes"
	MapGreenMobility MapKind = "green-mobility"
	MapUnderserved   MapKind = "zones-mal-desservies"
)

// ParseMapKind validates a map variant name
func ParseMapKind(s string) (MapKind, bool) {
	switch k := MapKind(s); k {
	case MapCommunes, MapGreenMobility, MapUnderserved:
		return k, true
	}
	return "", false
}

// Marker colours
const (
	ColourRed    = "red"
	ColourOrange = "orange"
	ColourGreen  = "green"
	ColourBlue   = "blue"
)

var markerColours = map[string]color.RGBA{
	ColourRed:    {R: 214, G: 39, B: 40, A: 255},
	ColourOrange: {R: 255, G: 127, B: 14, A: 255},
	ColourGreen:  {R: 44, G: 160, B: 44, A: 255},
	ColourBlue:   {R: 31, G: 119, B: 180, A: 255},
}

// Marker is one commune placed on the map
type Marker struct {
	Point   spatial.Point
	Colour  string
	Located bool // false when the commune sits at the centre of France
	Entity  models.EntityAggregate
}

// Legend holds the green index range the colours are normalized over
type Legend struct {
	MinGreen float64 `json:"min_green"`
	MaxGreen float64 `json:"max_green"`
}

// CommuneMap is a set of markers with the view that fits them
type CommuneMap struct {
	Kind    MapKind
	View    spatial.View
	Legend  Legend
	Total   int // matching communes before sampling
	Markers []Marker
}

// MapService places commune aggregates on a map
type MapService struct {
	mobility *MobilityService
	locator  geo.Locator
	font     *truetype.Font
	log      *logger.Logger
}

// NewMapService creates a new map service. A nil locator places communes
// around their department centre.
func NewMapService(mobility *MobilityService, locator geo.Locator, log *logger.Logger) (*MapService, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse map font: %w", err)
	}
	if locator == nil {
		locator = geo.DepartmentLocator{}
	}
	return &MapService{mobility: mobility, locator: locator, font: f, log: log}, nil
}

// Build selects, colours and locates the markers of a map variant
func (s *MapService) Build(ctx context.Context, kind MapKind, f models.EntityFilter) (*CommuneMap, error) {
	f.Limit = 0
	communes, err := s.mobility.Communes(ctx, f)
	if err != nil {
		return nil, err
	}

	selected := communes[:0:0]
	for _, c := range communes {
		switch kind {
		case MapGreenMobility:
			if c.RowCount == 0 {
				continue
			}
		case MapUnderserved:
			if c.RowCount == 0 || !c.Underserved() {
				continue
			}
		}
		selected = append(selected, c)
	}
	if len(selected) == 0 {
		return nil, ErrNoData
	}

	sample := pipeline.Top(selected, MaxMarkers, "population")
	m := &CommuneMap{Kind: kind, Total: len(selected), Markers: make([]Marker, len(sample))}

	legend, colour := markerColouring(sample)
	m.Legend = legend

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range sample {
		g.Go(func() error {
			p, ok := s.locator.Locate(gctx, sample[i].Code)
			m.Markers[i] = Marker{Point: p, Located: ok, Entity: sample[i]}
			if kind == MapUnderserved {
				m.Markers[i].Colour = ColourRed
			} else {
				m.Markers[i].Colour = colour(sample[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points := make([]spatial.Point, 0, len(m.Markers))
	unlocated := 0
	for _, mk := range m.Markers {
		if !mk.Located {
			unlocated++
			continue
		}
		points = append(points, mk.Point)
	}
	if unlocated > 0 {
		s.log.Warn("Some communes could not be located", "map", kind, "count", unlocated)
	}
	m.View = spatial.ViewOf(points)
	return m, nil
}

// markerColouring normalizes the green index over the sample: the lower third
// is red, the middle orange, the upper green. Communes without survey rows are blue.
func markerColouring(sample []models.EntityAggregate) (Legend, func(models.EntityAggregate) string) {
	var legend Legend
	seen := false
	for _, e := range sample {
		if e.RowCount == 0 {
			continue
		}
		if !seen || e.GreenMobilityIndex < legend.MinGreen {
			legend.MinGreen = e.GreenMobilityIndex
		}
		if !seen || e.GreenMobilityIndex > legend.MaxGreen {
			legend.MaxGreen = e.GreenMobilityIndex
		}
		seen = true
	}

	return legend, func(e models.EntityAggregate) string {
		if e.RowCount == 0 {
			return ColourBlue
		}
		if legend.MaxGreen == legend.MinGreen {
			return ColourGreen
		}
		n := (e.GreenMobilityIndex - legend.MinGreen) / (legend.MaxGreen - legend.MinGreen)
		switch {
		case n < 0.33:
			return ColourRed
		case n < 0.66:
			return ColourOrange
		}
		return ColourGreen
	}
}

// GeoJSON encodes the map as a FeatureCollection. The view, legend and
// total are added as foreign members.
func (m *CommuneMap) GeoJSON() ([]byte, error) {
	fc := &geojson.FeatureCollection{
		BBox:     geom.NewBounds(geom.XY).Set(m.View.West, m.View.South, m.View.East, m.View.North),
		Features: make([]*geojson.Feature, 0, len(m.Markers)),
	}
	for _, mk := range m.Markers {
		e := mk.Entity
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       e.Code,
			Geometry: geom.NewPointFlat(geom.XY, []float64{mk.Point.Lon, mk.Point.Lat}),
			Properties: map[string]interface{}{
				"code":                        e.Code,
				"name":                        e.Name,
				"department":                  e.Department,
				"region":                      e.Region,
				"population":                  e.Population,
				"row_count":                   e.RowCount,
				"green_mobility_index":        e.GreenMobilityIndex,
				"avg_commute_time":            e.AvgCommuteTime,
				"velo_percentage":             e.VeloPercentage,
				"voiture_percentage":          e.VoiturePercentage,
				"transport_commun_percentage": e.TransportCommunPercentage,
				"marche_percentage":           e.MarchePercentage,
				"deux_roues_percentage":       e.DeuxRouesPercentage,
				"pas_transport_percentage":    e.PasTransportPercentage,
				"underserved":                 e.Underserved(),
				"color":                       mk.Colour,
				"located":                     mk.Located,
			},
		})
	}

	raw, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature collection: %w", err)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}
	extra := map[string]interface{}{
		"kind":   m.Kind,
		"view":   m.View,
		"legend": m.Legend,
		"total":  m.Total,
		"shown":  len(m.Markers),
	}
	for k, v := range extra {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		members[k] = b
	}
	return json.Marshal(members)
}

const (
	mapWidth   = 900
	mapHeight  = 900
	mapMargin  = 40
	markerSize = 6
)

var mapTitles = map[MapKind]string{
	MapCommunes:      "Communes",
	MapGreenMobility: "Mobilité Verte par Commune",
	MapUnderserved:   "Zones Mal Desservies",
}

// RenderPNG draws the markers on a plain equirectangular canvas
func (s *MapService) RenderPNG(m *CommuneMap) ([]byte, error) {
	dc := gg.NewContext(mapWidth, mapHeight)
	dc.SetColor(color.RGBA{R: 245, G: 247, B: 250, A: 255})
	dc.Clear()

	south, west, north, east := m.View.South, m.View.West, m.View.North, m.View.East
	// a lone marker still needs an extent
	if north-south < 0.5 {
		mid := (north + south) / 2
		south, north = mid-0.25, mid+0.25
	}
	if east-west < 0.5 {
		mid := (east + west) / 2
		west, east = mid-0.25, mid+0.25
	}

	// keep distances comparable on both axes
	scaleX := math.Cos(m.View.Centre.Lat * math.Pi / 180)
	spanX := (east - west) * scaleX
	spanY := north - south
	inner := float64(mapWidth - 2*mapMargin)
	scale := inner / math.Max(spanX, spanY)
	offX := mapMargin + (inner-spanX*scale)/2
	offY := mapMargin + (inner-spanY*scale)/2

	project := func(p spatial.Point) (float64, float64) {
		return offX + (p.Lon-west)*scaleX*scale, offY + (north-p.Lat)*scale
	}

	for _, mk := range m.Markers {
		if !mk.Located {
			continue
		}
		x, y := project(mk.Point)
		c := markerColours[mk.Colour]
		dc.DrawCircle(x, y, markerSize)
		dc.SetRGBA255(int(c.R), int(c.G), int(c.B), 180)
		dc.FillPreserve()
		dc.SetRGBA255(int(c.R), int(c.G), int(c.B), 255)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	dc.SetFontFace(s.face(18))
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(mapTitles[m.Kind], mapWidth/2, 20, 0.5, 0.5)

	dc.SetFontFace(s.face(12))
	legend := []struct {
		colour string
		label  string
	}{
		{ColourGreen, fmt.Sprintf("Mobilité verte élevée (%.1f%%)", m.Legend.MaxGreen)},
		{ColourOrange, "Mobilité verte moyenne"},
		{ColourRed, fmt.Sprintf("Mobilité verte faible (%.1f%%)", m.Legend.MinGreen)},
	}
	if m.Kind == MapUnderserved {
		legend = legend[2:]
		legend[0].label = "Commune mal desservie"
	}
	y := float64(mapHeight - mapMargin - 20*len(legend))
	for _, l := range legend {
		c := markerColours[l.colour]
		dc.DrawCircle(mapMargin+markerSize, y, markerSize)
		dc.SetColor(c)
		dc.Fill()
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(l.label, mapMargin+3*markerSize, y, 0, 0.35)
		y += 20
	}
	dc.DrawStringAnchored(fmt.Sprintf("%d / %d communes", len(m.Markers), m.Total), mapWidth-mapMargin, mapHeight-mapMargin/2, 1, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *MapService) face(size float64) font.Face {
	return truetype.NewFace(s.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
