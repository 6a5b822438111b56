package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/jengzang/mobility-backend-go/internal/logger"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/spatial"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

type fixedLocator map[string]spatial.Point

func (l fixedLocator) Locate(_ context.Context, code string) (spatial.Point, bool) {
	p, ok := l[code]
	if !ok {
		return spatial.France, false
	}
	return p, true
}

func newTestMaps(t *testing.T) *MapService {
	t.Helper()
	s, err := NewMapService(newTestMobility(t), nil, logger.Nop())
	if err != nil {
		t.Fatalf("NewMapService: %v", err)
	}
	return s
}

func TestMarkerColouring(t *testing.T) {
	sample := []models.EntityAggregate{
		{Code: "a", GreenMobilityIndex: 10, RowCount: 1},
		{Code: "b", GreenMobilityIndex: 45, RowCount: 1},
		{Code: "c", GreenMobilityIndex: 70, RowCount: 1},
		{Code: "d", GreenMobilityIndex: 0, RowCount: 0},
	}
	legend, colour := markerColouring(sample)
	if legend.MinGreen != 10 || legend.MaxGreen != 70 {
		t.Fatalf("legend = %+v", legend)
	}

	want := map[string]string{"a": ColourRed, "b": ColourOrange, "c": ColourGreen, "d": ColourBlue}
	for _, e := range sample {
		if got := colour(e); got != want[e.Code] {
			t.Errorf("colour(%s) = %s, want %s", e.Code, got, want[e.Code])
		}
	}

	_, flat := markerColouring(sample[:1])
	if got := flat(sample[0]); got != ColourGreen {
		t.Errorf("single value colour = %s, want green", got)
	}
}

func TestBuildCommunesMap(t *testing.T) {
	s := newTestMaps(t)
	m, err := s.Build(context.Background(), MapCommunes, models.EntityFilter{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Total != 3 || len(m.Markers) != 3 {
		t.Fatalf("total = %d markers = %d", m.Total, len(m.Markers))
	}

	// most populated first
	if m.Markers[0].Entity.Code != "75056" {
		t.Errorf("first marker = %s, want 75056", m.Markers[0].Entity.Code)
	}
	colours := make(map[string]string)
	for _, mk := range m.Markers {
		if !mk.Located {
			t.Errorf("%s not located", mk.Entity.Code)
		}
		colours[mk.Entity.Code] = mk.Colour
	}
	if colours["01001"] != ColourGreen || colours["75056"] != ColourRed || colours["01004"] != ColourBlue {
		t.Errorf("unexpected colours: %v", colours)
	}

	if m.View.South > 46.5 || m.View.North < 48.5 {
		t.Errorf("view does not cover Ain and Paris: %+v", m.View)
	}
}

func TestBuildUnderservedMap(t *testing.T) {
	s := newTestMaps(t)
	m, err := s.Build(context.Background(), MapUnderserved, models.EntityFilter{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Markers) != 1 || m.Markers[0].Entity.Code != "75056" || m.Markers[0].Colour != ColourRed {
		t.Fatalf("unexpected markers: %+v", m.Markers)
	}

	if _, err := s.Build(context.Background(), MapUnderserved, models.EntityFilter{Region: "84"}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestBuildUsesLocator(t *testing.T) {
	s, err := NewMapService(newTestMobility(t), fixedLocator{"75056": {Lat: 48.8566, Lon: 2.3522}}, logger.Nop())
	if err != nil {
		t.Fatalf("NewMapService: %v", err)
	}
	m, err := s.Build(context.Background(), MapGreenMobility, models.EntityFilter{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// 01004 has no survey rows
	if len(m.Markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(m.Markers))
	}
	if p := m.Markers[0].Point; p.Lat != 48.8566 || !m.Markers[0].Located {
		t.Fatalf("locator not used: %+v", m.Markers[0])
	}
	if m.Markers[1].Located {
		t.Fatalf("unknown commune reported as located")
	}
	if math.Abs(m.View.Centre.Lat-48.8566) > 1e-6 {
		t.Errorf("view should only cover located markers: %+v", m.View)
	}
}

func TestMapGeoJSON(t *testing.T) {
	s := newTestMaps(t)
	m, err := s.Build(context.Background(), MapCommunes, models.EntityFilter{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := m.GeoJSON()
	if err != nil {
		t.Fatalf("GeoJSON: %v", err)
	}

	var doc struct {
		Type     string `json:"type"`
		Total    int    `json:"total"`
		View     spatial.View
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Type != "FeatureCollection" || doc.Total != 3 || len(doc.Features) != 3 {
		t.Fatalf("unexpected document: %s", data)
	}
	f := doc.Features[0]
	if f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) != 2 {
		t.Fatalf("unexpected geometry: %+v", f.Geometry)
	}
	if f.Properties["code"] != "75056" || f.Properties["underserved"] != true || f.Properties["color"] != ColourRed {
		t.Fatalf("unexpected properties: %v", f.Properties)
	}
	if doc.View.Zoom == 0 {
		t.Errorf("view missing: %+v", doc.View)
	}
}

func TestRenderPNG(t *testing.T) {
	s := newTestMaps(t)
	for _, kind := range []MapKind{MapCommunes, MapUnderserved} {
		m, err := s.Build(context.Background(), kind, models.EntityFilter{})
		if err != nil {
			t.Fatalf("Build(%s): %v", kind, err)
		}
		data, err := s.RenderPNG(m)
		if err != nil {
			t.Fatalf("RenderPNG(%s): %v", kind, err)
		}
		if !bytes.HasPrefix(data, pngSignature) {
			t.Fatalf("%s: not a PNG", kind)
		}
	}
}

func TestParseMapKind(t *testing.T) {
	if k, ok := ParseMapKind("zones-mal-desservies"); !ok || k != MapUnderserved {
		t.Fatalf("ParseMapKind = %q, %v", k, ok)
	}
	if _, ok := ParseMapKind("heatmap"); ok {
		t.Fatal("unknown kind accepted")
	}
}
