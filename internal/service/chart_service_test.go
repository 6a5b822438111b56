package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

func TestHistograms(t *testing.T) {
	s := NewChartService(newTestMobility(t))
	for _, kind := range []HistogramKind{HistogramTravelTime, HistogramBikeUsage, HistogramPublicTransport} {
		t.Run(string(kind), func(t *testing.T) {
			data, err := s.Histogram(context.Background(), kind, models.EntityFilter{})
			if err != nil {
				t.Fatalf("Histogram: %v", err)
			}
			if !bytes.HasPrefix(data, pngSignature) {
				t.Fatal("not a PNG")
			}
		})
	}
}

func TestHistogramSingleValue(t *testing.T) {
	s := NewChartService(newTestMobility(t))
	data, err := s.Histogram(context.Background(), HistogramBikeUsage, models.EntityFilter{Department: "75"})
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if !bytes.HasPrefix(data, pngSignature) {
		t.Fatal("not a PNG")
	}
}

func TestHistogramErrors(t *testing.T) {
	s := NewChartService(newTestMobility(t))
	ctx := context.Background()

	if _, err := s.Histogram(ctx, "age-pyramid", models.EntityFilter{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown kind: err = %v", err)
	}
	if _, err := s.Histogram(ctx, HistogramTravelTime, models.EntityFilter{Region: "99"}); !errors.Is(err, ErrNoData) {
		t.Errorf("empty selection: err = %v", err)
	}
	if _, err := s.Histogram(ctx, HistogramTravelTime, models.EntityFilter{Age: "unknown"}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("bad age: err = %v", err)
	}
}

func TestRegionBars(t *testing.T) {
	s := NewChartService(newTestMobility(t))
	for _, kind := range []BarKind{BarGreenMobilityByRegion, BarTravelTimeByRegion} {
		data, err := s.Bar(context.Background(), kind, models.EntityFilter{})
		if err != nil {
			t.Fatalf("Bar(%s): %v", kind, err)
		}
		if !bytes.HasPrefix(data, pngSignature) {
			t.Fatalf("%s: not a PNG", kind)
		}
	}
	if _, err := s.Bar(context.Background(), "pie", models.EntityFilter{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown kind: err = %v", err)
	}
}
