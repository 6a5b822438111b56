package stats

import "testing"

func TestRound(t *testing.T) {
	tests := []struct {
		x        float64
		decimals int
		want     float64
	}{
		{66.66666666666667, 1, 66.7},
		{33.333333333333336, 1, 33.3},
		{12.3456, 2, 12.35},
		{0.125, 2, 0.12},
		{2.5, 0, 2},
		{3.5, 0, 4},
		{280.00000000000006, 0, 280},
	}

	for _, tt := range tests {
		if got := Round(tt.x, tt.decimals); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.x, tt.decimals, got, tt.want)
		}
	}
}

func TestPercentageZeroTotal(t *testing.T) {
	if got := Percentage(10, 0, 2); got != 0 {
		t.Fatalf("Percentage with zero total = %v, want 0", got)
	}
	if got := Percentage(10, 100, 2); got != 10 {
		t.Fatalf("Percentage(10, 100) = %v, want 10", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 3, 2, 5}, 2)
	if s.Count != 5 || s.Min != 1 || s.Max != 5 || s.Median != 3 || s.Q1 != 2 || s.Q3 != 4 || s.Mean != 3 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	if even := Summarize([]float64{4, 1, 3, 2}, 2); even.Median != Median([]float64{1, 2, 3, 4}) || even.Median != 2.5 {
		t.Fatalf("even-count median = %v, want 2.5", even.Median)
	}

	if empty := Summarize(nil, 1); empty.Count != 0 {
		t.Fatalf("empty summary count = %d", empty.Count)
	}
}

func TestMaxMinMedian(t *testing.T) {
	values := []float64{3, 9, 1, 7}
	if Max(values) != 9 || Min(values) != 1 || Median(values) != 5 {
		t.Fatalf("max/min/median mismatch: %v %v %v", Max(values), Min(values), Median(values))
	}
	if Mean(nil) != 0 {
		t.Fatal("mean of empty slice should be 0")
	}
}
