package spatial

import (
	"math"
	"testing"
)

func TestDepartments(t *testing.T) {
	all := Departments()
	if len(all) != 101 {
		t.Fatalf("departments = %d, want 101", len(all))
	}
	if all[0].Code != "01" || all[19].Code != "2A" || all[20].Code != "2B" || all[100].Code != "976" {
		t.Fatalf("unexpected order: %s %s %s %s", all[0].Code, all[19].Code, all[20].Code, all[100].Code)
	}
	if DepartmentName("974") != "La Réunion" || DepartmentName("99") != "" {
		t.Errorf("DepartmentName mismatch")
	}
}

func TestHaversineDistance(t *testing.T) {
	// Paris to Lyon is about 392 km
	d := HaversineDistance(48.8566, 2.3522, 45.7640, 4.8357) / 1000
	if d < 385 || d > 400 {
		t.Fatalf("Paris-Lyon = %.1f km", d)
	}
}

func TestCommunePoint(t *testing.T) {
	tests := []struct {
		code string
		dept string
	}{
		{"01001", "01"},
		{"2A004", "2A"},
		{"97411", "974"},
	}
	for _, tt := range tests {
		p, ok := CommunePoint(tt.code)
		if !ok {
			t.Fatalf("%s: department not found", tt.code)
		}
		d, _ := LookupDepartment(tt.dept)
		if dist := HaversineDistance(p.Lat, p.Lon, d.Lat, d.Lon); dist > communeSpreadMeters+1 {
			t.Errorf("%s is %.0f m from its department centre", tt.code, dist)
		}
		if again, _ := CommunePoint(tt.code); again != p {
			t.Errorf("%s: placement not stable", tt.code)
		}
	}

	if p, ok := CommunePoint("99999"); ok || p != France {
		t.Errorf("unknown department should fall back to France, got %v %v", p, ok)
	}
}

func TestViewOf(t *testing.T) {
	v := ViewOf([]Point{{Lat: 48.8566, Lon: 2.3522}, {Lat: 43.2965, Lon: 5.3698}})
	if math.Abs(v.South-43.2965) > 1e-6 || math.Abs(v.North-48.8566) > 1e-6 {
		t.Fatalf("bounds = %+v", v)
	}
	if v.Centre.Lat < 46 || v.Centre.Lat > 46.2 {
		t.Errorf("centre = %+v", v.Centre)
	}
	if v.Zoom < 5 || v.Zoom > 8 {
		t.Errorf("zoom = %d", v.Zoom)
	}

	if empty := ViewOf(nil); empty.Centre != France {
		t.Errorf("empty view centre = %+v", empty.Centre)
	}
}
