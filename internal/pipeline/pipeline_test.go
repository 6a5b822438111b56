package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jengzang/mobility-backend-go/internal/dataset"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

const testModalities = `COD_VAR;LIB_VAR;COD_MOD;LIB_MOD
COMMUNE;Commune de résidence;01001;L'Abergement-Clémenciat (01001)
COMMUNE;Commune de résidence;01004;Ambérieu-en-Bugey (01004)
COMMUNE;Commune de résidence;75056;Paris (75056)
DCLT;Commune de travail;01001;L'Abergement-Clémenciat (01001)
DCLT;Commune de travail;01004;Ambérieu-en-Bugey (01004)
DCLT;Commune de travail;75101;Paris 1er Arrondissement (75101)
TRANS;Mode de transport;1;Pas de transport
TRANS;Mode de transport;2;Marche à pied (ou rollers, patinette)
TRANS;Mode de transport;3;Vélo (y compris à assistance électrique)
TRANS;Mode de transport;4;Deux-roues motorisé
TRANS;Mode de transport;5;Voiture, camion, fourgonnette
TRANS;Mode de transport;6;Transports en commun
AGEREVQ;Âge;015;15 à 19 ans
AGEREVQ;Âge;025;25 à 29 ans
AGEREVQ;Âge;065;65 à 69 ans
ILTUU;Unité urbaine;1;Dans une commune rurale
ILTUU;Unité urbaine;2;Dans une unité urbaine
`

const testRawSurvey = `COMMUNE,ARM,DCLT,TRANS,AGEREVQ,ILTUU,IPONDI,SEXE
1001,ZZZZZ,1001,3,25,1,1.23456,1
1001,ZZZZZ,1001,3,25,1,1.23456,1
1001,ZZZZZ,75101,5,25,1,2.5,2
1004,ZZZZZ,1004,6,65,2,3.001,1
1004,ZZZZZ,1004,6,65,2,,1
1004,ZZZZZ,99999,6,65,2,1,1
75056,ZZZZZ,75101,2,15,2,4,2
`

func testLookup(t *testing.T) *Lookup {
	t.Helper()
	tbl, err := dataset.ParseTable(strings.NewReader(testModalities))
	if err != nil {
		t.Fatalf("parse modalities: %v", err)
	}
	rows, err := dataset.ModalitiesFromTable(tbl)
	if err != nil {
		t.Fatalf("modalities: %v", err)
	}
	return NewLookup(rows)
}

func normalizeText(t *testing.T, input string, lookup *Lookup) ([]byte, *NormalizedTable, NormalizeReport) {
	t.Helper()
	tbl, err := dataset.ParseTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse survey: %v", err)
	}
	out, report, err := Normalize(tbl, lookup)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	var buf bytes.Buffer
	if err := dataset.WriteTable(&buf, out.Header, out.Records); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	return buf.Bytes(), out, report
}

func TestLookupDecode(t *testing.T) {
	l := testLookup(t)

	tests := []struct {
		variable, code, want string
		ok                   bool
	}{
		{models.VarResidence, "1001", "L'Abergement-Clémenciat (01001)", true},
		{models.VarWorkplace, "75101", "Paris 1er Arrondissement (75101)", true},
		{models.VarMode, "6", "Transports en commun", true},
		{models.VarAge, "25", "25 à 29 ans", true},
		{models.VarUrbanUnit, "1", "Dans une commune rurale", true},
		{models.VarMode, "9", "", false},
		{"UNKNOWN", "1", "", false},
	}
	for _, tt := range tests {
		got, ok := l.Decode(tt.variable, tt.code)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Decode(%s, %s) = %q, %v; want %q, %v", tt.variable, tt.code, got, ok, tt.want, tt.ok)
		}
	}
	if n := l.Size(models.VarMode); n != 6 {
		t.Errorf("TRANS size = %d, want 6", n)
	}
	if m := l.Mapping(models.VarAge); m["015"] != "15 à 19 ans" {
		t.Errorf("AGEREVQ mapping not padded: %v", m)
	}
}

func TestNormalizeDropsAndDecodes(t *testing.T) {
	_, out, report := normalizeText(t, testRawSurvey, testLookup(t))

	want := NormalizeReport{InputRows: 7, DroppedIncomplete: 1, DroppedUnmapped: 1, DroppedDuplicates: 1, OutputRows: 4}
	if report != want {
		t.Fatalf("report = %+v, want %+v", report, want)
	}
	if report.OutputRows > report.InputRows {
		t.Fatal("normalization invented rows")
	}

	wantHeader := "COMMUNE_CODE,COMMUNE,ARM,DCLT_CODE,DCLT,TRANS_CODE,TRANS,AGEREVQ_CODE,AGEREVQ,ILTUU_CODE,ILTUU,IPONDI,SEXE"
	if got := strings.Join(out.Header, ","); got != wantHeader {
		t.Fatalf("header = %s\nwant %s", got, wantHeader)
	}

	first := out.Rows[0]
	if first.ResidenceCode != "01001" || first.Residence != "L'Abergement-Clémenciat (01001)" {
		t.Errorf("residence not decoded: %+v", first)
	}
	if first.Mode != ModeBike || first.ModeCode != "3" || first.AgeCode != "025" {
		t.Errorf("mode/age not decoded: %+v", first)
	}
	if first.Weight != 1.23 {
		t.Errorf("weight = %v, want 1.23", first.Weight)
	}
	if out.Rows[2].Weight != 3 {
		t.Errorf("weight = %v, want 3", out.Rows[2].Weight)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	lookup := testLookup(t)

	first, _, _ := normalizeText(t, testRawSurvey, lookup)
	second, _, _ := normalizeText(t, testRawSurvey, lookup)
	if !bytes.Equal(first, second) {
		t.Fatal("normalizing the same input twice gave different output")
	}

	again, _, report := normalizeText(t, string(first), lookup)
	if !bytes.Equal(first, again) {
		t.Fatalf("normalizing a normalized table changed it:\n%s\n---\n%s", first, again)
	}
	if report.DroppedDuplicates+report.DroppedIncomplete+report.DroppedUnmapped != 0 {
		t.Fatalf("normalized table lost rows: %+v", report)
	}
}

func TestNormalizeDedupsRawRows(t *testing.T) {
	input := "COMMUNE,DCLT,TRANS,AGEREVQ,ILTUU,IPONDI\n" +
		"1001,1001,3,25,1,1.001\n" +
		"1001,1001,3,25,1,1.004\n" +
		"1004,1004,6,25,1,2\n" +
		"1004,1004,6,25,1,2\n" +
		"75056,75101,5,25,1,\n" +
		"75056,75101,5,25,1,\n"
	_, out, report := normalizeText(t, input, testLookup(t))

	want := NormalizeReport{InputRows: 6, DroppedDuplicates: 2, DroppedIncomplete: 1, OutputRows: 3}
	if report != want {
		t.Fatalf("report = %+v, want %+v", report, want)
	}

	var total float64
	for _, r := range out.Rows {
		total += r.Weight
	}
	if total != 4 {
		t.Fatalf("total weight = %v, want 4", total)
	}
	if out.Rows[0].Weight != 1 || out.Rows[1].Weight != 1 {
		t.Fatalf("rows differing past the second decimal were merged: %+v", out.Rows)
	}
}

func TestNormalizeMissingColumn(t *testing.T) {
	tbl, err := dataset.ParseTable(strings.NewReader("COMMUNE;DCLT;TRANS;AGEREVQ;IPONDI\n1001;1001;3;25;1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err := Normalize(tbl, testLookup(t)); err == nil {
		t.Fatal("expected error for missing ILTUU column")
	}
}

func TestEstimateCommute(t *testing.T) {
	tests := []struct {
		name                      string
		residence, workplace, mode string
		want                      float64
	}{
		{"car same commune", "01001", "01001", ModeCar, 50},
		{"car same department", "01001", "01004", ModeCar, 75},
		{"car other department", "01001", "75101", ModeCar, 100},
		{"bike other department", "01001", "75101", ModeBike, 30},
		{"walk same commune", "75056", "75056", ModeWalk, 5},
		{"no transport", "01001", "75101", ModeNone, 0},
		{"unknown mode", "01001", "01001", "Téléportation", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateCommute(tt.residence, tt.workplace, tt.mode); got != tt.want {
				t.Errorf("EstimateCommute = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeGlobalStats(t *testing.T) {
	rows := []models.SurveyRow{
		{ResidenceCode: "01001", WorkplaceCode: "01001", Mode: ModeBike, Weight: 10},
		{ResidenceCode: "01001", WorkplaceCode: "75101", Mode: ModeTransit, Weight: 20},
		{ResidenceCode: "01001", WorkplaceCode: "01004", Mode: ModeCar, Weight: 65},
		{ResidenceCode: "01001", WorkplaceCode: "01001", Mode: ModeNone, Weight: 5},
	}

	got := ComputeGlobalStats(rows)
	if got.ShareBike != 10 {
		t.Errorf("pourcentage_velo = %v, want 10", got.ShareBike)
	}
	if got.SharePublicTransit != 20 {
		t.Errorf("pourcentage_transport_commun = %v, want 20", got.SharePublicTransit)
	}
	if got.ShareNoTransport != 5 {
		t.Errorf("pourcentage_sans_transport = %v, want 5", got.ShareNoTransport)
	}
	// (15 + 60 + 75 + 0) / 4
	if got.MeanCommuteTime != 37.5 {
		t.Errorf("pourcentage_temps_moyen = %v, want 37.5", got.MeanCommuteTime)
	}
	if got.TotalWeight != 100 || got.RowCount != 4 {
		t.Errorf("totals = %v / %d", got.TotalWeight, got.RowCount)
	}
}

func TestComputeGlobalStatsExactLabels(t *testing.T) {
	rows := []models.SurveyRow{
		{ResidenceCode: "01001", WorkplaceCode: "01001", Mode: "Train", Weight: 10},
		{ResidenceCode: "01001", WorkplaceCode: "01001", Mode: ModeTransit, Weight: 10},
	}

	got := ComputeGlobalStats(rows)
	if got.SharePublicTransit != 50 {
		t.Errorf("pourcentage_transport_commun = %v, want 50", got.SharePublicTransit)
	}
	// an unpublished label scores no speed and counts in no share
	if got.MeanCommuteTime != 15 {
		t.Errorf("pourcentage_temps_moyen = %v, want 15", got.MeanCommuteTime)
	}
}

func TestComputeGlobalStatsEmpty(t *testing.T) {
	got := ComputeGlobalStats(nil)
	if got != (models.GlobalStats{}) {
		t.Fatalf("empty stats = %+v, want zero values", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		label string
		want  Category
		ok    bool
	}{
		{ModeBike, CategoryBike, true},
		{ModeCar, CategoryCar, true},
		{ModeTransit, CategoryTransit, true},
		{ModeWalk, CategoryWalk, true},
		{ModeMotorbike, CategoryMotorbike, true},
		{ModeNone, CategoryNone, true},
		{"VELO", CategoryBike, true},
		{"pas de transport", CategoryNone, true},
		{"Transport en commun (bus, métro)", CategoryTransit, true},
		{"Deux roues motorisé", CategoryMotorbike, true},
		{"Autre", "", false},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Classify(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Vélo Électrique "); got != "velo electrique" {
		t.Fatalf("Fold = %q", got)
	}
}

func TestTransportTypes(t *testing.T) {
	rows := []models.SurveyRow{{Mode: ModeBike}, {Mode: ModeBike}, {Mode: ModeCar}, {Mode: "Autre"}}
	types := TransportTypes(rows)
	if len(types) != 2 {
		t.Fatalf("types = %+v", types)
	}
	if types[0].Code != CategoryBike || len(types[0].Values) != 1 || types[1].Code != CategoryCar {
		t.Fatalf("unexpected types: %+v", types)
	}

	if all := TransportTypes(nil); len(all) != len(Categories) {
		t.Fatalf("default types = %d, want %d", len(all), len(Categories))
	}
}
