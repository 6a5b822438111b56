package dataset

import (
	"fmt"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// Column spellings found across INSEE releases of the demographic references
var (
	communeCodeCols = []string{"CODGEO", "COM_CODE", "COMMUNE_CODE"}
	communeNameCols = []string{"Commune", "LIBGEO", "COM_NOM", "NCC", "LIBELLE"}
	regionNameCols  = []string{"Région", "REGION", "Region", "LIBELLE", "NCC"}
	deptNameCols    = []string{"Département", "DEPARTEMENT", "Departement", "LIBELLE", "NCC"}
	populationCols  = []string{"PTOT", "population", "Population", "PMUN"}
)

// ReadCommunes loads the commune reference
func ReadCommunes(path string) ([]models.CommuneRef, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return CommunesFromTable(t), nil
}

// CommunesFromTable extracts commune rows. The code comes from a full code
// column, from COM when it holds a code, or from DEP + CODCOM.
// Rows without a resolvable code are skipped.
func CommunesFromTable(t *Table) []models.CommuneRef {
	out := make([]models.CommuneRef, 0, t.Len())
	for _, rec := range t.Records {
		code := communeCode(t, rec)
		if code == "" {
			continue
		}

		name := t.First(rec, communeNameCols...)
		if name == "" {
			if com := t.Value(rec, "COM"); com != "" && !looksLikeCommuneCode(com) {
				name = com
			}
		}
		if name == "" {
			name = code
		}

		dep := DepartmentCode(t.Value(rec, "DEP"))
		if dep == "" {
			dep = DepartmentOf(code)
		}
		pop, _ := ParseNumber(t.First(rec, populationCols...))

		out = append(out, models.CommuneRef{
			Code:       code,
			Name:       name,
			Department: dep,
			Region:     RegionCode(t.Value(rec, "REG")),
			Population: pop,
		})
	}
	return out
}

func communeCode(t *Table, rec []string) string {
	if v := t.First(rec, communeCodeCols...); v != "" && !IsMissing(v) {
		return PadCode(v, 5)
	}
	if v := t.Value(rec, "COM"); looksLikeCommuneCode(v) {
		return PadCode(v, 5)
	}
	codcom := t.Value(rec, "CODCOM")
	if IsMissing(codcom) {
		return ""
	}
	if len(codcom) == 5 {
		return codcom
	}
	dep := DepartmentCode(t.Value(rec, "DEP"))
	switch len(dep) {
	case 2:
		return dep + PadCode(codcom, 3)
	case 3:
		return dep + PadCode(codcom, 2)
	}
	return ""
}

// ReadRegions loads the region reference
func ReadRegions(path string) ([]models.RegionRef, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if !t.HasCol("REG") {
		return nil, fmt.Errorf("region reference: missing required column: REG")
	}

	out := make([]models.RegionRef, 0, t.Len())
	for _, rec := range t.Records {
		code := RegionCode(t.Value(rec, "REG"))
		if code == "" {
			continue
		}
		nbcom, _ := ParseNumber(t.Value(rec, "NBCOM"))
		pop, _ := ParseNumber(t.First(rec, populationCols...))
		name := t.First(rec, regionNameCols...)
		if name == "" {
			name = code
		}
		out = append(out, models.RegionRef{
			Code:         code,
			Name:         name,
			CommuneCount: int(nbcom),
			Population:   pop,
		})
	}
	return out, nil
}

// ReadDepartments loads the department reference
func ReadDepartments(path string) ([]models.DepartmentRef, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if !t.HasCol("DEP") {
		return nil, fmt.Errorf("department reference: missing required column: DEP")
	}

	out := make([]models.DepartmentRef, 0, t.Len())
	for _, rec := range t.Records {
		code := DepartmentCode(t.Value(rec, "DEP"))
		if code == "" {
			continue
		}
		pop, _ := ParseNumber(t.First(rec, populationCols...))
		name := t.First(rec, deptNameCols...)
		if name == "" {
			name = code
		}
		out = append(out, models.DepartmentRef{
			Code:       code,
			Name:       name,
			Region:     RegionCode(t.Value(rec, "REG")),
			Population: pop,
		})
	}
	return out, nil
}
