package pipeline

import (
	"sort"
	"strings"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// DefaultSortField orders entities when the caller does not choose
const DefaultSortField = "green_mobility_index"

// fallbackSortField replaces unknown sort fields
const fallbackSortField = "population"

var sortFields = map[string]func(models.EntityAggregate) float64{
	"green_mobility_index":        func(e models.EntityAggregate) float64 { return e.GreenMobilityIndex },
	"population":                  func(e models.EntityAggregate) float64 { return e.Population },
	"avg_commute_time":            func(e models.EntityAggregate) float64 { return e.AvgCommuteTime },
	"total_weight":                func(e models.EntityAggregate) float64 { return e.TotalWeight },
	"velo_percentage":             func(e models.EntityAggregate) float64 { return e.VeloPercentage },
	"voiture_percentage":          func(e models.EntityAggregate) float64 { return e.VoiturePercentage },
	"transport_commun_percentage": func(e models.EntityAggregate) float64 { return e.TransportCommunPercentage },
	"marche_percentage":           func(e models.EntityAggregate) float64 { return e.MarchePercentage },
	"deux_roues_percentage":       func(e models.EntityAggregate) float64 { return e.DeuxRouesPercentage },
	"pas_transport_percentage":    func(e models.EntityAggregate) float64 { return e.PasTransportPercentage },
}

// SortField resolves a requested sort field, falling back to population
func SortField(field string) string {
	field = strings.TrimSpace(field)
	if field == "" {
		return DefaultSortField
	}
	if _, ok := sortFields[field]; ok {
		return field
	}
	return fallbackSortField
}

// FieldValue returns the numeric value of a sortable field
func FieldValue(e models.EntityAggregate, field string) (float64, bool) {
	get, ok := sortFields[field]
	if !ok {
		return 0, false
	}
	return get(e), true
}

// Rank sorts entities in place by field, highest first; ties keep code order.
// Sorting by "name" or "code" is ascending.
func Rank(entities []models.EntityAggregate, field string) {
	switch field {
	case "name":
		sort.SliceStable(entities, func(i, j int) bool {
			return Fold(entities[i].Name) < Fold(entities[j].Name)
		})
		return
	case "code":
		sort.SliceStable(entities, func(i, j int) bool {
			return entities[i].Code < entities[j].Code
		})
		return
	}

	get := sortFields[SortField(field)]
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := get(entities[i]), get(entities[j])
		if a != b {
			return a > b
		}
		return entities[i].Code < entities[j].Code
	})
}

// Top returns the n highest entities by field, without modifying entities
func Top(entities []models.EntityAggregate, n int, field string) []models.EntityAggregate {
	ranked := make([]models.EntityAggregate, len(entities))
	copy(ranked, entities)
	Rank(ranked, field)
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
