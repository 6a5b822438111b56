package pipeline

import (
	"sort"
	"strings"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// Transport mode labels as published in the modality reference
const (
	ModeNone      = "Pas de transport"
	ModeWalk      = "Marche à pied (ou rollers, patinette)"
	ModeBike      = "Vélo (y compris à assistance électrique)"
	ModeMotorbike = "Deux-roues motorisé"
	ModeCar       = "Voiture, camion, fourgonnette"
	ModeTransit   = "Transports en commun"
)

// Category is a transport-mode bucket of the per-entity breakdown
type Category string

const (
	CategoryBike      Category = "velo"
	CategoryCar       Category = "voiture"
	CategoryTransit   Category = "transport_commun"
	CategoryWalk      Category = "marche"
	CategoryMotorbike Category = "deux_roues"
	CategoryNone      Category = "pas_transport"
)

// Categories lists every bucket in display order
var Categories = []Category{
	CategoryBike,
	CategoryCar,
	CategoryTransit,
	CategoryWalk,
	CategoryMotorbike,
	CategoryNone,
}

var categoryByLabel = map[string]Category{
	ModeBike:      CategoryBike,
	ModeCar:       CategoryCar,
	ModeTransit:   CategoryTransit,
	ModeWalk:      CategoryWalk,
	ModeMotorbike: CategoryMotorbike,
	ModeNone:      CategoryNone,
}

var categoryNames = map[Category]string{
	CategoryBike:      "Vélo",
	CategoryCar:       "Voiture",
	CategoryTransit:   "Transports en commun",
	CategoryWalk:      "Marche à pied",
	CategoryMotorbike: "Deux-roues motorisé",
	CategoryNone:      "Pas de transport",
}

// keyword rules for labels that differ from the published ones; order matters,
// "pas de transport" must win over the transit keywords
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryNone, []string{"pas de transport", "aucun transport"}},
	{CategoryBike, []string{"velo", "bicyclette"}},
	{CategoryMotorbike, []string{"deux-roues", "deux roues", "2 roues", "moto", "scooter"}},
	{CategoryCar, []string{"voiture", "camion", "fourgonnette"}},
	{CategoryWalk, []string{"marche", "rollers", "patinette", "pied"}},
	{CategoryTransit, []string{"transports en commun", "transport en commun", "bus", "metro", "tram", "train"}},
}

// Name returns the display name of a category
func (c Category) Name() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return string(c)
}

// ParseCategory validates a category key
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.TrimSpace(s))
	_, ok := categoryNames[c]
	return c, ok
}

// Classify maps a transport mode label to its category.
// Published labels match exactly; other spellings fall back to keyword matching
// on the accent-folded label.
func Classify(mode string) (Category, bool) {
	if c, ok := categoryByLabel[mode]; ok {
		return c, true
	}
	folded := Fold(mode)
	if folded == "" {
		return "", false
	}
	for _, rule := range categoryKeywords {
		for _, w := range rule.words {
			if strings.Contains(folded, w) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// TransportType is one category with the labels found for it in the data
type TransportType struct {
	Code   Category `json:"code"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// TransportTypes groups the distinct mode labels of rows by category.
// Without rows every category is returned with no values.
func TransportTypes(rows []models.SurveyRow) []TransportType {
	found := make(map[Category]map[string]bool)
	for _, r := range rows {
		c, ok := Classify(r.Mode)
		if !ok {
			continue
		}
		if found[c] == nil {
			found[c] = make(map[string]bool)
		}
		found[c][r.Mode] = true
	}

	out := make([]TransportType, 0, len(Categories))
	for _, c := range Categories {
		if len(rows) > 0 && len(found[c]) == 0 {
			continue
		}
		values := make([]string, 0, len(found[c]))
		for v := range found[c] {
			values = append(values, v)
		}
		sort.Strings(values)
		out = append(out, TransportType{Code: c, Name: c.Name(), Values: values})
	}
	return out
}
