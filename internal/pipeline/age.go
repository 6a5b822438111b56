package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jengzang/mobility-backend-go/internal/models"
)

// ErrUnknownAgeBracket is returned for an age filter outside the five brackets
var ErrUnknownAgeBracket = errors.New("unknown age bracket")

// AgeBracket is one of the coarse age filters of the dashboard
type AgeBracket string

const (
	AgeNone   AgeBracket = ""
	Age0To18  AgeBracket = "0-18"
	Age19To35 AgeBracket = "19-35"
	Age36To50 AgeBracket = "36-50"
	Age51To65 AgeBracket = "51-65"
	Age65Plus AgeBracket = "65+"
)

// AgeBrackets lists the brackets in display order
var AgeBrackets = []AgeBracket{Age0To18, Age19To35, Age36To50, Age51To65, Age65Plus}

var leadingNumberRe = regexp.MustCompile(`\d+`)

// ParseAgeBracket validates an age filter; the empty string means no filter
func ParseAgeBracket(s string) (AgeBracket, error) {
	b := AgeBracket(strings.TrimSpace(s))
	if b == AgeNone {
		return AgeNone, nil
	}
	for _, known := range AgeBrackets {
		if b == known {
			return b, nil
		}
	}
	return AgeNone, fmt.Errorf("%w: %q", ErrUnknownAgeBracket, s)
}

// LeadingAge extracts the first number of an age label ("25 à 29 ans" -> 25)
func LeadingAge(label string) (int, bool) {
	m := leadingNumberRe.FindString(label)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Contains reports whether an age label falls into the bracket.
// 65 belongs to both 51-65 and 65+.
func (b AgeBracket) Contains(label string) bool {
	if b == AgeNone {
		return true
	}
	n, ok := LeadingAge(label)
	if !ok {
		return false
	}
	switch b {
	case Age0To18:
		return n < 19
	case Age19To35:
		return n >= 19 && n < 36
	case Age36To50:
		return n >= 36 && n < 51
	case Age51To65:
		return n >= 51 && n < 66
	case Age65Plus:
		return n >= 65
	}
	return false
}

// PopulationFactor approximates the share of the population in the bracket
func (b AgeBracket) PopulationFactor() float64 {
	switch b {
	case Age0To18, Age19To35:
		return 0.28
	case Age36To50:
		return 0.32
	case Age51To65, Age65Plus:
		return 0.22
	}
	return 1.0
}

// classifyAge places a label in exactly one bracket, for listing purposes
func classifyAge(label string) (AgeBracket, bool) {
	n, ok := LeadingAge(label)
	if !ok {
		return AgeNone, false
	}
	switch {
	case n < 19:
		return Age0To18, true
	case n < 36:
		return Age19To35, true
	case n < 51:
		return Age36To50, true
	case n < 66:
		return Age51To65, true
	default:
		return Age65Plus, true
	}
}

// AgeRange is one bracket with the age labels found for it in the data
type AgeRange struct {
	Code   AgeBracket `json:"code"`
	Name   string     `json:"name"`
	Values []string   `json:"values"`
}

// AgeRanges groups the distinct age labels of rows by bracket, sorted by age.
// Without rows every bracket is returned with no values.
func AgeRanges(rows []models.SurveyRow) []AgeRange {
	found := make(map[AgeBracket]map[string]bool)
	for _, r := range rows {
		b, ok := classifyAge(r.Age)
		if !ok {
			continue
		}
		if found[b] == nil {
			found[b] = make(map[string]bool)
		}
		found[b][r.Age] = true
	}

	out := make([]AgeRange, 0, len(AgeBrackets))
	for _, b := range AgeBrackets {
		if len(rows) > 0 && len(found[b]) == 0 {
			continue
		}
		values := make([]string, 0, len(found[b]))
		for v := range found[b] {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool {
			ai, _ := LeadingAge(values[i])
			aj, _ := LeadingAge(values[j])
			if ai != aj {
				return ai < aj
			}
			return values[i] < values[j]
		})
		out = append(out, AgeRange{Code: b, Name: string(b) + " ans", Values: values})
	}
	return out
}
