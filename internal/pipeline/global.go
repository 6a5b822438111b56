package pipeline

import (
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/stats"
)

// ComputeGlobalStats computes the corpus-wide shares over normalized rows.
// Shares are weight ratios in percent over the exact published mode labels, the
// same labels the commute estimate scores; the mean commute time is the plain
// mean of the per-row estimates. All values are rounded to 2 decimals and are 0
// on an empty table.
func ComputeGlobalStats(rows []models.SurveyRow) models.GlobalStats {
	var total, none, bike, transit, estimates float64
	for _, r := range rows {
		total += r.Weight
		switch r.Mode {
		case ModeNone:
			none += r.Weight
		case ModeBike:
			bike += r.Weight
		case ModeTransit:
			transit += r.Weight
		}
		estimates += EstimateCommute(r.ResidenceCode, r.WorkplaceCode, r.Mode)
	}

	var mean float64
	if len(rows) > 0 {
		mean = estimates / float64(len(rows))
	}

	return models.GlobalStats{
		ShareNoTransport:   stats.Percentage(none, total, 2),
		MeanCommuteTime:    stats.Round(mean, 2),
		ShareBike:          stats.Percentage(bike, total, 2),
		SharePublicTransit: stats.Percentage(transit, total, 2),
		TotalWeight:        stats.Round(total, 2),
		RowCount:           len(rows),
	}
}
