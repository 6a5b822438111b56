package pipeline

import (
	"github.com/jengzang/mobility-backend-go/internal/dataset"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/stats"
)

// transitGreenWeight is the share of public transit counted as green mobility
const transitGreenWeight = 0.8

// commuteScaleMinutes is added to the global mean for the most populated entity
const commuteScaleMinutes = 5

// Partition is a set of residence communes aggregated together
type Partition struct {
	Kind         models.EntityKind
	Code         string
	Name         string
	Department   string
	Region       string
	CommuneCount int
	Population   float64
	Communes     []string
}

// AggregateOptions parameterizes AggregateEntities
type AggregateOptions struct {
	Age             AgeBracket
	MeanCommuteTime float64 // corpus-wide mean estimate
}

type accumulator struct {
	total    float64
	rows     int
	category map[Category]float64
}

// AggregateEntities computes the transport breakdown of each partition in one
// pass over rows. Every partition is returned, in input order, including those
// without any matching row.
func AggregateEntities(partitions []Partition, rows []models.SurveyRow, opts AggregateOptions) []models.EntityAggregate {
	members := make(map[string][]int)
	for i, p := range partitions {
		for _, c := range p.Communes {
			members[c] = append(members[c], i)
		}
	}

	acc := make([]accumulator, len(partitions))
	for i := range acc {
		acc[i].category = make(map[Category]float64, len(Categories))
	}

	ageMatch, filterAge := matchingAges(rows, opts.Age)
	for _, r := range rows {
		idx, ok := members[r.ResidenceCode]
		if !ok {
			continue
		}
		if filterAge && !ageMatch[r.Age] {
			continue
		}
		c, classified := Classify(r.Mode)
		for _, i := range idx {
			acc[i].total += r.Weight
			acc[i].rows++
			if classified {
				acc[i].category[c] += r.Weight
			}
		}
	}

	factor := opts.Age.PopulationFactor()
	out := make([]models.EntityAggregate, len(partitions))
	var maxPopulation float64
	for i, p := range partitions {
		a := acc[i]
		pct := func(c Category) float64 {
			return stats.Percentage(a.category[c], a.total, 1)
		}

		e := models.EntityAggregate{
			Kind:                      p.Kind,
			Code:                      p.Code,
			Name:                      p.Name,
			Department:                p.Department,
			Region:                    p.Region,
			CommuneCount:              p.CommuneCount,
			ReferencePopulation:       p.Population,
			Population:                stats.Round(p.Population*factor, 0),
			TotalWeight:               stats.Round(a.total, 2),
			RowCount:                  a.rows,
			VeloPercentage:            pct(CategoryBike),
			VoiturePercentage:         pct(CategoryCar),
			TransportCommunPercentage: pct(CategoryTransit),
			MarchePercentage:          pct(CategoryWalk),
			DeuxRouesPercentage:       pct(CategoryMotorbike),
			PasTransportPercentage:    pct(CategoryNone),
		}
		e.GreenMobilityIndex = GreenMobilityIndex(e.VeloPercentage, e.TransportCommunPercentage)
		if e.Population > maxPopulation {
			maxPopulation = e.Population
		}
		out[i] = e
	}

	for i := range out {
		scale := stats.Ratio(out[i].Population, maxPopulation)
		out[i].AvgCommuteTime = stats.Round(opts.MeanCommuteTime+scale*commuteScaleMinutes, 1)
	}
	return out
}

// matchingAges resolves an age bracket to the age labels found in rows. The
// filter only applies when at least one label matches; a bracket absent from
// the data leaves every row in.
func matchingAges(rows []models.SurveyRow, b AgeBracket) (map[string]bool, bool) {
	if b == AgeNone {
		return nil, false
	}
	match := make(map[string]bool)
	seen := make(map[string]bool)
	for _, r := range rows {
		if seen[r.Age] {
			continue
		}
		seen[r.Age] = true
		if b.Contains(r.Age) {
			match[r.Age] = true
		}
	}
	return match, len(match) > 0
}

// GreenMobilityIndex combines bike and public transit shares, transit counting for 80%
func GreenMobilityIndex(bike, transit float64) float64 {
	return stats.Round(bike+transitGreenWeight*transit, 1)
}

// CommunePartitions makes one partition per commune of the reference, keeping
// those of the given region and department when set
func CommunePartitions(communes []models.CommuneRef, region, department string) []Partition {
	region = dataset.RegionCode(region)
	department = dataset.DepartmentCode(department)

	out := make([]Partition, 0, len(communes))
	for _, c := range communes {
		if region != "" && c.Region != region {
			continue
		}
		if department != "" && c.Department != department {
			continue
		}
		out = append(out, Partition{
			Kind:       models.EntityCommune,
			Code:       c.Code,
			Name:       c.Name,
			Department: c.Department,
			Region:     c.Region,
			Population: c.Population,
			Communes:   []string{c.Code},
		})
	}
	return out
}

// RegionPartitions makes one partition per region of the reference, gathering
// its communes from the commune reference
func RegionPartitions(regions []models.RegionRef, communes []models.CommuneRef) []Partition {
	byRegion := make(map[string][]string)
	for _, c := range communes {
		if c.Region == "" {
			continue
		}
		byRegion[c.Region] = append(byRegion[c.Region], c.Code)
	}

	out := make([]Partition, 0, len(regions))
	for _, r := range regions {
		count := r.CommuneCount
		if count == 0 {
			count = len(byRegion[r.Code])
		}
		out = append(out, Partition{
			Kind:         models.EntityRegion,
			Code:         r.Code,
			Name:         r.Name,
			Region:       r.Code,
			CommuneCount: count,
			Population:   r.Population,
			Communes:     byRegion[r.Code],
		})
	}
	return out
}
