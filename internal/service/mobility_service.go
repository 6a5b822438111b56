package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/mobility-backend-go/internal/cache"
	"github.com/jengzang/mobility-backend-go/internal/dataset"
	"github.com/jengzang/mobility-backend-go/internal/logger"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/pipeline"
	"github.com/jengzang/mobility-backend-go/internal/spatial"
	"github.com/jengzang/mobility-backend-go/internal/stats"
)

var (
	// ErrNoData is returned when a query has nothing to show
	ErrNoData = errors.New("no data available")
	// ErrNotFound is returned for an unknown commune or region code
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidFilter is returned for filter values outside their domain
	ErrInvalidFilter = errors.New("invalid filter")
)

const (
	defaultTopCommunes = 10
	defaultTopRegions  = 5
)

// Sources locates the data files read by the dashboard
type Sources struct {
	Survey      string // normalized survey
	Communes    string
	Regions     string
	Departments string
}

// MobilityService computes the dashboard aggregates from the cached tables
type MobilityService struct {
	store   *cache.Store
	sources Sources
	log     *logger.Logger
}

// NewMobilityService creates a new mobility service
func NewMobilityService(store *cache.Store, sources Sources, log *logger.Logger) *MobilityService {
	return &MobilityService{store: store, sources: sources, log: log}
}

type tables struct {
	rows        []models.SurveyRow
	communes    []models.CommuneRef
	regions     []models.RegionRef
	departments []models.DepartmentRef
}

// load reads every table in parallel. A table that cannot be read is logged
// and treated as empty.
func (s *MobilityService) load(ctx context.Context) *tables {
	t := &tables{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t.rows = loadOrEmpty(gctx, s, "survey", s.sources.Survey, dataset.ReadSurvey)
		return nil
	})
	g.Go(func() error {
		t.communes = loadOrEmpty(gctx, s, "communes", s.sources.Communes, dataset.ReadCommunes)
		return nil
	})
	g.Go(func() error {
		t.regions = loadOrEmpty(gctx, s, "regions", s.sources.Regions, dataset.ReadRegions)
		return nil
	})
	g.Go(func() error {
		t.departments = loadOrEmpty(gctx, s, "departments", s.sources.Departments, dataset.ReadDepartments)
		return nil
	})
	_ = g.Wait()

	if len(t.regions) == 0 {
		t.regions = regionsFromCommunes(t.communes)
	}
	return t
}

func loadOrEmpty[T any](ctx context.Context, s *MobilityService, name, path string, read func(string) ([]T, error)) []T {
	if path == "" || ctx.Err() != nil {
		return nil
	}
	v, err := cache.Load(s.store, path, read)
	if err != nil {
		s.log.Warn("Data source unavailable, using an empty table", "source", name, "path", path, "error", err)
		return nil
	}
	return v
}

// regionsFromCommunes derives a region list when no region reference exists
func regionsFromCommunes(communes []models.CommuneRef) []models.RegionRef {
	byCode := make(map[string]*models.RegionRef)
	var order []string
	for _, c := range communes {
		if c.Region == "" {
			continue
		}
		r, ok := byCode[c.Region]
		if !ok {
			r = &models.RegionRef{Code: c.Region, Name: c.Region}
			byCode[c.Region] = r
			order = append(order, c.Region)
		}
		r.CommuneCount++
		r.Population += c.Population
	}
	sort.Strings(order)

	out := make([]models.RegionRef, 0, len(order))
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	return out
}

// GlobalStats returns the corpus-wide shares, cached for the configured TTL.
// The computation is shared by concurrent callers, so it does not stop when the
// caller that started it goes away.
func (s *MobilityService) GlobalStats(ctx context.Context) (models.GlobalStats, error) {
	return cache.Remember(s.store, "global_stats", func() (models.GlobalStats, error) {
		t := s.load(context.WithoutCancel(ctx))
		g := pipeline.ComputeGlobalStats(t.rows)
		s.log.Debug("Computed global statistics", "rows", g.RowCount, "total_weight", g.TotalWeight)
		return g, nil
	})
}

func parseAge(age string) (pipeline.AgeBracket, error) {
	b, err := pipeline.ParseAgeBracket(age)
	if err != nil {
		return pipeline.AgeNone, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return b, nil
}

func (s *MobilityService) aggregate(ctx context.Context, t *tables, parts []pipeline.Partition, age pipeline.AgeBracket) []models.EntityAggregate {
	g, _ := s.GlobalStats(ctx)
	return pipeline.AggregateEntities(parts, t.rows, pipeline.AggregateOptions{
		Age:             age,
		MeanCommuteTime: g.MeanCommuteTime,
	})
}

// Communes returns the commune aggregates matching the filter, ranked by f.Sort
func (s *MobilityService) Communes(ctx context.Context, f models.EntityFilter) ([]models.EntityAggregate, error) {
	age, err := parseAge(f.Age)
	if err != nil {
		return nil, err
	}
	if f.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidFilter)
	}

	t := s.load(ctx)
	parts := pipeline.CommunePartitions(t.communes, f.Region, f.Department)
	if q := pipeline.Fold(f.Query); q != "" {
		kept := parts[:0]
		for _, p := range parts {
			if strings.Contains(pipeline.Fold(p.Name), q) || strings.HasPrefix(strings.ToLower(p.Code), q) {
				kept = append(kept, p)
			}
		}
		parts = kept
	}

	out := s.aggregate(ctx, t, parts, age)
	pipeline.Rank(out, f.Sort)
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Commune returns the aggregate of one commune
func (s *MobilityService) Commune(ctx context.Context, code, age string) (*models.EntityAggregate, error) {
	bracket, err := parseAge(age)
	if err != nil {
		return nil, err
	}

	t := s.load(ctx)
	code = dataset.PadCode(code, pipeline.CodeWidth(models.VarResidence))
	for _, c := range t.communes {
		if c.Code != code {
			continue
		}
		// the result set is the whole filtered cohort, so the commute scale is
		// the same as in the list view
		all := s.aggregate(ctx, t, pipeline.CommunePartitions(t.communes, "", ""), bracket)
		for i := range all {
			if all[i].Code == code {
				return &all[i], nil
			}
		}
		return nil, fmt.Errorf("%w: commune %s", ErrNoData, code)
	}
	return nil, fmt.Errorf("%w: commune %s", ErrNotFound, code)
}

// Regions returns the region aggregates, ranked by f.Sort
func (s *MobilityService) Regions(ctx context.Context, f models.EntityFilter) ([]models.EntityAggregate, error) {
	age, err := parseAge(f.Age)
	if err != nil {
		return nil, err
	}

	t := s.load(ctx)
	out := s.aggregate(ctx, t, pipeline.RegionPartitions(t.regions, t.communes), age)
	pipeline.Rank(out, f.Sort)
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Region returns the aggregate of one region
func (s *MobilityService) Region(ctx context.Context, code, age string) (*models.EntityAggregate, error) {
	all, err := s.Regions(ctx, models.EntityFilter{Age: age})
	if err != nil {
		return nil, err
	}
	code = dataset.RegionCode(code)
	for i := range all {
		if all[i].Code == code {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: region %s", ErrNotFound, code)
}

// TopCommunes returns the best n communes, 10 by default
func (s *MobilityService) TopCommunes(ctx context.Context, f models.TopFilter) ([]models.EntityAggregate, error) {
	n, err := topN(f.N, defaultTopCommunes)
	if err != nil {
		return nil, err
	}
	f.EntityFilter.Limit = 0
	all, err := s.Communes(ctx, f.EntityFilter)
	if err != nil {
		return nil, err
	}
	return pipeline.Top(all, n, f.SortBy), nil
}

// TopRegions returns the best n regions, 5 by default
func (s *MobilityService) TopRegions(ctx context.Context, f models.TopFilter) ([]models.EntityAggregate, error) {
	n, err := topN(f.N, defaultTopRegions)
	if err != nil {
		return nil, err
	}
	f.EntityFilter.Limit = 0
	all, err := s.Regions(ctx, f.EntityFilter)
	if err != nil {
		return nil, err
	}
	return pipeline.Top(all, n, f.SortBy), nil
}

func topN(n, def int) (int, error) {
	switch {
	case n < 0:
		return 0, fmt.Errorf("%w: n must not be negative", ErrInvalidFilter)
	case n == 0:
		return def, nil
	}
	return n, nil
}

// CommuneSummary describes the distribution of the indices over a commune set
type CommuneSummary struct {
	Count           int           `json:"count"`
	Underserved     int           `json:"underserved"`
	TotalPopulation float64       `json:"total_population"`
	GreenMobility   stats.Summary `json:"green_mobility_index"`
	CommuteTime     stats.Summary `json:"avg_commute_time"`
	BikeUsage       stats.Summary `json:"velo_percentage"`
	PublicTransit   stats.Summary `json:"transport_commun_percentage"`
}

// Summary computes the five-number summaries of the communes matching f
func (s *MobilityService) Summary(ctx context.Context, f models.EntityFilter) (*CommuneSummary, error) {
	f.Limit = 0
	communes, err := s.Communes(ctx, f)
	if err != nil {
		return nil, err
	}

	green := make([]float64, len(communes))
	commute := make([]float64, len(communes))
	bike := make([]float64, len(communes))
	transit := make([]float64, len(communes))
	out := &CommuneSummary{Count: len(communes)}
	for i, c := range communes {
		green[i] = c.GreenMobilityIndex
		commute[i] = c.AvgCommuteTime
		bike[i] = c.VeloPercentage
		transit[i] = c.TransportCommunPercentage
		out.TotalPopulation += c.Population
		if c.Underserved() {
			out.Underserved++
		}
	}
	out.GreenMobility = stats.Summarize(green, 1)
	out.CommuteTime = stats.Summarize(commute, 1)
	out.BikeUsage = stats.Summarize(bike, 1)
	out.PublicTransit = stats.Summarize(transit, 1)
	return out, nil
}

// RegionOptions lists the regions for filter selectors, sorted by name
func (s *MobilityService) RegionOptions(ctx context.Context) []models.Option {
	t := s.load(ctx)
	out := make([]models.Option, 0, len(t.regions))
	for _, r := range t.regions {
		out = append(out, models.Option{Code: r.Code, Name: r.Name})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pipeline.Fold(out[i].Name) < pipeline.Fold(out[j].Name)
	})
	return out
}

// DepartmentOptions lists the departments, optionally of one region, sorted by code.
// Without a department reference they are derived from the communes.
func (s *MobilityService) DepartmentOptions(ctx context.Context, region string) []models.Option {
	t := s.load(ctx)
	region = dataset.RegionCode(region)

	seen := make(map[string]bool)
	var out []models.Option
	add := func(code, name, reg string) {
		if code == "" || seen[code] || (region != "" && reg != region) {
			return
		}
		seen[code] = true
		if name == "" || name == code {
			if known := spatial.DepartmentName(code); known != "" {
				name = known
			} else {
				name = code
			}
		}
		out = append(out, models.Option{Code: code, Name: name})
	}

	if len(t.departments) > 0 {
		for _, d := range t.departments {
			add(d.Code, d.Name, d.Region)
		}
	} else {
		for _, c := range t.communes {
			add(c.Department, "", c.Region)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if out == nil {
		out = []models.Option{}
	}
	return out
}

// AgeRanges lists the age brackets with the labels found in the survey
func (s *MobilityService) AgeRanges(ctx context.Context) []pipeline.AgeRange {
	return pipeline.AgeRanges(s.load(ctx).rows)
}

// TransportTypes lists the transport categories with the labels found in the survey
func (s *MobilityService) TransportTypes(ctx context.Context) []pipeline.TransportType {
	return pipeline.TransportTypes(s.load(ctx).rows)
}

// ClearCache drops every cached table and statistic
func (s *MobilityService) ClearCache() {
	s.store.Clear()
	s.log.Info("Cache cleared")
}
