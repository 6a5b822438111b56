package handler

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/pipeline"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageRows caps the commune table of the communes page
const pageRows = 200

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// PageHandler renders the dashboard pages
type PageHandler struct {
	service *service.MobilityService
}

// NewPageHandler creates a new page handler
func NewPageHandler(service *service.MobilityService) *PageHandler {
	return &PageHandler{service: service}
}

type listPage struct {
	Title       string
	Filter      models.EntityFilter
	Query       template.URL
	Regions     []models.Option
	Departments []models.Option
	AgeRanges   []pipeline.AgeRange
	Entities    []models.EntityAggregate
	Count       int
}

func filterQuery(f models.EntityFilter) template.URL {
	q := url.Values{}
	for k, v := range map[string]string{"region": f.Region, "department": f.Department, "age": f.Age, "q": f.Query} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return template.URL(q.Encode())
}

// Index handles GET /
func (h *PageHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.service.GlobalStats(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	communes, err := h.service.TopCommunes(ctx, models.TopFilter{})
	if err != nil {
		writeError(c, err)
		return
	}
	regions, err := h.service.TopRegions(ctx, models.TopFilter{})
	if err != nil {
		writeError(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":       "Mobilité Domicile-Travail",
		"Stats":       stats,
		"TopCommunes": communes,
		"TopRegions":  regions,
	})
}

// Communes handles GET /mobilite/communes
func (h *PageHandler) Communes(c *gin.Context) {
	var filter models.EntityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	filter.Limit = 0

	ctx := c.Request.Context()
	communes, err := h.service.Communes(ctx, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	page := listPage{
		Title:       "Mobilité par Commune",
		Filter:      filter,
		Query:       filterQuery(filter),
		Regions:     h.service.RegionOptions(ctx),
		Departments: h.service.DepartmentOptions(ctx, filter.Region),
		AgeRanges:   h.service.AgeRanges(ctx),
		Entities:    communes,
		Count:       len(communes),
	}
	if len(page.Entities) > pageRows {
		page.Entities = page.Entities[:pageRows]
	}
	c.HTML(http.StatusOK, "communes.html", page)
}

// Regions handles GET /mobilite/regions
func (h *PageHandler) Regions(c *gin.Context) {
	filter := models.EntityFilter{Age: c.Query("age"), Sort: c.Query("sort")}

	ctx := c.Request.Context()
	regions, err := h.service.Regions(ctx, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.HTML(http.StatusOK, "regions.html", listPage{
		Title:     "Mobilité par Région",
		Filter:    filter,
		Query:     filterQuery(filter),
		AgeRanges: h.service.AgeRanges(ctx),
		Entities:  regions,
		Count:     len(regions),
	})
}
