package models

// EntityFilter represents filter parameters for querying commune and region aggregates
type EntityFilter struct {
	Region     string `form:"region"`     // REG code
	Department string `form:"department"` // DEP code
	Age        string `form:"age"`        // 0-18, 19-35, 36-50, 51-65, 65+
	Query      string `form:"q"`          // name search, accent-insensitive
	Sort       string `form:"sort"`       // any aggregate field, descending
	Limit      int    `form:"limit"`
}

// TopFilter selects the n best entities by one field
type TopFilter struct {
	EntityFilter
	N      int    `form:"n"`
	SortBy string `form:"sort_by"`
}

// IsZero reports whether no filter is active
func (f EntityFilter) IsZero() bool {
	return f.Region == "" && f.Department == "" && f.Age == "" && f.Query == ""
}
