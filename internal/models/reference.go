package models

// CommuneRef is one row of the commune demographic reference
type CommuneRef struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Region     string  `json:"region"`
	Population float64 `json:"population"`
}

// RegionRef is one row of the region demographic reference
type RegionRef struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	CommuneCount int     `json:"commune_count"`
	Population   float64 `json:"population"`
}

// DepartmentRef is one row of the department demographic reference
type DepartmentRef struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Region     string  `json:"region"`
	Population float64 `json:"population"`
}

// Option is a code/label pair offered to filter selectors
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
