package models

// Coded variables of the mobility survey, as named in the modality reference table
const (
	VarResidence = "COMMUNE" // commune of residence
	VarWorkplace = "DCLT"    // commune of work
	VarMode      = "TRANS"   // main transport mode
	VarAge       = "AGEREVQ" // age bracket (five-year)
	VarUrbanUnit = "ILTUU"   // urban unit of the workplace
	ColWeight    = "IPONDI"  // individual weight
)

// ModalityRow maps a coded value of a survey variable to its label
type ModalityRow struct {
	Variable string `json:"variable"`
	Code     string `json:"code"`
	Label    string `json:"label"`
}

// SurveyRow represents one weighted commuter of the mobility survey.
// Raw codes and decoded labels are kept side by side.
type SurveyRow struct {
	ResidenceCode string `json:"residence_code"`
	Residence     string `json:"residence"`
	WorkplaceCode string `json:"workplace_code"`
	Workplace     string `json:"workplace"`
	ModeCode      string `json:"mode_code"`
	Mode          string `json:"mode"`
	AgeCode       string `json:"age_code"`
	Age           string `json:"age"`
	UrbanUnitCode string `json:"urban_unit_code"`
	UrbanUnit     string `json:"urban_unit"`

	Weight float64 `json:"weight"` // population equivalent, always summed
}
