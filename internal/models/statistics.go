package models

// GlobalStats represents corpus-wide shares over the normalized survey.
// JSON keys follow the labels used by the dashboard since its first version.
type GlobalStats struct {
	ShareNoTransport   float64 `json:"pourcentage_sans_transport"`
	MeanCommuteTime    float64 `json:"pourcentage_temps_moyen"`
	ShareBike          float64 `json:"pourcentage_velo"`
	SharePublicTransit float64 `json:"pourcentage_transport_commun"`
	TotalWeight        float64 `json:"total_weight"`
	RowCount           int     `json:"row_count"`
}

// EntityKind distinguishes commune and region aggregates
type EntityKind string

const (
	EntityCommune EntityKind = "commune"
	EntityRegion  EntityKind = "region"
)

// EntityAggregate represents the transport breakdown of one commune or region.
// Computed per request, never persisted.
type EntityAggregate struct {
	Kind       EntityKind `json:"kind"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Department string     `json:"department,omitempty"`
	Region     string     `json:"region,omitempty"`

	CommuneCount        int     `json:"commune_count,omitempty"`
	Population          float64 `json:"population"`           // adjusted for the age filter
	ReferencePopulation float64 `json:"reference_population"` // as published
	TotalWeight         float64 `json:"total_weight"`
	RowCount            int     `json:"row_count"`

	VeloPercentage            float64 `json:"velo_percentage"`
	VoiturePercentage         float64 `json:"voiture_percentage"`
	TransportCommunPercentage float64 `json:"transport_commun_percentage"`
	MarchePercentage          float64 `json:"marche_percentage"`
	DeuxRouesPercentage       float64 `json:"deux_roues_percentage"`
	PasTransportPercentage    float64 `json:"pas_transport_percentage"`

	GreenMobilityIndex float64 `json:"green_mobility_index"`
	AvgCommuteTime     float64 `json:"avg_commute_time"`
}

// Underserved reports whether the entity has little green mobility or many
// commuters without transport.
func (e EntityAggregate) Underserved() bool {
	return e.GreenMobilityIndex < 20 || e.PasTransportPercentage > 15
}
