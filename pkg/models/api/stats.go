package api

type EntityStatsApiDTO struct {
	UUID        string               `json:"uuid"`
	DisplayName string               `json:"displayName"`
	ClassName   string               `json:"className"`
	Stats       []StatSnapshotApiDTO `json:"stats"`
}

type StatSnapshotApiDTO struct {
	Date       string       `json:"date,omitempty"`
	Statistics []StatApiDTO `json:"statistics"`
}

type StatApiDTO struct {
	Name     string           `json:"name"`
	Units    string           `json:"units,omitempty"`
	Capacity *StatValueApiDTO `json:"capacity,omitempty"`
	Values   *StatValueApiDTO `json:"values,omitempty"`
}

type StatValueApiDTO struct {
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max,omitempty"`
	Min   float64 `json:"min,omitempty"`
	Total float64 `json:"total,omitempty"`
}

// StatScopesApiInputDTO is the body of POST /stats
type StatScopesApiInputDTO struct {
	Scopes      []string              `json:"scopes"`
	Period      StatPeriodApiInputDTO `json:"period"`
	RelatedType string                `json:"relatedType,omitempty"`
}

type StatPeriodApiInputDTO struct {
	StartDate  string            `json:"startDate,omitempty"`
	EndDate    string            `json:"endDate,omitempty"`
	Statistics []StatApiInputDTO `json:"statistics"`
}

type StatApiInputDTO struct {
	Name string `json:"name"`
}
