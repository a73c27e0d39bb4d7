package api

type ActionApiDTO struct {
	UUID         string              `json:"uuid"`
	ActionType   string              `json:"actionType"`
	ActionMode   string              `json:"actionMode"`
	ActionState  string              `json:"actionState,omitempty"`
	Details      string              `json:"details,omitempty"`
	CurrentValue string              `json:"currentValue,omitempty"`
	NewValue     string              `json:"newValue,omitempty"`
	ValueUnits   string              `json:"valueUnits,omitempty"`
	Target       ServiceEntityApiDTO `json:"target"`
	Risk         *RiskApiDTO         `json:"risk,omitempty"`
}

type RiskApiDTO struct {
	SubCategory     string  `json:"subCategory,omitempty"`
	Description     string  `json:"description,omitempty"`
	Severity        string  `json:"severity"`
	Importance      float64 `json:"importance,omitempty"`
	ReasonCommodity string  `json:"reasonCommodity,omitempty"`
}
