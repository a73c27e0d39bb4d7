package api

type ServiceEntityApiDTO struct {
	UUID            string `json:"uuid"`
	DisplayName     string `json:"displayName"`
	ClassName       string `json:"className"`
	EnvironmentType string `json:"environmentType,omitempty"`
	State           string `json:"state,omitempty"`
}

type GroupApiDTO struct {
	UUID           string   `json:"uuid"`
	DisplayName    string   `json:"displayName"`
	ClassName      string   `json:"className,omitempty"`
	GroupType      string   `json:"groupType,omitempty"`
	IsStatic       bool     `json:"isStatic"`
	EntitiesCount  int      `json:"entitiesCount,omitempty"`
	MemberUuidList []string `json:"memberUuidList,omitempty"`
}

type GroupApiInputDTO struct {
	DisplayName    string   `json:"displayName"`
	GroupType      string   `json:"groupType"`
	IsStatic       bool     `json:"isStatic"`
	MemberUuidList []string `json:"memberUuidList"`
}
