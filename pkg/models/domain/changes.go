package domain

// ChangeEvent is a single change applied (or planned) to a platform group
type ChangeEvent struct {
	GroupName string
	Message   string
}

type ChangeCategory struct {
	Total  int
	Events []ChangeEvent
}

// ChangeSummary maps a change category (e.g. "Groups Created") to its events
type ChangeSummary map[string]*ChangeCategory

func (s ChangeSummary) Add(category, groupName, message string) {
	c, ok := s[category]
	if !ok {
		c = &ChangeCategory{}
		s[category] = c
	}
	c.Total++
	c.Events = append(c.Events, ChangeEvent{GroupName: groupName, Message: message})
}

func (s ChangeSummary) Total(category string) int {
	if c, ok := s[category]; ok {
		return c.Total
	}
	return 0
}
