package domain

// CriticalEntity is an entity retained after filtering and ranking critical actions
type CriticalEntity struct {
	UUID        string
	ClassName   string
	DisplayName string
	RankScore   float64
	// Carried is set when the entity comes from the previous run's group
	// and was not part of the current top-N.
	Carried bool
	// NegativeDelta marks a delta-ranked action proposing a decrease.
	NegativeDelta bool
}

func NewCriticalEntity(e Entity, score float64) CriticalEntity {
	return CriticalEntity{
		UUID:        e.UUID,
		ClassName:   e.ClassName,
		DisplayName: e.DisplayName,
		RankScore:   score,
	}
}

// CriticalList is ordered by rank, carried entities last
type CriticalList []CriticalEntity

func (l CriticalList) Contains(uuid string) bool {
	for _, e := range l {
		if e.UUID == uuid {
			return true
		}
	}
	return false
}

func (l CriticalList) Carried() CriticalList {
	var carried CriticalList
	for _, e := range l {
		if e.Carried {
			carried = append(carried, e)
		}
	}
	return carried
}
