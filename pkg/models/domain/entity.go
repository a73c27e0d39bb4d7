package domain

import "fmt"

const ClassVirtualMachine = "VirtualMachine"

type Entity struct {
	UUID        string
	ClassName   string // VirtualMachine
	DisplayName string
}

func (e Entity) String() string {
	return fmt.Sprintf("%s:%s(%s)", e.ClassName, e.DisplayName, e.UUID)
}

// Group is a named collection of entities on the platform
type Group struct {
	UUID        string
	DisplayName string
	GroupType   string // class of the members
	IsStatic    bool
	MemberUUIDs []string
}

// GroupSpec describes the desired state of a static group
type GroupSpec struct {
	DisplayName string
	GroupType   string
	MemberUUIDs []string
}

type EntityStats struct {
	Entity    Entity
	Snapshots []StatSnapshot
}

type StatSnapshot struct {
	Date       string
	Statistics []Statistic
}

type Statistic struct {
	Name        string // commodity name
	CapacityAvg float64
	ValueAvg    float64
	Units       string
}
