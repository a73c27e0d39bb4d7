package domain

type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

type ActionType string

const (
	ActionTypeResize    ActionType = "RESIZE"
	ActionTypeMove      ActionType = "MOVE"
	ActionTypeProvision ActionType = "PROVISION"
	ActionTypeSuspend   ActionType = "SUSPEND"
)

type ActionMode string

const (
	ActionModeRecommend        ActionMode = "RECOMMEND"
	ActionModeManual           ActionMode = "MANUAL"
	ActionModeAutomatic        ActionMode = "AUTOMATIC"
	ActionModeExternalApproval ActionMode = "EXTERNAL_APPROVAL"
)

// Action is a recommendation reported by the platform for a single entity
type Action struct {
	UUID            string
	TargetUUID      string
	TargetClassName string
	TargetName      string
	ActionType      ActionType
	ActionMode      ActionMode
	Severity        Severity
	ReasonCommodity string // VCPU, VMem, ...
	CurrentValue    string // reported as text by the platform
	NewValue        string
}

// Target returns the entity the action applies to
func (a Action) Target() Entity {
	return Entity{
		UUID:        a.TargetUUID,
		ClassName:   a.TargetClassName,
		DisplayName: a.TargetName,
	}
}
