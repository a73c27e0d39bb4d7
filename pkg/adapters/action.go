package adapters

import (
	"github.com/de-tools/turbo-critical/pkg/models/api"
	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

func MapApiActionToDomainAction(dto api.ActionApiDTO) domain.Action {
	action := domain.Action{
		UUID:            dto.UUID,
		TargetUUID:      dto.Target.UUID,
		TargetClassName: dto.Target.ClassName,
		TargetName:      dto.Target.DisplayName,
		ActionType:      domain.ActionType(dto.ActionType),
		ActionMode:      domain.ActionMode(dto.ActionMode),
		CurrentValue:    dto.CurrentValue,
		NewValue:        dto.NewValue,
	}
	if dto.Risk != nil {
		action.Severity = domain.Severity(dto.Risk.Severity)
		action.ReasonCommodity = dto.Risk.ReasonCommodity
	}
	return action
}

func MapApiActionsToDomainActions(dtos []api.ActionApiDTO) []domain.Action {
	actions := make([]domain.Action, 0, len(dtos))
	for _, dto := range dtos {
		actions = append(actions, MapApiActionToDomainAction(dto))
	}
	return actions
}
