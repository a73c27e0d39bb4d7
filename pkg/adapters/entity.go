package adapters

import (
	"slices"

	"github.com/de-tools/turbo-critical/pkg/models/api"
	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

func MapApiEntityToDomainEntity(dto api.ServiceEntityApiDTO) domain.Entity {
	return domain.Entity{
		UUID:        dto.UUID,
		ClassName:   dto.ClassName,
		DisplayName: dto.DisplayName,
	}
}

func MapApiGroupToDomainGroup(dto api.GroupApiDTO) domain.Group {
	return domain.Group{
		UUID:        dto.UUID,
		DisplayName: dto.DisplayName,
		GroupType:   dto.GroupType,
		IsStatic:    dto.IsStatic,
		MemberUUIDs: slices.Clone(dto.MemberUuidList),
	}
}

func MapDomainGroupSpecToApiInput(spec domain.GroupSpec) api.GroupApiInputDTO {
	members := slices.Clone(spec.MemberUUIDs)
	if members == nil {
		members = []string{}
	}
	return api.GroupApiInputDTO{
		DisplayName:    spec.DisplayName,
		GroupType:      spec.GroupType,
		IsStatic:       true,
		MemberUuidList: members,
	}
}
