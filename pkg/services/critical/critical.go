package critical

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
	"github.com/de-tools/turbo-critical/pkg/services/ranking"
)

// Platform is the part of the Turbonomic API the critical list is built from
type Platform interface {
	ranking.StatsSource
	ListGroups(ctx context.Context) ([]domain.Group, error)
	GetGroupByName(ctx context.Context, name string) (*domain.Group, error)
	GetEntityActions(ctx context.Context, uuid string) ([]domain.Action, error)
	GetEntity(ctx context.Context, uuid string) (*domain.Entity, error)
	ListActions(ctx context.Context) ([]domain.Action, error)
}

type Settings struct {
	// EntityType restricts ranking to targets of this class; empty keeps all
	EntityType string
}

func DefaultSettings() Settings {
	return Settings{EntityType: domain.ClassVirtualMachine}
}

type Service struct {
	platform Platform
	registry ranking.Registry
	settings Settings
}

func NewService(platform Platform, registry ranking.Registry, settings Settings) *Service {
	return &Service{
		platform: platform,
		registry: registry,
		settings: settings,
	}
}

// PreviousCriticalList returns the members of groupName whose action still awaits
// external approval. A missing group yields an empty list.
func (s *Service) PreviousCriticalList(ctx context.Context, groupName string) (domain.CriticalList, error) {
	logger := zerolog.Ctx(ctx).With().Str("group", groupName).Logger()

	groups, err := s.platform.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	if !containsGroup(groups, groupName) {
		logger.Debug().Msg("group does not exist yet, no previous critical list")
		return domain.CriticalList{}, nil
	}

	group, err := s.platform.GetGroupByName(ctx, groupName)
	if err != nil {
		return nil, err
	}

	pending := domain.CriticalList{}
	for _, uuid := range group.MemberUUIDs {
		actions, err := s.platform.GetEntityActions(ctx, uuid)
		if err != nil {
			return nil, err
		}
		if len(actions) == 0 || actions[0].ActionMode != domain.ActionModeExternalApproval {
			logger.Debug().Str("uuid", uuid).Msg("member no longer pending approval")
			continue
		}

		entity, err := s.platform.GetEntity(ctx, uuid)
		if err != nil {
			return nil, err
		}
		pending = append(pending, domain.NewCriticalEntity(*entity, 0))
	}

	logger.Debug().Int("members", len(group.MemberUUIDs)).Int("pending", len(pending)).Msg("previous critical list")
	return pending, nil
}

// CurrentCriticalList ranks the critical resize actions of commodity, keeps the top count
// and appends previous entities that did not make the cut.
func (s *Service) CurrentCriticalList(
	ctx context.Context,
	commodity string,
	count int,
	previous domain.CriticalList,
) (domain.CriticalList, error) {
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", count)
	}
	kind, err := s.registry.Lookup(commodity)
	if err != nil {
		return nil, err
	}
	ranker, err := ranking.New(kind, s.platform, s.settings.EntityType)
	if err != nil {
		return nil, err
	}

	actions, err := s.platform.ListActions(ctx)
	if err != nil {
		return nil, err
	}
	critical := FilterCritical(actions, commodity, s.settings.EntityType)
	if len(critical) > 0 {
		// stats are requested with the platform's spelling of the commodity
		commodity = critical[0].ReasonCommodity
	}

	zerolog.Ctx(ctx).Debug().
		Str("commodity", commodity).
		Str("ranking", string(kind)).
		Int("actions", len(actions)).
		Int("critical", len(critical)).
		Msg("ranking critical actions")

	ranked, err := ranking.Rank(ctx, ranker, commodity, critical)
	if err != nil {
		return nil, err
	}

	return Merge(Truncate(ranked, count), previous), nil
}

// FilterCritical keeps critical resize actions triggered by commodity, one per target.
// Commodity names are compared without case.
func FilterCritical(actions []domain.Action, commodity, entityType string) []domain.Action {
	seen := make(map[string]struct{})
	var critical []domain.Action
	for _, a := range actions {
		if a.ReasonCommodity == "" || !strings.EqualFold(a.ReasonCommodity, commodity) {
			continue
		}
		if a.Severity != domain.SeverityCritical || a.ActionType != domain.ActionTypeResize {
			continue
		}
		if entityType != "" && a.TargetClassName != entityType {
			continue
		}
		if _, dup := seen[a.TargetUUID]; dup {
			continue
		}
		seen[a.TargetUUID] = struct{}{}
		critical = append(critical, a)
	}
	return critical
}

func Truncate(list domain.CriticalList, count int) domain.CriticalList {
	if len(list) <= count {
		return list
	}
	return list[:count]
}

// Merge appends every previous entity whose UUID is absent from current, marked as carried.
// The result may exceed the length of current.
func Merge(current, previous domain.CriticalList) domain.CriticalList {
	merged := make(domain.CriticalList, 0, len(current)+len(previous))
	merged = append(merged, current...)
	for _, p := range previous {
		if merged.Contains(p.UUID) {
			continue
		}
		p.Carried = true
		merged = append(merged, p)
	}
	return merged
}

func containsGroup(groups []domain.Group, name string) bool {
	for _, g := range groups {
		if g.DisplayName == name {
			return true
		}
	}
	return false
}
