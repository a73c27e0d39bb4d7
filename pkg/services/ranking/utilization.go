package ranking

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

type utilizationRanker struct {
	stats       StatsSource
	relatedType string
}

func NewUtilizationRanker(stats StatsSource, relatedType string) Ranker {
	return &utilizationRanker{stats: stats, relatedType: relatedType}
}

func (r *utilizationRanker) Kind() Kind {
	return KindUtilization
}

// Score fetches the commodity stats of all targets in one call. Targets without
// usable stats get SentinelScore.
func (r *utilizationRanker) Score(
	ctx context.Context,
	commodity string,
	actions []domain.Action,
) ([]domain.CriticalEntity, error) {
	if len(actions) == 0 {
		return nil, nil
	}

	uuids := make([]string, 0, len(actions))
	for _, a := range actions {
		uuids = append(uuids, a.TargetUUID)
	}

	stats, err := r.stats.GetEntityStats(ctx, uuids, commodity, r.relatedType)
	if err != nil {
		return nil, fmt.Errorf("failed to collect %s stats: %w", commodity, err)
	}
	byUUID := make(map[string]domain.EntityStats, len(stats))
	for _, st := range stats {
		byUUID[st.Entity.UUID] = st
	}

	entities := make([]domain.CriticalEntity, 0, len(actions))
	for _, a := range actions {
		score := SentinelScore
		if st, ok := byUUID[a.TargetUUID]; ok {
			score = UtilizationScore(st, commodity)
		}
		entities = append(entities, domain.NewCriticalEntity(a.Target(), score))
	}
	return entities, nil
}

// UtilizationScore is capacity avg / value avg of the commodity in the latest snapshot.
// A missing statistic or a zero value average yields SentinelScore.
func UtilizationScore(stats domain.EntityStats, commodity string) float64 {
	score := SentinelScore
	for _, snapshot := range stats.Snapshots {
		score = SentinelScore
		for _, stat := range snapshot.Statistics {
			if !strings.EqualFold(stat.Name, commodity) {
				continue
			}
			if stat.ValueAvg != 0 {
				score = stat.CapacityAvg / stat.ValueAvg
			}
			break
		}
	}
	return score
}
