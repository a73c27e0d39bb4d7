package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

// Kind selects the formula used to score critical actions
type Kind string

const (
	// KindUtilization scores by stat capacity average over value average
	KindUtilization Kind = "utilization"
	// KindDelta scores by the size of the proposed change (new - current)
	KindDelta Kind = "delta"
)

// SentinelScore ranks entities whose utilization cannot be computed last
const SentinelScore = -1.0

var kinds = []Kind{KindUtilization, KindDelta}

func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ranking kind %q, expected one of %v", s, kinds)
}

// Ranker scores the filtered critical actions of a commodity
type Ranker interface {
	Kind() Kind
	Score(ctx context.Context, commodity string, actions []domain.Action) ([]domain.CriticalEntity, error)
}

// StatsSource provides entity statistics for utilization ranking
type StatsSource interface {
	GetEntityStats(ctx context.Context, uuids []string, commodity, relatedType string) ([]domain.EntityStats, error)
}

// New builds the ranker for kind. stats is only consulted by KindUtilization.
func New(kind Kind, stats StatsSource, relatedType string) (Ranker, error) {
	switch kind {
	case KindUtilization:
		if stats == nil {
			return nil, fmt.Errorf("utilization ranking requires a stats source")
		}
		return NewUtilizationRanker(stats, relatedType), nil
	case KindDelta:
		return NewDeltaRanker(), nil
	default:
		return nil, fmt.Errorf("unknown ranking kind %q", kind)
	}
}

// Rank scores the actions and orders them by descending score. Ties keep input order.
func Rank(ctx context.Context, r Ranker, commodity string, actions []domain.Action) (domain.CriticalList, error) {
	entities, err := r.Score(ctx, commodity, actions)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].RankScore > entities[j].RankScore
	})
	return entities, nil
}
