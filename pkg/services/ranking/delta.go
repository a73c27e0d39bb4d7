package ranking

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

type deltaRanker struct{}

func NewDeltaRanker() Ranker {
	return deltaRanker{}
}

func (deltaRanker) Kind() Kind {
	return KindDelta
}

// Score uses the proposed increase. Decreases keep their negative score and are flagged.
func (deltaRanker) Score(_ context.Context, commodity string, actions []domain.Action) ([]domain.CriticalEntity, error) {
	entities := make([]domain.CriticalEntity, 0, len(actions))
	for _, a := range actions {
		delta, err := Delta(a)
		if err != nil {
			return nil, fmt.Errorf("invalid %s action %s on %s: %w", commodity, a.UUID, a.TargetUUID, err)
		}

		entity := domain.NewCriticalEntity(a.Target(), delta)
		entity.NegativeDelta = delta < 0
		entities = append(entities, entity)
	}
	return entities, nil
}

func Delta(a domain.Action) (float64, error) {
	current, err := strconv.ParseFloat(strings.TrimSpace(a.CurrentValue), 64)
	if err != nil {
		return 0, fmt.Errorf("current value %q: %w", a.CurrentValue, err)
	}
	proposed, err := strconv.ParseFloat(strings.TrimSpace(a.NewValue), 64)
	if err != nil {
		return 0, fmt.Errorf("new value %q: %w", a.NewValue, err)
	}
	return proposed - current, nil
}
