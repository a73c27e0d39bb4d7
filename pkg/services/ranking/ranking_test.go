package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

type mockStatsSource struct {
	mock.Mock
}

func (m *mockStatsSource) GetEntityStats(
	ctx context.Context,
	uuids []string,
	commodity, relatedType string,
) ([]domain.EntityStats, error) {
	args := m.Called(ctx, uuids, commodity, relatedType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EntityStats), args.Error(1)
}

func resize(uuid, commodity, current, proposed string) domain.Action {
	return domain.Action{
		UUID:            "action-" + uuid,
		TargetUUID:      uuid,
		TargetClassName: domain.ClassVirtualMachine,
		TargetName:      "vm-" + uuid,
		ActionType:      domain.ActionTypeResize,
		Severity:        domain.SeverityCritical,
		ReasonCommodity: commodity,
		CurrentValue:    current,
		NewValue:        proposed,
	}
}

func vcpuStats(uuid string, capacityAvg, valueAvg float64) domain.EntityStats {
	return domain.EntityStats{
		Entity: domain.Entity{UUID: uuid, ClassName: domain.ClassVirtualMachine},
		Snapshots: []domain.StatSnapshot{{
			Statistics: []domain.Statistic{{Name: "VCPU", CapacityAvg: capacityAvg, ValueAvg: valueAvg}},
		}},
	}
}

func scores(list domain.CriticalList) []float64 {
	out := make([]float64, 0, len(list))
	for _, e := range list {
		out = append(out, e.RankScore)
	}
	return out
}

func uuids(list domain.CriticalList) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.UUID)
	}
	return out
}

func TestUtilizationRanker(t *testing.T) {
	ctx := context.Background()

	t.Run("capacity over value, zero value is ranked last", func(t *testing.T) {
		// Given
		actions := []domain.Action{
			resize("zero", "VCPU", "2", "4"),
			resize("two", "VCPU", "2", "4"),
			resize("four", "VCPU", "2", "4"),
		}
		stats := new(mockStatsSource)
		stats.On("GetEntityStats", ctx, []string{"zero", "two", "four"}, "VCPU", "VirtualMachine").
			Return([]domain.EntityStats{
				vcpuStats("zero", 4, 0),
				vcpuStats("two", 4, 2),
				vcpuStats("four", 4, 4),
			}, nil)
		r := NewUtilizationRanker(stats, "VirtualMachine")

		// When
		scored, err := r.Score(ctx, "VCPU", actions)
		require.NoError(t, err)
		ranked, err := Rank(ctx, r, "VCPU", actions)
		require.NoError(t, err)

		// Then
		assert.Equal(t, []float64{-1, 2, 1}, scores(scored))
		assert.Equal(t, []string{"two", "four", "zero"}, uuids(ranked))
		assert.Equal(t, []float64{2, 1, -1}, scores(ranked))
		stats.AssertExpectations(t)
	})

	t.Run("entity missing from stats gets the sentinel", func(t *testing.T) {
		actions := []domain.Action{resize("a", "VCPU", "1", "2"), resize("b", "VCPU", "1", "2")}
		stats := new(mockStatsSource)
		stats.On("GetEntityStats", ctx, mock.Anything, "VCPU", "VirtualMachine").
			Return([]domain.EntityStats{vcpuStats("b", 8, 2)}, nil)

		ranked, err := Rank(ctx, NewUtilizationRanker(stats, "VirtualMachine"), "VCPU", actions)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, uuids(ranked))
		assert.Equal(t, []float64{4, SentinelScore}, scores(ranked))
	})

	t.Run("no actions makes no stats call", func(t *testing.T) {
		stats := new(mockStatsSource)
		ranked, err := Rank(ctx, NewUtilizationRanker(stats, "VirtualMachine"), "VCPU", nil)
		require.NoError(t, err)
		assert.Empty(t, ranked)
		stats.AssertNotCalled(t, "GetEntityStats")
	})

	t.Run("stats error propagates", func(t *testing.T) {
		stats := new(mockStatsSource)
		stats.On("GetEntityStats", ctx, mock.Anything, "VCPU", "VirtualMachine").
			Return(nil, errors.New("boom"))

		_, err := Rank(ctx, NewUtilizationRanker(stats, "VirtualMachine"), "VCPU", []domain.Action{resize("a", "VCPU", "1", "2")})
		assert.ErrorContains(t, err, "boom")
	})
}

func TestUtilizationScore(t *testing.T) {
	t.Run("latest snapshot wins", func(t *testing.T) {
		stats := domain.EntityStats{Snapshots: []domain.StatSnapshot{
			{Statistics: []domain.Statistic{{Name: "VCPU", CapacityAvg: 4, ValueAvg: 1}}},
			{Statistics: []domain.Statistic{{Name: "VCPU", CapacityAvg: 4, ValueAvg: 2}}},
		}}
		assert.Equal(t, 2.0, UtilizationScore(stats, "VCPU"))
	})

	t.Run("latest snapshot without the commodity", func(t *testing.T) {
		stats := domain.EntityStats{Snapshots: []domain.StatSnapshot{
			{Statistics: []domain.Statistic{{Name: "VCPU", CapacityAvg: 4, ValueAvg: 1}}},
			{Statistics: []domain.Statistic{{Name: "VMem", CapacityAvg: 4, ValueAvg: 2}}},
		}}
		assert.Equal(t, SentinelScore, UtilizationScore(stats, "VCPU"))
	})

	t.Run("no snapshots", func(t *testing.T) {
		assert.Equal(t, SentinelScore, UtilizationScore(domain.EntityStats{}, "VCPU"))
	})
}

func TestDeltaRanker(t *testing.T) {
	ctx := context.Background()

	t.Run("larger increase ranks first", func(t *testing.T) {
		actions := []domain.Action{
			resize("first", "VMem", "10", "20"),
			resize("second", "VMem", "5", "30"),
		}

		scored, err := NewDeltaRanker().Score(ctx, "VMem", actions)
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 25}, scores(scored))

		ranked, err := Rank(ctx, NewDeltaRanker(), "VMem", actions)
		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, uuids(ranked))
	})

	t.Run("decrease keeps its negative score and is flagged", func(t *testing.T) {
		actions := []domain.Action{
			resize("shrink", "VMem", "8", "6"),
			resize("grow", "VMem", "8", "9"),
		}

		ranked, err := Rank(ctx, NewDeltaRanker(), "VMem", actions)
		require.NoError(t, err)
		assert.Equal(t, []string{"grow", "shrink"}, uuids(ranked))
		assert.Equal(t, -2.0, ranked[1].RankScore)
		assert.True(t, ranked[1].NegativeDelta)
		assert.False(t, ranked[0].NegativeDelta)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		actions := []domain.Action{
			resize("a", "VMem", "1", "2"),
			resize("b", "VMem", "1", "2"),
			resize("c", "VMem", "1", "2"),
		}
		ranked, err := Rank(ctx, NewDeltaRanker(), "VMem", actions)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, uuids(ranked))
	})

	t.Run("malformed value", func(t *testing.T) {
		_, err := NewDeltaRanker().Score(ctx, "VMem", []domain.Action{resize("a", "VMem", "n/a", "2")})
		assert.ErrorContains(t, err, "current value")
	})
}

func TestNew(t *testing.T) {
	r, err := New(KindDelta, nil, "")
	require.NoError(t, err)
	assert.Equal(t, KindDelta, r.Kind())

	r, err = New(KindUtilization, new(mockStatsSource), "VirtualMachine")
	require.NoError(t, err)
	assert.Equal(t, KindUtilization, r.Kind())

	_, err = New(KindUtilization, nil, "VirtualMachine")
	assert.Error(t, err)

	_, err = New(Kind("median"), nil, "")
	assert.Error(t, err)
}
