package adapters

import (
	"github.com/de-tools/turbo-critical/pkg/models/api"
	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

func MapApiEntityStatsToDomain(dto api.EntityStatsApiDTO) domain.EntityStats {
	stats := domain.EntityStats{
		Entity: domain.Entity{
			UUID:        dto.UUID,
			ClassName:   dto.ClassName,
			DisplayName: dto.DisplayName,
		},
		Snapshots: make([]domain.StatSnapshot, 0, len(dto.Stats)),
	}

	for _, snapshot := range dto.Stats {
		s := domain.StatSnapshot{Date: snapshot.Date}
		for _, stat := range snapshot.Statistics {
			s.Statistics = append(s.Statistics, mapApiStat(stat))
		}
		stats.Snapshots = append(stats.Snapshots, s)
	}
	return stats
}

func mapApiStat(dto api.StatApiDTO) domain.Statistic {
	stat := domain.Statistic{
		Name:  dto.Name,
		Units: dto.Units,
	}
	if dto.Capacity != nil {
		stat.CapacityAvg = dto.Capacity.Avg
	}
	if dto.Values != nil {
		stat.ValueAvg = dto.Values.Avg
	}
	return stat
}
