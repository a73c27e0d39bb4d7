package turbotest

import (
	"strconv"

	"github.com/de-tools/turbo-critical/pkg/models/api"
)

func VM(uuid, name string) api.ServiceEntityApiDTO {
	return api.ServiceEntityApiDTO{UUID: uuid, DisplayName: name, ClassName: "VirtualMachine"}
}

// ResizeAction builds a critical resize action for the target
func ResizeAction(target api.ServiceEntityApiDTO, commodity string, current, proposed float64) api.ActionApiDTO {
	return api.ActionApiDTO{
		UUID:         "action-" + target.UUID + "-" + commodity,
		ActionType:   "RESIZE",
		ActionMode:   "MANUAL",
		CurrentValue: strconv.FormatFloat(current, 'f', -1, 64),
		NewValue:     strconv.FormatFloat(proposed, 'f', -1, 64),
		Target:       target,
		Risk: &api.RiskApiDTO{
			SubCategory:     "Performance Assurance",
			Severity:        "CRITICAL",
			ReasonCommodity: commodity,
		},
	}
}

// CommodityStats builds a single-snapshot stats record for the entity
func CommodityStats(target api.ServiceEntityApiDTO, commodity string, capacityAvg, valueAvg float64) api.EntityStatsApiDTO {
	return api.EntityStatsApiDTO{
		UUID:        target.UUID,
		DisplayName: target.DisplayName,
		ClassName:   target.ClassName,
		Stats: []api.StatSnapshotApiDTO{{
			Statistics: []api.StatApiDTO{{
				Name:     commodity,
				Capacity: &api.StatValueApiDTO{Avg: capacityAvg},
				Values:   &api.StatValueApiDTO{Avg: valueAvg},
			}},
		}},
	}
}
