package filter

import (
	"context"

	"github.com/silpredict/silpredict/internal/alerts"
)

// FilterBatch validates a batch of alerts, fetching exactly one history
// snapshot per distinct equipment. A snapshot fetch failure marks only the
// alerts of that equipment as valid-by-default; the rest of the batch is
// unaffected. Results come back in input order.
func (v *Validator) FilterBatch(ctx context.Context, store HistoryStore, batch []*alerts.Alert) []*Result {
	byEquipment := make(map[string][]string)
	for _, a := range batch {
		byEquipment[a.EquipmentID] = append(byEquipment[a.EquipmentID], a.Description)
	}

	snapshots := make(map[string]*Snapshot, len(byEquipment))
	failures := make(map[string]string)
	for equipmentID, descriptions := range byEquipment {
		snap, err := v.BuildSnapshot(ctx, store, equipmentID, descriptions)
		if err != nil {
			failures[equipmentID] = err.Error()
			continue
		}
		snapshots[equipmentID] = snap
	}

	results := make([]*Result, 0, len(batch))
	for _, a := range batch {
		if reason, failed := failures[a.EquipmentID]; failed {
			results = append(results, v.failOpen(a, reason))
			continue
		}
		results = append(results, v.Validate(a, snapshots[a.EquipmentID]))
	}
	return results
}
