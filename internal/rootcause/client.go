package rootcause

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/silpredict/silpredict/internal/equipment"
)

// AnalyzeClient runs the analysis for every equipment of a client. A failure
// on one equipment is recorded as its error marker; the remaining equipment
// still get full results.
func (a *Analyzer) AnalyzeClient(ctx context.Context, clientID string, start, end time.Time) (*ClientAnalysis, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.Add(-a.cfg.Window)
	}

	fleet, err := a.store.ClientEquipment(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment for client %s: %w", clientID, err)
	}

	analyses := make(map[string]*EquipmentAnalysis, len(fleet))
	for _, eq := range fleet {
		entry := &EquipmentAnalysis{
			EquipmentName: eq.Name,
			EquipmentTag:  eq.Tag,
		}
		analysis, err := a.AnalyzeEquipment(ctx, eq.ID, start, end)
		if err != nil {
			log.Printf("Root cause analysis failed for equipment %s: %v", eq.ID, err)
			entry.Error = err.Error()
		} else {
			entry.Analysis = analysis
		}
		analyses[eq.ID] = entry
	}

	return &ClientAnalysis{
		ClientID:       clientID,
		PeriodStart:    start,
		PeriodEnd:      end,
		EquipmentCount: len(fleet),
		Analyses:       analyses,
		CommonPatterns: commonPatterns(analyses),
	}, nil
}

// commonPatterns surfaces failure descriptions recurring across two or more
// equipment of the same type, ranked by how many equipment they touch.
func commonPatterns(analyses map[string]*EquipmentAnalysis) []CommonPattern {
	type key struct {
		equipmentType equipment.Type
		description   string
	}
	type entry struct {
		affected    []AffectedEquipment
		occurrences int
	}

	grouped := make(map[key]*entry)
	ids := make([]string, 0, len(analyses))
	for id := range analyses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		ea := analyses[id]
		if ea.Analysis == nil {
			continue
		}
		for _, p := range ea.Analysis.Patterns {
			k := key{equipmentType: ea.Analysis.EquipmentType, description: p.Description}
			e := grouped[k]
			if e == nil {
				e = &entry{}
				grouped[k] = e
			}
			e.affected = append(e.affected, AffectedEquipment{ID: id, Name: ea.EquipmentName})
			e.occurrences += p.Occurrences
		}
	}

	var out []CommonPattern
	for k, e := range grouped {
		if len(e.affected) < 2 {
			continue
		}
		out = append(out, CommonPattern{
			EquipmentType:    k.equipmentType,
			Description:      k.description,
			EquipmentCount:   len(e.affected),
			TotalOccurrences: e.occurrences,
			Affected:         e.affected,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EquipmentCount != out[j].EquipmentCount {
			return out[i].EquipmentCount > out[j].EquipmentCount
		}
		return out[i].Description < out[j].Description
	})
	return out
}
