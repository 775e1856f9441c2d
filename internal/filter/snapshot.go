package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/measurement"
)

// HistoryStore provides the historical context the validator scores against.
// Implemented by the database layer; tests use in-memory fakes.
type HistoryStore interface {
	Equipment(ctx context.Context, equipmentID string) (*equipment.Info, error)
	RecentAlerts(ctx context.Context, equipmentID string, since time.Time) ([]alerts.Alert, error)
	RecentMeasurements(ctx context.Context, equipmentID string, since time.Time) (map[measurement.Source][]*measurement.Measurement, error)
	FalsePositiveRate(ctx context.Context, equipmentID, description string, window time.Duration) (float64, error)
}

// Snapshot is the prefetched history bundle one validation runs against.
// Building it is the only part of validation that touches storage; scoring
// itself is pure.
type Snapshot struct {
	Equipment          *equipment.Info
	RecentAlerts       []alerts.Alert
	RecentMeasurements map[measurement.Source][]*measurement.Measurement

	// FalsePositiveRates holds the historical false-positive ratio per alert
	// description, over the configured rate window.
	FalsePositiveRates map[string]float64
}

// BuildSnapshot fetches the history bundle for one equipment. Descriptions
// lists the alert descriptions whose false-positive rates are needed, so a
// batch over many alerts of the same equipment still issues one fetch per
// concern.
func (v *Validator) BuildSnapshot(ctx context.Context, store HistoryStore, equipmentID string, descriptions []string) (*Snapshot, error) {
	eq, err := store.Equipment(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment %s: %w", equipmentID, err)
	}

	since := time.Now().UTC().Add(-v.cfg.HistoryWindow)

	recentAlerts, err := store.RecentAlerts(ctx, equipmentID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent alerts for %s: %w", equipmentID, err)
	}

	recentMeasurements, err := store.RecentMeasurements(ctx, equipmentID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent measurements for %s: %w", equipmentID, err)
	}

	rates := make(map[string]float64, len(descriptions))
	for _, desc := range descriptions {
		if _, ok := rates[desc]; ok {
			continue
		}
		rate, err := store.FalsePositiveRate(ctx, equipmentID, desc, v.cfg.RateWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to load false positive rate for %s: %w", equipmentID, err)
		}
		rates[desc] = rate
	}

	return &Snapshot{
		Equipment:          eq,
		RecentAlerts:       recentAlerts,
		RecentMeasurements: recentMeasurements,
		FalsePositiveRates: rates,
	}, nil
}

// measurementFor returns the measurement that generated the alert, when it is
// present in the snapshot window.
func (s *Snapshot) measurementFor(alert *alerts.Alert) *measurement.Measurement {
	if alert.MeasurementID == "" {
		return nil
	}
	for _, batch := range s.RecentMeasurements {
		for _, m := range batch {
			if m.ID == alert.MeasurementID {
				return m
			}
		}
	}
	return nil
}

// alertsExcluding returns the snapshot's recent alerts minus the alert under
// validation, so an alert never counts as its own precedent.
func (s *Snapshot) alertsExcluding(alertID string) []alerts.Alert {
	out := make([]alerts.Alert, 0, len(s.RecentAlerts))
	for _, a := range s.RecentAlerts {
		if a.ID == alertID {
			continue
		}
		out = append(out, a)
	}
	return out
}
