package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/measurement"
)

// Store exposes the read operations the validation and analysis engines
// consume. A missing equipment is reported as a nil info, not an error, so
// callers can apply their fail-open policy.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an open gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Equipment returns the engine view of one equipment, or nil when absent
func (s *Store) Equipment(ctx context.Context, equipmentID string) (*equipment.Info, error) {
	var row Equipment
	err := s.db.WithContext(ctx).First(&row, "id = ?", equipmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment %s: %w", equipmentID, err)
	}
	return row.ToInfo(), nil
}

// RecentAlerts returns the equipment's alerts since the given time
func (s *Store) RecentAlerts(ctx context.Context, equipmentID string, since time.Time) ([]alerts.Alert, error) {
	var rows []Alert
	err := s.db.WithContext(ctx).
		Where("equipment_id = ? AND timestamp >= ?", equipmentID, since).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent alerts for %s: %w", equipmentID, err)
	}
	out := make([]alerts.Alert, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// RecentMeasurements returns the equipment's measurements since the given
// time, grouped by source.
func (s *Store) RecentMeasurements(ctx context.Context, equipmentID string, since time.Time) (map[measurement.Source][]*measurement.Measurement, error) {
	var rows []MeasurementRecord
	err := s.db.WithContext(ctx).
		Where("equipment_id = ? AND timestamp >= ?", equipmentID, since).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent measurements for %s: %w", equipmentID, err)
	}
	out := make(map[measurement.Source][]*measurement.Measurement)
	for i := range rows {
		m := rows[i].ToDomain()
		out[m.Source] = append(out[m.Source], m)
	}
	return out, nil
}

// FalsePositiveRate returns the share of the equipment's alerts with the
// given description that ended as false positives within the window. No
// history at all yields zero.
func (s *Store) FalsePositiveRate(ctx context.Context, equipmentID, description string, window time.Duration) (float64, error) {
	since := time.Now().UTC().Add(-window)

	var total int64
	err := s.db.WithContext(ctx).Model(&Alert{}).
		Where("equipment_id = ? AND description = ? AND timestamp >= ?", equipmentID, description, since).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts for %s: %w", equipmentID, err)
	}
	if total == 0 {
		return 0, nil
	}

	var falseCount int64
	err = s.db.WithContext(ctx).Model(&Alert{}).
		Where("equipment_id = ? AND description = ? AND timestamp >= ? AND status = ?",
			equipmentID, description, since, alerts.StatusFalsePositive).
		Count(&falseCount).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count false positives for %s: %w", equipmentID, err)
	}

	return float64(falseCount) / float64(total), nil
}

// AlertsInRange returns the equipment's alerts inside [start, end]
func (s *Store) AlertsInRange(ctx context.Context, equipmentID string, start, end time.Time) ([]alerts.Alert, error) {
	var rows []Alert
	err := s.db.WithContext(ctx).
		Where("equipment_id = ? AND timestamp BETWEEN ? AND ?", equipmentID, start, end).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for %s: %w", equipmentID, err)
	}
	out := make([]alerts.Alert, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// MaintenanceRecordsInRange returns the equipment's maintenance inside [start, end]
func (s *Store) MaintenanceRecordsInRange(ctx context.Context, equipmentID string, start, end time.Time) ([]equipment.MaintenanceRecord, error) {
	var rows []MaintenanceRecord
	err := s.db.WithContext(ctx).
		Where("equipment_id = ? AND timestamp BETWEEN ? AND ?", equipmentID, start, end).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query maintenance records for %s: %w", equipmentID, err)
	}
	out := make([]equipment.MaintenanceRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// MeasurementsInRange returns the equipment's measurements inside [start, end]
func (s *Store) MeasurementsInRange(ctx context.Context, equipmentID string, start, end time.Time) ([]*measurement.Measurement, error) {
	var rows []MeasurementRecord
	err := s.db.WithContext(ctx).
		Where("equipment_id = ? AND timestamp BETWEEN ? AND ?", equipmentID, start, end).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements for %s: %w", equipmentID, err)
	}
	out := make([]*measurement.Measurement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ClientEquipment returns the engine views of all equipment of a client
func (s *Store) ClientEquipment(ctx context.Context, clientID string) ([]equipment.Info, error) {
	var rows []Equipment
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("tag asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment for client %s: %w", clientID, err)
	}
	out := make([]equipment.Info, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToInfo()
	}
	return out, nil
}

// UnvalidatedAlerts returns up to limit NEW alerts the filter has not
// processed yet, oldest first.
func (s *Store) UnvalidatedAlerts(ctx context.Context, limit int) ([]alerts.Alert, error) {
	var rows []Alert
	err := s.db.WithContext(ctx).
		Where("status = ? AND is_validated = ?", alerts.StatusNew, false).
		Order("timestamp asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query unvalidated alerts: %w", err)
	}
	out := make([]alerts.Alert, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// ClientIDs returns the IDs of all clients, for periodic analysis runs
func (s *Store) ClientIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Client{}).
		Order("id asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query client ids: %w", err)
	}
	return ids, nil
}
