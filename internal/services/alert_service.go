package services

import (
	"encoding/json"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/database"
	"github.com/silpredict/silpredict/internal/filter"
)

// AlertService manages the alert lifecycle and persists validation verdicts
type AlertService struct {
	db *gorm.DB
}

// NewAlertService creates a new AlertService
func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

// Create persists a new alert
func (s *AlertService) Create(alert *database.Alert) error {
	if err := s.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// Get retrieves an alert by ID
func (s *AlertService) Get(id string) (*database.Alert, error) {
	var row database.Alert
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByEquipment returns an equipment's alerts, newest first
func (s *AlertService) ListByEquipment(equipmentID string) ([]database.Alert, error) {
	var rows []database.Alert
	err := s.db.
		Where("equipment_id = ?", equipmentID).
		Order("timestamp desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByStatus returns all alerts in the given lifecycle state, oldest first
func (s *AlertService) ListByStatus(status alerts.Status) ([]database.Alert, error) {
	var rows []database.Alert
	err := s.db.
		Where("status = ?", status).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Acknowledge moves a NEW alert to ACKNOWLEDGED and assigns the operator
func (s *AlertService) Acknowledge(id, operator string) (*database.Alert, error) {
	return s.transition(id, func(a *alerts.Alert) error {
		return a.Assign(operator)
	})
}

// StartWork moves an ACKNOWLEDGED alert to IN_PROGRESS
func (s *AlertService) StartWork(id string) (*database.Alert, error) {
	return s.transition(id, func(a *alerts.Alert) error {
		return a.Transition(alerts.StatusInProgress, "")
	})
}

// Resolve closes an alert with the mandatory resolution details
func (s *AlertService) Resolve(id, details string) (*database.Alert, error) {
	return s.transition(id, func(a *alerts.Alert) error {
		return a.Transition(alerts.StatusResolved, details)
	})
}

// MarkFalsePositive closes an alert as a human-confirmed false positive.
// Sets the manual override so automated re-validation leaves the verdict
// alone.
func (s *AlertService) MarkFalsePositive(id, details string) (*database.Alert, error) {
	return s.transition(id, func(a *alerts.Alert) error {
		if err := a.Transition(alerts.StatusFalsePositive, details); err != nil {
			return err
		}
		a.ManualOverride = true
		return nil
	})
}

// transition loads an alert, applies the lifecycle change on the domain
// object, and persists the affected fields.
func (s *AlertService) transition(id string, apply func(*alerts.Alert) error) (*database.Alert, error) {
	row, err := s.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert %s: %w", id, err)
	}

	domain := row.ToDomain()
	if err := apply(domain); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":             domain.Status,
		"assigned_to":        domain.AssignedTo,
		"resolution_details": domain.ResolutionDetails,
		"manual_override":    domain.ManualOverride,
	}
	if domain.Status == alerts.StatusFalsePositive {
		updates["is_false_positive"] = true
	}
	if err := s.db.Model(row).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update alert %s: %w", id, err)
	}
	return row, nil
}

// ApplyFilterResult persists one validation verdict. Alerts with a manual
// override keep their human-set verdict; the run is recorded as validated
// either way so the filter does not retry forever.
func (s *AlertService) ApplyFilterResult(result *filter.Result) error {
	row, err := s.Get(result.AlertID)
	if err != nil {
		return fmt.Errorf("failed to load alert %s: %w", result.AlertID, err)
	}

	if row.ManualOverride {
		log.Printf("Alert %s has a manual verdict, skipping automated result", row.ID)
		return s.db.Model(row).Update("is_validated", true).Error
	}

	doc, err := resultDocument(result)
	if err != nil {
		return fmt.Errorf("failed to encode filter result for alert %s: %w", result.AlertID, err)
	}

	updates := map[string]interface{}{
		"is_validated":      true,
		"is_false_positive": result.IsFalsePositive,
		"filter_result":     doc,
	}
	if err := s.db.Model(row).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to persist filter result for alert %s: %w", result.AlertID, err)
	}
	return nil
}

// resultDocument converts a filter result to the JSONB document shape
func resultDocument(result *filter.Result) (database.JSONB, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var doc database.JSONB
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
