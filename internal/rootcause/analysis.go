package rootcause

import (
	"time"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/measurement"
)

// Priority of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
)

// FailurePattern is a recurring, textually identical alert description
type FailurePattern struct {
	Description          string         `json:"description"`
	Occurrences          int            `json:"occurrences"`
	FirstOccurrence      time.Time      `json:"first_occurrence"`
	LastOccurrence       time.Time      `json:"last_occurrence"`
	AverageIntervalHours float64        `json:"average_interval_hours"`
	PredominantGravity   alerts.Gravity `json:"predominant_gravity"`
	AlertIDs             []string       `json:"alert_ids"`
}

// MaintenanceMatch links one alert occurrence to a maintenance record that
// followed it within the correlation window.
type MaintenanceMatch struct {
	AlertID       string                    `json:"alert_id"`
	MaintenanceID string                    `json:"maintenance_id"`
	TimeDiffHours float64                   `json:"time_diff_hours"`
	Type          equipment.MaintenanceType `json:"maintenance_type"`
	Description   string                    `json:"maintenance_description"`
}

// MaintenanceCorrelation groups the maintenance matches of one pattern
type MaintenanceCorrelation struct {
	PatternDescription string             `json:"pattern_description"`
	Matches            []MaintenanceMatch `json:"matches"`
}

// AnomalousMeasurement is a non-normal measurement recorded shortly before
// one of a pattern's alerts.
type AnomalousMeasurement struct {
	MeasurementID    string             `json:"measurement_id"`
	Source           measurement.Source `json:"source"`
	Timestamp        time.Time          `json:"timestamp"`
	HoursBeforeAlert float64            `json:"hours_before_alert"`
	Status           measurement.Status `json:"status"`
	Values           map[string]float64 `json:"values"`
}

// MeasurementCorrelation groups the anomalous measurements of one pattern
type MeasurementCorrelation struct {
	PatternDescription string                 `json:"pattern_description"`
	Anomalous          []AnomalousMeasurement `json:"anomalous_measurements"`
}

// Cause is one possible root cause with its supporting evidence
type Cause struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Evidence    string  `json:"evidence"`
}

// Recommendation is a preventive action derived from a cause
type Recommendation struct {
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Analysis is the root-cause result for one equipment over one period
type Analysis struct {
	EquipmentID             string                   `json:"equipment_id"`
	EquipmentType           equipment.Type           `json:"equipment_type"`
	PeriodStart             time.Time                `json:"period_start"`
	PeriodEnd               time.Time                `json:"period_end"`
	AlertCount              int                      `json:"alert_count"`
	MaintenanceCount        int                      `json:"maintenance_count"`
	Patterns                []FailurePattern         `json:"failure_patterns"`
	MaintenanceCorrelations []MaintenanceCorrelation `json:"maintenance_correlations,omitempty"`
	MeasurementCorrelations []MeasurementCorrelation `json:"measurement_correlations,omitempty"`
	PossibleCauses          []Cause                  `json:"possible_causes"`
	Recommendations         []Recommendation         `json:"recommendations"`

	// Confidence is the mean confidence of the possible causes, zero when
	// no pattern produced a cause.
	Confidence float64 `json:"confidence"`

	// Narrative is the optional advisory text. Supplementary only: causes,
	// recommendations and confidence above stand without it.
	Narrative string `json:"narrative,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// AffectedEquipment names one equipment touched by a common pattern
type AffectedEquipment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommonPattern is a failure pattern recurring across equipment of one type
type CommonPattern struct {
	EquipmentType    equipment.Type      `json:"equipment_type"`
	Description      string              `json:"description"`
	EquipmentCount   int                 `json:"equipment_count"`
	TotalOccurrences int                 `json:"total_occurrences"`
	Affected         []AffectedEquipment `json:"affected_equipment"`
}

// EquipmentAnalysis wraps one equipment's analysis inside a client run.
// Error marks a per-equipment failure without aborting the batch.
type EquipmentAnalysis struct {
	EquipmentName string    `json:"equipment_name"`
	EquipmentTag  string    `json:"equipment_tag"`
	Analysis      *Analysis `json:"analysis,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// ClientAnalysis is the fleet-level result for one client
type ClientAnalysis struct {
	ClientID       string                        `json:"client_id"`
	PeriodStart    time.Time                     `json:"period_start"`
	PeriodEnd      time.Time                     `json:"period_end"`
	EquipmentCount int                           `json:"equipment_count"`
	Analyses       map[string]*EquipmentAnalysis `json:"equipment_analyses"`
	CommonPatterns []CommonPattern               `json:"common_patterns"`
}
