// Package equipment defines the asset-side domain types consumed by the
// validation and analysis engines.
package equipment

import (
	"time"

	"github.com/silpredict/silpredict/internal/alerts"
)

// Type classifies the monitored asset
type Type string

const (
	TypeMotor       Type = "MOTOR"
	TypePump        Type = "PUMP"
	TypeCompressor  Type = "COMPRESSOR"
	TypeGenerator   Type = "GENERATOR"
	TypeTransformer Type = "TRANSFORMER"
	TypeOther       Type = "OTHER"
)

// TrackingStatus describes how completely an equipment is instrumented.
// Sparsely instrumented equipment produces noisier alarms.
type TrackingStatus string

const (
	FullyTracked     TrackingStatus = "FULLY_TRACKED"
	PartiallyTracked TrackingStatus = "PARTIALLY_TRACKED"
	MinimallyTracked TrackingStatus = "MINIMALLY_TRACKED"
	NotTracked       TrackingStatus = "NOT_TRACKED"
)

// MaintenanceType classifies a maintenance intervention
type MaintenanceType string

const (
	MaintenancePreventive     MaintenanceType = "PREVENTIVE"
	MaintenanceCorrective     MaintenanceType = "CORRECTIVE"
	MaintenancePredictive     MaintenanceType = "PREDICTIVE"
	MaintenanceConditionBased MaintenanceType = "CONDITION_BASED"
)

// Info is the equipment view the engines consume. It carries only the fields
// scoring and correlation need; full asset records stay in storage.
type Info struct {
	ID             string         `json:"id"`
	Tag            string         `json:"tag"`
	Name           string         `json:"name"`
	Type           Type           `json:"type"`
	ClientID       string         `json:"client_id"`
	TrackingStatus TrackingStatus `json:"tracking_status"`

	// Criticality is the business importance configured for the asset.
	// Alerts generated from this equipment inherit it.
	Criticality alerts.Criticality `json:"criticality"`

	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// MaintenanceRecord is one maintenance intervention on an equipment
type MaintenanceRecord struct {
	ID             string          `json:"id"`
	EquipmentID    string          `json:"equipment_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Type           MaintenanceType `json:"type"`
	Description    string          `json:"description"`
	Technician     string          `json:"technician,omitempty"`
	RelatedAlertID string          `json:"related_alert_id,omitempty"`
}
