package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/silpredict/silpredict/internal/measurement"
)

// Gravity represents the severity of the measurement breach behind an alert.
// P1 is the most severe. Gravity is a property of the reading, independent of
// how important the asset is (see Criticality).
type Gravity string

const (
	GravityP1 Gravity = "P1" // critical
	GravityP2 Gravity = "P2" // high
	GravityP3 Gravity = "P3" // medium
	GravityP4 Gravity = "P4" // low
)

// Rank returns an ordinal for gravity comparisons; lower is more severe.
func (g Gravity) Rank() int {
	switch g {
	case GravityP1:
		return 1
	case GravityP2:
		return 2
	case GravityP3:
		return 3
	case GravityP4:
		return 4
	default:
		return 5
	}
}

// Criticality represents the business importance of the asset the alert
// belongs to. Orthogonal to gravity: both feed scoring independently.
type Criticality string

const (
	CriticalityHigh   Criticality = "HIGH"
	CriticalityMedium Criticality = "MEDIUM"
	CriticalityLow    Criticality = "LOW"
)

// Status represents the lifecycle state of an alert
type Status string

const (
	StatusNew           Status = "NEW"
	StatusAcknowledged  Status = "ACKNOWLEDGED"
	StatusInProgress    Status = "IN_PROGRESS"
	StatusResolved      Status = "RESOLVED"
	StatusFalsePositive Status = "FALSE_POSITIVE"
)

// IsTerminal reports whether no further transitions are allowed
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusFalsePositive
}

// Alert identifies one threshold-crossing event on a piece of equipment
type Alert struct {
	ID                string             `json:"id"`
	EquipmentID       string             `json:"equipment_id"`
	Timestamp         time.Time          `json:"timestamp"`
	MeasurementID     string             `json:"measurement_id,omitempty"`
	MeasurementSource measurement.Source `json:"measurement_source,omitempty"`
	Description       string             `json:"description"`
	Gravity           Gravity            `json:"gravity"`
	Criticality       Criticality        `json:"criticality"`
	Status            Status             `json:"status"`
	AssignedTo        string             `json:"assigned_to,omitempty"`
	ResolutionDetails string             `json:"resolution_details,omitempty"`

	// ManualOverride marks a verdict set by a human reviewer. Automated
	// re-runs must never flip it.
	ManualOverride bool `json:"manual_override,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// New creates an alert in the NEW state with a fresh ID
func New(equipmentID, description string, gravity Gravity, criticality Criticality) *Alert {
	return &Alert{
		ID:          uuid.New().String(),
		EquipmentID: equipmentID,
		Timestamp:   time.Now().UTC(),
		Description: description,
		Gravity:     gravity,
		Criticality: criticality,
		Status:      StatusNew,
	}
}
