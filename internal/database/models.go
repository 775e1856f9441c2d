package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/measurement"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// ReadingList stores a measurement's readings as a JSONB array
type ReadingList []measurement.Reading

// Scan implements the sql.Scanner interface
func (r *ReadingList) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, r)
}

// Value implements the driver.Valuer interface
func (r ReadingList) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// FloatMap stores vendor-specific numeric fields as a JSONB object
type FloatMap map[string]float64

// Scan implements the sql.Scanner interface
func (f *FloatMap) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, f)
}

// Value implements the driver.Valuer interface
func (f FloatMap) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Client represents a customer owning monitored equipment
type Client struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

// BeforeCreate assigns an ID when none is set
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Equipment represents a monitored asset
type Equipment struct {
	ID             string                   `gorm:"primaryKey;size:36" json:"id"`
	Tag            string                   `gorm:"uniqueIndex;size:64;not null" json:"tag"`
	Name           string                   `gorm:"size:255;not null" json:"name"`
	Type           equipment.Type           `gorm:"type:varchar(50);not null;index" json:"type"`
	Model          string                   `gorm:"size:255" json:"model"`
	Manufacturer   string                   `gorm:"size:255" json:"manufacturer"`
	ClientID       string                   `gorm:"size:36;not null;index" json:"client_id"`
	TrackingStatus equipment.TrackingStatus `gorm:"type:varchar(50);default:'NOT_TRACKED'" json:"tracking_status"`
	Criticality    alerts.Criticality       `gorm:"type:varchar(20);default:'MEDIUM'" json:"criticality"`
	Latitude       float64                  `json:"latitude"`
	Longitude      float64                  `json:"longitude"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

func (Equipment) TableName() string {
	return "equipment"
}

// BeforeCreate assigns an ID when none is set
func (e *Equipment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// ToInfo converts the row to the engine-facing view
func (e *Equipment) ToInfo() *equipment.Info {
	return &equipment.Info{
		ID:             e.ID,
		Tag:            e.Tag,
		Name:           e.Name,
		Type:           e.Type,
		ClientID:       e.ClientID,
		TrackingStatus: e.TrackingStatus,
		Criticality:    e.Criticality,
		Latitude:       e.Latitude,
		Longitude:      e.Longitude,
	}
}

// Alert represents a persisted threshold-crossing event
type Alert struct {
	ID                string             `gorm:"primaryKey;size:36" json:"id"`
	EquipmentID       string             `gorm:"size:36;not null;index" json:"equipment_id"`
	Timestamp         time.Time          `gorm:"not null;index" json:"timestamp"`
	MeasurementID     string             `gorm:"size:36;index" json:"measurement_id"`
	MeasurementSource measurement.Source `gorm:"type:varchar(50)" json:"measurement_source"`
	Description       string             `gorm:"type:text;not null" json:"description"`
	Gravity           alerts.Gravity     `gorm:"type:varchar(10);not null;index" json:"gravity"`
	Criticality       alerts.Criticality `gorm:"type:varchar(20);not null" json:"criticality"`
	Status            alerts.Status      `gorm:"type:varchar(30);not null;default:'NEW';index" json:"status"`
	AssignedTo        string             `gorm:"size:255" json:"assigned_to"`
	ResolutionDetails string             `gorm:"type:text" json:"resolution_details"`

	// Validation verdict. FilterResult holds the full result document;
	// IsValidated marks that the filter has run at least once.
	IsValidated     bool  `gorm:"default:false;index" json:"is_validated"`
	IsFalsePositive bool  `gorm:"default:false" json:"is_false_positive"`
	FilterResult    JSONB `gorm:"type:jsonb" json:"filter_result"`

	// ManualOverride marks a human-set verdict that automated re-runs must
	// leave alone.
	ManualOverride bool `gorm:"default:false" json:"manual_override"`

	Metadata  JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Alert) TableName() string {
	return "alerts"
}

// BeforeCreate assigns an ID and timestamp when none are set
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}

// ToDomain converts the row to the engine-facing alert
func (a *Alert) ToDomain() *alerts.Alert {
	return &alerts.Alert{
		ID:                a.ID,
		EquipmentID:       a.EquipmentID,
		Timestamp:         a.Timestamp,
		MeasurementID:     a.MeasurementID,
		MeasurementSource: a.MeasurementSource,
		Description:       a.Description,
		Gravity:           a.Gravity,
		Criticality:       a.Criticality,
		Status:            a.Status,
		AssignedTo:        a.AssignedTo,
		ResolutionDetails: a.ResolutionDetails,
		ManualOverride:    a.ManualOverride,
		Metadata:          a.Metadata,
	}
}

// AlertFromDomain builds a row from an engine-side alert
func AlertFromDomain(a *alerts.Alert) *Alert {
	return &Alert{
		ID:                a.ID,
		EquipmentID:       a.EquipmentID,
		Timestamp:         a.Timestamp,
		MeasurementID:     a.MeasurementID,
		MeasurementSource: a.MeasurementSource,
		Description:       a.Description,
		Gravity:           a.Gravity,
		Criticality:       a.Criticality,
		Status:            a.Status,
		AssignedTo:        a.AssignedTo,
		ResolutionDetails: a.ResolutionDetails,
		ManualOverride:    a.ManualOverride,
		Metadata:          JSONB(a.Metadata),
	}
}

// MaintenanceRecord represents one maintenance intervention
type MaintenanceRecord struct {
	ID             string                    `gorm:"primaryKey;size:36" json:"id"`
	EquipmentID    string                    `gorm:"size:36;not null;index" json:"equipment_id"`
	Timestamp      time.Time                 `gorm:"not null;index" json:"timestamp"`
	Type           equipment.MaintenanceType `gorm:"type:varchar(50);not null" json:"type"`
	Description    string                    `gorm:"type:text" json:"description"`
	Technician     string                    `gorm:"size:255" json:"technician"`
	RelatedAlertID string                    `gorm:"size:36;index" json:"related_alert_id"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

// BeforeCreate assigns an ID when none is set
func (m *MaintenanceRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// ToDomain converts the row to the engine-facing record
func (m *MaintenanceRecord) ToDomain() equipment.MaintenanceRecord {
	return equipment.MaintenanceRecord{
		ID:             m.ID,
		EquipmentID:    m.EquipmentID,
		Timestamp:      m.Timestamp,
		Type:           m.Type,
		Description:    m.Description,
		Technician:     m.Technician,
		RelatedAlertID: m.RelatedAlertID,
	}
}

// MeasurementRecord represents one persisted measurement session
type MeasurementRecord struct {
	ID          string             `gorm:"primaryKey;size:36" json:"id"`
	EquipmentID string             `gorm:"size:36;not null;index" json:"equipment_id"`
	Timestamp   time.Time          `gorm:"not null;index" json:"timestamp"`
	Source      measurement.Source `gorm:"type:varchar(50);not null;index" json:"source"`
	Status      measurement.Status `gorm:"type:varchar(20);not null" json:"status"`
	Readings    ReadingList        `gorm:"type:jsonb" json:"readings"`
	Extra       FloatMap           `gorm:"type:jsonb" json:"extra"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (MeasurementRecord) TableName() string {
	return "measurement_records"
}

// BeforeCreate assigns an ID when none is set
func (m *MeasurementRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// ToDomain converts the row to the engine-facing measurement
func (m *MeasurementRecord) ToDomain() *measurement.Measurement {
	return &measurement.Measurement{
		ID:          m.ID,
		EquipmentID: m.EquipmentID,
		Timestamp:   m.Timestamp,
		Source:      m.Source,
		Status:      m.Status,
		Readings:    []measurement.Reading(m.Readings),
		Extra:       map[string]float64(m.Extra),
	}
}

// MeasurementFromDomain builds a row from an engine-side measurement
func MeasurementFromDomain(m *measurement.Measurement) *MeasurementRecord {
	return &MeasurementRecord{
		ID:          m.ID,
		EquipmentID: m.EquipmentID,
		Timestamp:   m.Timestamp,
		Source:      m.Source,
		Status:      m.Status,
		Readings:    ReadingList(m.Readings),
		Extra:       FloatMap(m.Extra),
	}
}
