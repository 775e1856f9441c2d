// Package testhelpers provides the shared test database setup and data
// builders used across package test suites.
package testhelpers

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/database"
	"github.com/silpredict/silpredict/internal/equipment"
)

// SetupDB opens an in-memory database with the full schema migrated
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&database.Client{},
		&database.Equipment{},
		&database.Alert{},
		&database.MaintenanceRecord{},
		&database.MeasurementRecord{},
		&database.FilterSettings{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// ClientBuilder builds Client rows for testing
type ClientBuilder struct {
	client database.Client
}

// NewClientBuilder creates a new client builder with defaults
func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{
		client: database.Client{Name: "Test client"},
	}
}

// WithName sets the client name
func (b *ClientBuilder) WithName(name string) *ClientBuilder {
	b.client.Name = name
	return b
}

// Build returns the constructed client
func (b *ClientBuilder) Build() database.Client {
	return b.client
}

// Create persists the client and returns the stored row
func (b *ClientBuilder) Create(t *testing.T, db *gorm.DB) *database.Client {
	t.Helper()
	row := b.client
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return &row
}

// EquipmentBuilder builds Equipment rows for testing
type EquipmentBuilder struct {
	eq database.Equipment
}

// NewEquipmentBuilder creates a new equipment builder with defaults
func NewEquipmentBuilder() *EquipmentBuilder {
	return &EquipmentBuilder{
		eq: database.Equipment{
			Tag:            "P-100",
			Name:           "Feed pump",
			Type:           equipment.TypePump,
			ClientID:       "client-1",
			TrackingStatus: equipment.FullyTracked,
			Criticality:    alerts.CriticalityMedium,
		},
	}
}

// WithTag sets the equipment tag
func (b *EquipmentBuilder) WithTag(tag string) *EquipmentBuilder {
	b.eq.Tag = tag
	return b
}

// WithName sets the equipment name
func (b *EquipmentBuilder) WithName(name string) *EquipmentBuilder {
	b.eq.Name = name
	return b
}

// WithType sets the equipment type
func (b *EquipmentBuilder) WithType(t equipment.Type) *EquipmentBuilder {
	b.eq.Type = t
	return b
}

// WithClient sets the owning client ID
func (b *EquipmentBuilder) WithClient(clientID string) *EquipmentBuilder {
	b.eq.ClientID = clientID
	return b
}

// WithTrackingStatus sets the tracking status
func (b *EquipmentBuilder) WithTrackingStatus(status equipment.TrackingStatus) *EquipmentBuilder {
	b.eq.TrackingStatus = status
	return b
}

// WithCriticality sets the configured criticality
func (b *EquipmentBuilder) WithCriticality(c alerts.Criticality) *EquipmentBuilder {
	b.eq.Criticality = c
	return b
}

// WithLocation sets the coordinates
func (b *EquipmentBuilder) WithLocation(lat, lon float64) *EquipmentBuilder {
	b.eq.Latitude = lat
	b.eq.Longitude = lon
	return b
}

// Build returns the constructed equipment
func (b *EquipmentBuilder) Build() database.Equipment {
	return b.eq
}

// Create persists the equipment and returns the stored row
func (b *EquipmentBuilder) Create(t *testing.T, db *gorm.DB) *database.Equipment {
	t.Helper()
	row := b.eq
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("failed to create equipment: %v", err)
	}
	return &row
}

// AlertBuilder builds Alert rows for testing
type AlertBuilder struct {
	alert database.Alert
}

// NewAlertBuilder creates a new alert builder with defaults
func NewAlertBuilder() *AlertBuilder {
	return &AlertBuilder{
		alert: database.Alert{
			EquipmentID: "eq-1",
			Timestamp:   time.Now().UTC(),
			Description: "High vibration on drive end",
			Gravity:     alerts.GravityP3,
			Criticality: alerts.CriticalityMedium,
			Status:      alerts.StatusNew,
		},
	}
}

// WithEquipment sets the equipment ID
func (b *AlertBuilder) WithEquipment(equipmentID string) *AlertBuilder {
	b.alert.EquipmentID = equipmentID
	return b
}

// WithTimestamp sets the alert timestamp
func (b *AlertBuilder) WithTimestamp(ts time.Time) *AlertBuilder {
	b.alert.Timestamp = ts
	return b
}

// WithDescription sets the description
func (b *AlertBuilder) WithDescription(description string) *AlertBuilder {
	b.alert.Description = description
	return b
}

// WithGravity sets the gravity
func (b *AlertBuilder) WithGravity(g alerts.Gravity) *AlertBuilder {
	b.alert.Gravity = g
	return b
}

// WithCriticality sets the criticality
func (b *AlertBuilder) WithCriticality(c alerts.Criticality) *AlertBuilder {
	b.alert.Criticality = c
	return b
}

// WithStatus sets the lifecycle status
func (b *AlertBuilder) WithStatus(status alerts.Status) *AlertBuilder {
	b.alert.Status = status
	return b
}

// Validated marks the alert as already processed by the filter
func (b *AlertBuilder) Validated() *AlertBuilder {
	b.alert.IsValidated = true
	return b
}

// ManuallyOverridden marks the alert with a human-set false positive verdict
func (b *AlertBuilder) ManuallyOverridden() *AlertBuilder {
	b.alert.ManualOverride = true
	b.alert.IsFalsePositive = true
	return b
}

// Build returns the constructed alert
func (b *AlertBuilder) Build() database.Alert {
	return b.alert
}

// Create persists the alert and returns the stored row
func (b *AlertBuilder) Create(t *testing.T, db *gorm.DB) *database.Alert {
	t.Helper()
	row := b.alert
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("failed to create alert: %v", err)
	}
	return &row
}
