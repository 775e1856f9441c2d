package services

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/database"
	"github.com/silpredict/silpredict/internal/measurement"
	"github.com/silpredict/silpredict/internal/metrics"
)

// MeasurementService evaluates incoming measurements against the threshold
// profile, persists them, and raises alerts for non-normal results.
type MeasurementService struct {
	db      *gorm.DB
	profile *measurement.Profile
	alerts  *AlertService
}

// NewMeasurementService creates a new MeasurementService
func NewMeasurementService(db *gorm.DB, profile *measurement.Profile) *MeasurementService {
	return &MeasurementService{
		db:      db,
		profile: profile,
		alerts:  NewAlertService(db),
	}
}

// Ingest evaluates and stores one measurement. A non-normal overall status
// raises an alert; the created alert is returned, or nil when the
// measurement is normal.
func (s *MeasurementService) Ingest(m *measurement.Measurement) (*database.Alert, error) {
	s.evaluate(m)

	record := database.MeasurementFromDomain(m)
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to store measurement: %w", err)
	}
	m.ID = record.ID

	if m.Status == measurement.StatusNormal || m.Status == measurement.StatusUnknown {
		return nil, nil
	}
	return s.raiseAlert(m)
}

// IngestThermography builds a thermography measurement from its spot
// temperatures and ingests it.
func (s *MeasurementService) IngestThermography(equipmentID string, ts time.Time, points []measurement.ThermographyPoint) (*measurement.Measurement, *database.Alert, error) {
	m := measurement.Thermography("", equipmentID, ts, points, s.profile.Thermography)
	alert, err := s.Ingest(m)
	return m, alert, err
}

// IngestOilAnalysis builds an oil-analysis measurement from a lab sample and
// ingests it.
func (s *MeasurementService) IngestOilAnalysis(equipmentID string, ts time.Time, sample measurement.OilSample) (*measurement.Measurement, *database.Alert, error) {
	m := measurement.OilAnalysis("", equipmentID, ts, sample, s.profile.OilAnalysis)
	alert, err := s.Ingest(m)
	return m, alert, err
}

// IngestVibration builds a vibration measurement from per-axis readings and
// ingests it.
func (s *MeasurementService) IngestVibration(equipmentID string, ts time.Time, axes []measurement.VibrationAxis) (*measurement.Measurement, *database.Alert, error) {
	m := measurement.Vibration("", equipmentID, ts, axes, s.profile.Vibration)
	alert, err := s.Ingest(m)
	return m, alert, err
}

// evaluate applies the profile bands to every reading and derives the
// overall status.
func (s *MeasurementService) evaluate(m *measurement.Measurement) {
	for i := range m.Readings {
		band := s.profile.BandFor(m.Source, m.Readings[i].Name)
		m.Readings[i].Status = band.Evaluate(m.Readings[i].Value)
	}
	m.Status = m.OverallStatus()
}

// GravityFor maps a measurement status to the gravity of the alert it raises
func GravityFor(status measurement.Status) alerts.Gravity {
	switch status {
	case measurement.StatusCritical:
		return alerts.GravityP1
	case measurement.StatusAlert:
		return alerts.GravityP2
	default:
		return alerts.GravityP3
	}
}

// raiseAlert creates the alert for a non-normal measurement. The alert
// inherits the criticality configured on the equipment.
func (s *MeasurementService) raiseAlert(m *measurement.Measurement) (*database.Alert, error) {
	var eq database.Equipment
	if err := s.db.First(&eq, "id = ?", m.EquipmentID).Error; err != nil {
		return nil, fmt.Errorf("failed to load equipment %s for alert: %w", m.EquipmentID, err)
	}

	alert := &database.Alert{
		EquipmentID:       m.EquipmentID,
		Timestamp:         m.Timestamp,
		MeasurementID:     m.ID,
		MeasurementSource: m.Source,
		Description:       describeBreach(m),
		Gravity:           GravityFor(m.Status),
		Criticality:       eq.Criticality,
		Status:            alerts.StatusNew,
	}
	if err := s.alerts.Create(alert); err != nil {
		return nil, err
	}
	metrics.ObserveAlertRaised(string(alert.Gravity))
	return alert, nil
}

// describeBreach names the breached quantities, most severe first. Identical
// measurements produce identical descriptions so recurrences group into
// failure patterns.
func describeBreach(m *measurement.Measurement) string {
	breached := make([]measurement.Reading, 0, len(m.Readings))
	for _, r := range m.Readings {
		if r.Status != measurement.StatusNormal && r.Status != measurement.StatusUnknown {
			breached = append(breached, r)
		}
	}
	sort.Slice(breached, func(i, j int) bool {
		if breached[i].Status.Severity() != breached[j].Status.Severity() {
			return breached[i].Status.Severity() > breached[j].Status.Severity()
		}
		return breached[i].Name < breached[j].Name
	})

	if len(breached) == 0 {
		return fmt.Sprintf("%s measurement in %s state", m.Source, m.Status)
	}

	out := fmt.Sprintf("%s %s:", m.Source, m.Status)
	for i, r := range breached {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(" %s %s", r.Name, r.Status)
	}
	return out
}
