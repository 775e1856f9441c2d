package measurement

import "time"

// Status represents the evaluated condition of a measurement
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusAlert    Status = "alert"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

// Severity returns an ordinal rank for a status; higher is more severe.
// Unknown ranks below normal so it never wins a most-severe comparison.
func (s Status) Severity() int {
	switch s {
	case StatusNormal:
		return 1
	case StatusWarning:
		return 2
	case StatusAlert:
		return 3
	case StatusCritical:
		return 4
	default:
		return 0
	}
}

// Source identifies where measurement data came from
type Source string

const (
	SourceThermography Source = "thermography"
	SourceOilAnalysis  Source = "oil_analysis"
	SourceVibration    Source = "vibration"
	SourceManual       Source = "manual"
	SourceAutomated    Source = "automated"
	SourceOther        Source = "other"
)

// Threshold holds the optional alarm bands for a single measured quantity.
// A nil bound never fires.
type Threshold struct {
	WarningLow   *float64 `yaml:"warning_low" json:"warning_low,omitempty"`
	WarningHigh  *float64 `yaml:"warning_high" json:"warning_high,omitempty"`
	AlertLow     *float64 `yaml:"alert_low" json:"alert_low,omitempty"`
	AlertHigh    *float64 `yaml:"alert_high" json:"alert_high,omitempty"`
	CriticalLow  *float64 `yaml:"critical_low" json:"critical_low,omitempty"`
	CriticalHigh *float64 `yaml:"critical_high" json:"critical_high,omitempty"`
}

// Evaluate maps a value to a status. Critical bands are checked before alert
// bands, and alert before warning, so a value breaching several bands always
// resolves to the most severe one. Total: always returns a status.
func (t Threshold) Evaluate(value float64) Status {
	if t.CriticalLow != nil && value <= *t.CriticalLow {
		return StatusCritical
	}
	if t.CriticalHigh != nil && value >= *t.CriticalHigh {
		return StatusCritical
	}

	if t.AlertLow != nil && value <= *t.AlertLow {
		return StatusAlert
	}
	if t.AlertHigh != nil && value >= *t.AlertHigh {
		return StatusAlert
	}

	if t.WarningLow != nil && value <= *t.WarningLow {
		return StatusWarning
	}
	if t.WarningHigh != nil && value >= *t.WarningHigh {
		return StatusWarning
	}

	return StatusNormal
}

// Reading is a single named numeric reading with its evaluated status
type Reading struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Status Status  `json:"status"`
}

// Measurement is the common envelope for one measurement session of any kind
type Measurement struct {
	ID          string    `json:"id"`
	EquipmentID string    `json:"equipment_id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      Source    `json:"source"`
	Status      Status    `json:"status"`
	Readings    []Reading `json:"readings"`

	// Extra carries vendor-specific numeric fields that have no typed home.
	// They participate in statistical validation like any other reading.
	Extra map[string]float64 `json:"extra,omitempty"`
}

// NumericValues flattens readings and extras into one map for scoring
func (m *Measurement) NumericValues() map[string]float64 {
	values := make(map[string]float64, len(m.Readings)+len(m.Extra))
	for _, r := range m.Readings {
		values[r.Name] = r.Value
	}
	for k, v := range m.Extra {
		values[k] = v
	}
	return values
}

// OverallStatus returns the most severe status among the readings, or
// unknown when there are no readings at all.
func (m *Measurement) OverallStatus() Status {
	if len(m.Readings) == 0 {
		return StatusUnknown
	}
	overall := StatusUnknown
	for _, r := range m.Readings {
		if r.Status.Severity() > overall.Severity() {
			overall = r.Status
		}
	}
	if overall == StatusUnknown {
		return StatusUnknown
	}
	return overall
}
