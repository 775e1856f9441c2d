package measurement

import (
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestThresholdEvaluate(t *testing.T) {
	band := Threshold{
		WarningLow:   f(10),
		WarningHigh:  f(70),
		AlertLow:     f(5),
		AlertHigh:    f(85),
		CriticalLow:  f(2),
		CriticalHigh: f(100),
	}

	tests := []struct {
		name  string
		value float64
		want  Status
	}{
		{"well inside bands", 40, StatusNormal},
		{"warning high boundary", 70, StatusWarning},
		{"between warning and alert", 80, StatusWarning},
		{"alert high boundary", 85, StatusAlert},
		{"critical high boundary", 100, StatusCritical},
		{"above critical", 150, StatusCritical},
		{"warning low boundary", 10, StatusWarning},
		{"alert low boundary", 5, StatusAlert},
		{"critical low boundary", 2, StatusCritical},
		{"below critical low", 0, StatusCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := band.Evaluate(tt.value); got != tt.want {
				t.Errorf("Evaluate(%v) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestThresholdEvaluateNilBoundsNeverFire(t *testing.T) {
	if got := (Threshold{}).Evaluate(1e9); got != StatusNormal {
		t.Errorf("empty band = %s, want normal", got)
	}

	// A value breaching both an alert and a warning bound resolves to the
	// more severe band.
	band := Threshold{WarningHigh: f(50), AlertHigh: f(50)}
	if got := band.Evaluate(60); got != StatusAlert {
		t.Errorf("overlapping bands = %s, want alert", got)
	}
}

func TestOverallStatusMostSevereWins(t *testing.T) {
	m := &Measurement{
		Readings: []Reading{
			{Name: "a", Value: 1, Status: StatusNormal},
			{Name: "b", Value: 2, Status: StatusAlert},
			{Name: "c", Value: 3, Status: StatusWarning},
		},
	}
	if got := m.OverallStatus(); got != StatusAlert {
		t.Errorf("overall = %s, want alert", got)
	}

	empty := &Measurement{}
	if got := empty.OverallStatus(); got != StatusUnknown {
		t.Errorf("overall with no readings = %s, want unknown", got)
	}
}

func TestNumericValuesIncludesExtras(t *testing.T) {
	m := &Measurement{
		Readings: []Reading{{Name: "velocity_x", Value: 4.2}},
		Extra:    map[string]float64{"acceleration_x": 0.8},
	}
	values := m.NumericValues()
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}
	if values["velocity_x"] != 4.2 || values["acceleration_x"] != 0.8 {
		t.Errorf("values = %v", values)
	}
}

func TestThermographyEvaluatesEveryPoint(t *testing.T) {
	band := Threshold{WarningHigh: f(70), CriticalHigh: f(100)}
	m := Thermography("m-1", "eq-1", time.Now(), []ThermographyPoint{
		{Name: "bearing_de", Temperature: 65},
		{Name: "bearing_nde", Temperature: 110},
	}, band)

	if m.Source != SourceThermography {
		t.Errorf("source = %s", m.Source)
	}
	if m.Readings[0].Status != StatusNormal {
		t.Errorf("cool point = %s, want normal", m.Readings[0].Status)
	}
	if m.Readings[1].Status != StatusCritical {
		t.Errorf("hot point = %s, want critical", m.Readings[1].Status)
	}
	if m.Status != StatusCritical {
		t.Errorf("overall = %s, want critical", m.Status)
	}
}

func TestOilAnalysisPerQuantityBands(t *testing.T) {
	bands := map[string]Threshold{
		"iron_ppm":  {WarningHigh: f(50), AlertHigh: f(100)},
		"water_ppm": {AlertHigh: f(500)},
	}
	m := OilAnalysis("m-2", "eq-1", time.Now(), OilSample{
		ViscosityCst:     46,
		WaterPPM:         120,
		IronPPM:          60,
		ParticleCountISO: 18,
	}, bands)

	byName := make(map[string]Status)
	for _, r := range m.Readings {
		byName[r.Name] = r.Status
	}
	if byName["iron_ppm"] != StatusWarning {
		t.Errorf("iron = %s, want warning", byName["iron_ppm"])
	}
	if byName["water_ppm"] != StatusNormal {
		t.Errorf("water = %s, want normal below band", byName["water_ppm"])
	}
	// No band configured for viscosity: stays normal.
	if byName["viscosity_cst"] != StatusNormal {
		t.Errorf("viscosity = %s, want normal", byName["viscosity_cst"])
	}
	if m.Status != StatusWarning {
		t.Errorf("overall = %s, want warning", m.Status)
	}
}

func TestVibrationAccelerationRidesAsExtra(t *testing.T) {
	band := Threshold{AlertHigh: f(7.1)}
	m := Vibration("m-3", "eq-1", time.Now(), []VibrationAxis{
		{Axis: "x", VelocityMMs: 8.0, AccelerationG: 1.2},
		{Axis: "y", VelocityMMs: 2.0, AccelerationG: 0.4},
	}, band)

	if m.Status != StatusAlert {
		t.Errorf("overall = %s, want alert", m.Status)
	}
	if m.Extra["acceleration_x"] != 1.2 || m.Extra["acceleration_y"] != 0.4 {
		t.Errorf("extras = %v", m.Extra)
	}
	values := m.NumericValues()
	if len(values) != 4 {
		t.Errorf("got %d numeric values, want 4", len(values))
	}
}
