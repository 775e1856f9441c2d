package rootcause

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/measurement"
)

type fakeHistory struct {
	equipment    map[string]*equipment.Info
	alerts       map[string][]alerts.Alert
	maintenance  map[string][]equipment.MaintenanceRecord
	measurements map[string][]*measurement.Measurement
	failFor      map[string]error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		equipment:    make(map[string]*equipment.Info),
		alerts:       make(map[string][]alerts.Alert),
		maintenance:  make(map[string][]equipment.MaintenanceRecord),
		measurements: make(map[string][]*measurement.Measurement),
		failFor:      make(map[string]error),
	}
}

func (f *fakeHistory) addEquipment(id string, eqType equipment.Type) {
	f.equipment[id] = &equipment.Info{
		ID:       id,
		Name:     "Equipment " + id,
		Tag:      "TAG-" + id,
		Type:     eqType,
		ClientID: "client-1",
	}
}

func (f *fakeHistory) Equipment(_ context.Context, id string) (*equipment.Info, error) {
	if err := f.failFor[id]; err != nil {
		return nil, err
	}
	return f.equipment[id], nil
}

func (f *fakeHistory) AlertsInRange(_ context.Context, id string, _, _ time.Time) ([]alerts.Alert, error) {
	return f.alerts[id], nil
}

func (f *fakeHistory) MaintenanceRecordsInRange(_ context.Context, id string, _, _ time.Time) ([]equipment.MaintenanceRecord, error) {
	return f.maintenance[id], nil
}

func (f *fakeHistory) MeasurementsInRange(_ context.Context, id string, _, _ time.Time) ([]*measurement.Measurement, error) {
	return f.measurements[id], nil
}

func (f *fakeHistory) ClientEquipment(_ context.Context, clientID string) ([]equipment.Info, error) {
	var out []equipment.Info
	for _, eq := range f.equipment {
		if eq.ClientID == clientID {
			out = append(out, *eq)
		}
	}
	for id := range f.failFor {
		out = append(out, equipment.Info{ID: id, ClientID: clientID, Name: "Equipment " + id})
	}
	return out, nil
}

func patternAlert(equipmentID, description string, gravity alerts.Gravity, ts time.Time) alerts.Alert {
	a := alerts.New(equipmentID, description, gravity, alerts.CriticalityMedium)
	a.Timestamp = ts
	return *a
}

func TestAnalyzePatternOccurrenceThreshold(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypePump)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.alerts["eq-1"] = []alerts.Alert{
		patternAlert("eq-1", "Seal leakage detected", alerts.GravityP2, base),
		patternAlert("eq-1", "Seal leakage detected", alerts.GravityP2, base.Add(48*time.Hour)),
		patternAlert("eq-1", "One-off cable fault", alerts.GravityP3, base.Add(10*time.Hour)),
	}

	a := NewAnalyzer(Config{}, store, nil)
	analysis, err := a.AnalyzeEquipment(context.Background(), "eq-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeEquipment: %v", err)
	}

	if len(analysis.Patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(analysis.Patterns))
	}
	p := analysis.Patterns[0]
	if p.Description != "Seal leakage detected" {
		t.Errorf("pattern description = %q", p.Description)
	}
	if p.Occurrences != 2 {
		t.Errorf("occurrences = %d, want 2", p.Occurrences)
	}
	if p.AverageIntervalHours != 48 {
		t.Errorf("average interval = %v, want 48", p.AverageIntervalHours)
	}
	if p.PredominantGravity != alerts.GravityP2 {
		t.Errorf("predominant gravity = %s, want P2", p.PredominantGravity)
	}
}

func TestAnalyzeMaintenanceCorrelation(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypeMotor)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.alerts["eq-1"] = []alerts.Alert{
		patternAlert("eq-1", "Bearing overheating", alerts.GravityP1, base),
		patternAlert("eq-1", "Bearing overheating", alerts.GravityP1, base.Add(200*time.Hour)),
	}
	store.maintenance["eq-1"] = []equipment.MaintenanceRecord{
		{ID: "mr-1", EquipmentID: "eq-1", Timestamp: base.Add(24 * time.Hour), Type: equipment.MaintenanceCorrective, Description: "Bearing replacement"},
		{ID: "mr-2", EquipmentID: "eq-1", Timestamp: base.Add(210 * time.Hour), Type: equipment.MaintenanceCorrective, Description: "Bearing replacement"},
		{ID: "mr-3", EquipmentID: "eq-1", Timestamp: base.Add(2000 * time.Hour), Type: equipment.MaintenancePreventive, Description: "Outside the window"},
	}

	a := NewAnalyzer(Config{}, store, nil)
	analysis, err := a.AnalyzeEquipment(context.Background(), "eq-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeEquipment: %v", err)
	}

	if len(analysis.MaintenanceCorrelations) != 1 {
		t.Fatalf("got %d maintenance correlations, want 1", len(analysis.MaintenanceCorrelations))
	}
	if n := len(analysis.MaintenanceCorrelations[0].Matches); n != 2 {
		t.Errorf("got %d matches, want 2", n)
	}

	var cause *Cause
	for i := range analysis.PossibleCauses {
		if analysis.PossibleCauses[i].Confidence == 0.7 {
			cause = &analysis.PossibleCauses[i]
		}
	}
	if cause == nil {
		t.Fatal("expected a maintenance-backed cause at confidence 0.7")
	}
	if !strings.Contains(cause.Description, string(equipment.MaintenanceCorrective)) {
		t.Errorf("cause does not name the maintenance type: %q", cause.Description)
	}

	if len(analysis.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if analysis.Recommendations[0].Priority != PriorityHigh {
		t.Errorf("priority = %s, want HIGH for predominant P1", analysis.Recommendations[0].Priority)
	}
}

func TestAnalyzeMeasurementCorrelation(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypePump)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.alerts["eq-1"] = []alerts.Alert{
		patternAlert("eq-1", "High vibration on drive end", alerts.GravityP3, base),
		patternAlert("eq-1", "High vibration on drive end", alerts.GravityP3, base.Add(100*time.Hour)),
	}
	mkMeasurement := func(id string, ts time.Time, velocity float64) *measurement.Measurement {
		return &measurement.Measurement{
			ID:        id,
			Timestamp: ts,
			Source:    measurement.SourceVibration,
			Status:    measurement.StatusAlert,
			Readings:  []measurement.Reading{{Name: "velocity_mm_s", Value: velocity, Status: measurement.StatusAlert}},
		}
	}
	store.measurements["eq-1"] = []*measurement.Measurement{
		mkMeasurement("m-1", base.Add(-2*time.Hour), 12.0),
		mkMeasurement("m-2", base.Add(98*time.Hour), 14.0),
		// Normal measurement never correlates.
		{ID: "m-3", Timestamp: base.Add(-1 * time.Hour), Source: measurement.SourceVibration, Status: measurement.StatusNormal},
		// Too far before the alert.
		mkMeasurement("m-4", base.Add(-30*time.Hour), 13.0),
	}

	a := NewAnalyzer(Config{}, store, nil)
	analysis, err := a.AnalyzeEquipment(context.Background(), "eq-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeEquipment: %v", err)
	}

	var cause *Cause
	for i := range analysis.PossibleCauses {
		if analysis.PossibleCauses[i].Confidence == 0.8 {
			cause = &analysis.PossibleCauses[i]
		}
	}
	if cause == nil {
		t.Fatal("expected a measurement-backed cause at confidence 0.8")
	}
	if !strings.Contains(cause.Description, "velocity_mm_s") {
		t.Errorf("cause does not name the parameter: %q", cause.Description)
	}
	if !strings.Contains(cause.Evidence, "13.00") {
		t.Errorf("evidence average = %q, want 13.00 from readings 12 and 14", cause.Evidence)
	}
}

func TestAnalyzeFallbackCause(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypeCompressor)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.alerts["eq-1"] = []alerts.Alert{
		patternAlert("eq-1", "Discharge pressure warning", alerts.GravityP3, base),
		patternAlert("eq-1", "Discharge pressure warning", alerts.GravityP3, base.Add(24*time.Hour)),
		patternAlert("eq-1", "Discharge pressure warning", alerts.GravityP3, base.Add(48*time.Hour)),
	}

	a := NewAnalyzer(Config{}, store, nil)
	analysis, err := a.AnalyzeEquipment(context.Background(), "eq-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeEquipment: %v", err)
	}

	if len(analysis.PossibleCauses) != 1 {
		t.Fatalf("got %d causes, want 1 fallback cause", len(analysis.PossibleCauses))
	}
	c := analysis.PossibleCauses[0]
	if c.Confidence != 0.5 {
		t.Errorf("fallback confidence = %v, want 0.5", c.Confidence)
	}
	if analysis.Confidence != 0.5 {
		t.Errorf("overall confidence = %v, want 0.5", analysis.Confidence)
	}
	if analysis.Recommendations[0].Priority != PriorityMedium {
		t.Errorf("priority = %s, want MEDIUM for P3", analysis.Recommendations[0].Priority)
	}
}

func TestAnalyzeEquipmentNotFound(t *testing.T) {
	store := newFakeHistory()
	a := NewAnalyzer(Config{}, store, nil)
	if _, err := a.AnalyzeEquipment(context.Background(), "ghost", time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected error for unknown equipment")
	}
}

type staticAdvisor struct {
	text string
	err  error
}

func (s staticAdvisor) Summarize(context.Context, Evidence) (string, error) {
	return s.text, s.err
}

func TestAnalyzeAdvisorFailureIsNotFatal(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypePump)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.alerts["eq-1"] = []alerts.Alert{
		patternAlert("eq-1", "Seal leakage detected", alerts.GravityP2, base),
		patternAlert("eq-1", "Seal leakage detected", alerts.GravityP2, base.Add(24*time.Hour)),
	}

	a := NewAnalyzer(Config{}, store, staticAdvisor{err: errors.New("api unavailable")})
	analysis, err := a.AnalyzeEquipment(context.Background(), "eq-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeEquipment: %v", err)
	}
	if analysis.Narrative != "" {
		t.Error("narrative must be empty when the advisor fails")
	}
	if len(analysis.PossibleCauses) == 0 || analysis.Confidence == 0 {
		t.Error("deterministic output must survive an advisor failure")
	}
}

func TestAnalyzeAdvisorNarrativeAttached(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypePump)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.alerts["eq-1"] = []alerts.Alert{
		patternAlert("eq-1", "Seal leakage detected", alerts.GravityP2, base),
		patternAlert("eq-1", "Seal leakage detected", alerts.GravityP2, base.Add(24*time.Hour)),
	}

	a := NewAnalyzer(Config{}, store, staticAdvisor{text: "Likely seal wear driven by cavitation."})
	analysis, err := a.AnalyzeEquipment(context.Background(), "eq-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeEquipment: %v", err)
	}
	if analysis.Narrative == "" {
		t.Error("expected narrative from advisor")
	}
}

func TestAnalyzeClientPartialFailure(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypePump)
	store.addEquipment("eq-2", equipment.TypePump)
	store.failFor["eq-broken"] = errors.New("row scan failed")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"eq-1", "eq-2"} {
		store.alerts[id] = []alerts.Alert{
			patternAlert(id, "Seal leakage detected", alerts.GravityP2, base),
			patternAlert(id, "Seal leakage detected", alerts.GravityP2, base.Add(24*time.Hour)),
		}
	}

	a := NewAnalyzer(Config{}, store, nil)
	result, err := a.AnalyzeClient(context.Background(), "client-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeClient: %v", err)
	}

	if result.EquipmentCount != 3 {
		t.Errorf("equipment count = %d, want 3", result.EquipmentCount)
	}
	broken := result.Analyses["eq-broken"]
	if broken == nil || broken.Error == "" {
		t.Error("expected an error marker for the broken equipment")
	}
	for _, id := range []string{"eq-1", "eq-2"} {
		if result.Analyses[id] == nil || result.Analyses[id].Analysis == nil {
			t.Errorf("expected a full analysis for %s", id)
		}
	}
}

func TestAnalyzeClientCommonPatterns(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypePump)
	store.addEquipment("eq-2", equipment.TypePump)
	store.addEquipment("eq-3", equipment.TypeMotor)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"eq-1", "eq-2", "eq-3"} {
		store.alerts[id] = []alerts.Alert{
			patternAlert(id, "Seal leakage detected", alerts.GravityP2, base),
			patternAlert(id, "Seal leakage detected", alerts.GravityP2, base.Add(24*time.Hour)),
		}
	}

	a := NewAnalyzer(Config{}, store, nil)
	result, err := a.AnalyzeClient(context.Background(), "client-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeClient: %v", err)
	}

	// The motor shares the description but not the type, so only the two
	// pumps form a common pattern.
	if len(result.CommonPatterns) != 1 {
		t.Fatalf("got %d common patterns, want 1", len(result.CommonPatterns))
	}
	cp := result.CommonPatterns[0]
	if cp.EquipmentType != equipment.TypePump {
		t.Errorf("equipment type = %s, want PUMP", cp.EquipmentType)
	}
	if cp.EquipmentCount != 2 {
		t.Errorf("equipment count = %d, want 2", cp.EquipmentCount)
	}
	if cp.TotalOccurrences != 4 {
		t.Errorf("total occurrences = %d, want 4", cp.TotalOccurrences)
	}
}

func TestIdentifyPatternsOrderedByFrequency(t *testing.T) {
	store := newFakeHistory()
	store.addEquipment("eq-1", equipment.TypeGenerator)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var list []alerts.Alert
	for i := 0; i < 3; i++ {
		list = append(list, patternAlert("eq-1", "Frequent fault", alerts.GravityP3, base.Add(time.Duration(i)*time.Hour)))
	}
	for i := 0; i < 2; i++ {
		list = append(list, patternAlert("eq-1", "Rare fault", alerts.GravityP3, base.Add(time.Duration(i)*time.Hour)))
	}
	store.alerts["eq-1"] = list

	a := NewAnalyzer(Config{}, store, nil)
	analysis, err := a.AnalyzeEquipment(context.Background(), "eq-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AnalyzeEquipment: %v", err)
	}
	if len(analysis.Patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(analysis.Patterns))
	}
	if analysis.Patterns[0].Description != "Frequent fault" {
		t.Errorf("patterns not ordered by occurrences: %q first", analysis.Patterns[0].Description)
	}
}
