package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/silpredict/silpredict/internal/measurement"
	"github.com/silpredict/silpredict/internal/services"
	"github.com/silpredict/silpredict/internal/testhelpers"
)

func ptr(v float64) *float64 { return &v }

func testProfile() *measurement.Profile {
	return &measurement.Profile{
		Thermography: measurement.Threshold{
			WarningHigh:  ptr(70),
			AlertHigh:    ptr(85),
			CriticalHigh: ptr(100),
		},
		Vibration: measurement.Threshold{
			WarningHigh:  ptr(4.5),
			AlertHigh:    ptr(7.1),
			CriticalHigh: ptr(11.0),
		},
		OilAnalysis: map[string]measurement.Threshold{
			"iron_ppm": {WarningHigh: ptr(50), AlertHigh: ptr(100), CriticalHigh: ptr(200)},
		},
	}
}

func postIngest(t *testing.T, handler http.HandlerFunc, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ingest/measurement", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	resp := map[string]interface{}{}
	if rec.Code == http.StatusAccepted {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, resp
}

func TestIngestHandlerKindDispatch(t *testing.T) {
	db := testhelpers.SetupDB(t)
	eq := testhelpers.NewEquipmentBuilder().WithTag("M-301").Create(t, db)
	handler := ingestHandler(services.NewMeasurementService(db, testProfile()))

	tests := []struct {
		name      string
		body      string
		wantAlert bool
		gravity   string
	}{
		{
			"vibration alert band",
			`{"kind":"vibration","equipment_id":"` + eq.ID + `","axes":[{"axis":"x","velocity_mms":8.0,"acceleration_g":1.2}]}`,
			true, "P2",
		},
		{
			"thermography critical",
			`{"kind":"thermography","equipment_id":"` + eq.ID + `","points":[{"name":"bearing_de","temperature":110}]}`,
			true, "P1",
		},
		{
			"oil sample normal",
			`{"kind":"oil_analysis","equipment_id":"` + eq.ID + `","sample":{"viscosity_cst":46,"water_ppm":50,"iron_ppm":20,"particle_count_iso":14}}`,
			false, "",
		},
		{
			"raw readings without kind",
			`{"equipment_id":"` + eq.ID + `","source":"vibration","readings":[{"name":"velocity_mm_s","value":12.0}]}`,
			true, "P1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := postIngest(t, handler, tt.body)
			if rec.Code != http.StatusAccepted {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusAccepted, rec.Body.String())
			}
			if id, _ := resp["measurement_id"].(string); id == "" {
				t.Error("measurement_id missing from response")
			}
			_, gotAlert := resp["alert_id"]
			if gotAlert != tt.wantAlert {
				t.Errorf("alert raised = %v, want %v", gotAlert, tt.wantAlert)
			}
			if tt.wantAlert && resp["gravity"] != tt.gravity {
				t.Errorf("gravity = %v, want %s", resp["gravity"], tt.gravity)
			}
		})
	}
}

func TestIngestHandlerRejectsBadRequests(t *testing.T) {
	db := testhelpers.SetupDB(t)
	handler := ingestHandler(services.NewMeasurementService(db, testProfile()))

	tests := []struct {
		name string
		body string
	}{
		{"missing equipment", `{"kind":"vibration","axes":[]}`},
		{"unknown kind", `{"kind":"acoustic","equipment_id":"eq-1"}`},
		{"oil without sample", `{"kind":"oil_analysis","equipment_id":"eq-1"}`},
		{"malformed json", `{"kind":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := postIngest(t, handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
