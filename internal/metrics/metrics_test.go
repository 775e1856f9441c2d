package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register must tolerate already-registered collectors: %v", err)
	}
}

func TestObserveHelpersDoNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ObserveValidation(VerdictFalsePositive, 0.82)
	ObserveValidation(VerdictValid, 0.28)
	ObserveValidation(VerdictFailOpen, 0)
	ObserveAlertRaised("P1")
	ObserveAnalysis(2*time.Second, OutcomeSuccess)
	ObserveAnalysis(-time.Second, OutcomeError)
}
