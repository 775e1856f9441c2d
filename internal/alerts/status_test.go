package alerts

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"new to acknowledged", StatusNew, StatusAcknowledged, true},
		{"acknowledged to in progress", StatusAcknowledged, StatusInProgress, true},
		{"in progress to resolved", StatusInProgress, StatusResolved, true},
		{"acknowledged to resolved", StatusAcknowledged, StatusResolved, true},
		{"new skips to in progress", StatusNew, StatusInProgress, false},
		{"new skips to resolved", StatusNew, StatusResolved, false},
		{"backwards to new", StatusAcknowledged, StatusNew, false},
		{"false positive from new", StatusNew, StatusFalsePositive, true},
		{"false positive from acknowledged", StatusAcknowledged, StatusFalsePositive, true},
		{"false positive from in progress", StatusInProgress, StatusFalsePositive, true},
		{"resolved is terminal", StatusResolved, StatusFalsePositive, false},
		{"false positive is terminal", StatusFalsePositive, StatusAcknowledged, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransitionRequiresResolutionDetails(t *testing.T) {
	a := New("eq-1", "High vibration on drive end", GravityP2, CriticalityMedium)
	if err := a.Assign("operator-7"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.AssignedTo != "operator-7" {
		t.Errorf("assigned to = %q", a.AssignedTo)
	}

	err := a.Transition(StatusResolved, "")
	if !errors.Is(err, ErrResolutionRequired) {
		t.Fatalf("err = %v, want ErrResolutionRequired", err)
	}
	if a.Status != StatusAcknowledged {
		t.Errorf("status changed on rejected transition: %s", a.Status)
	}

	if err := a.Transition(StatusResolved, "Replaced bearing"); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if a.ResolutionDetails != "Replaced bearing" {
		t.Errorf("resolution details = %q", a.ResolutionDetails)
	}
}

func TestTransitionRejectsInvalidMove(t *testing.T) {
	a := New("eq-1", "alert", GravityP3, CriticalityLow)
	err := a.Transition(StatusInProgress, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestGravityRank(t *testing.T) {
	if GravityP1.Rank() >= GravityP2.Rank() {
		t.Error("P1 must rank more severe than P2")
	}
	if GravityP4.Rank() >= Gravity("bogus").Rank() {
		t.Error("unknown gravity must rank least severe")
	}
}
