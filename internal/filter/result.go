package filter

import "time"

// Method names for the sub-validators
const (
	MethodStatistical  = "statistical"
	MethodPatternBased = "pattern_based"
	MethodRuleBased    = "rule_based"
)

// Action is the recommended handling for a validated alert
type Action string

const (
	ActionIgnore         Action = "IGNORE"
	ActionVerifyLow      Action = "VERIFY_LOW_PRIORITY"
	ActionAttendUrgent   Action = "ATTEND_URGENT"
	ActionAttendPriority Action = "ATTEND_PRIORITY"
	ActionAttendNormal   Action = "ATTEND_NORMAL"
)

// MethodResult is the outcome of one sub-validator
type MethodResult struct {
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// RuleNote records a deterministic rule that matched during validation.
// Notes are evidence for reviewers; only the tracking-status floor and the
// high-severity override change the combined score.
type RuleNote struct {
	Rule        string  `json:"rule"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Recommendation is the suggested handling derived from the verdict
type Recommendation struct {
	Action      Action  `json:"action"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Result is the validation verdict for one alert.
//
// Confidence is the confidence that the alert IS a false positive. The
// statistical sub-validator's own confidence trends the other way (toward
// genuineness); that polarity mismatch is inherited behavior, kept for
// replay compatibility and pinned by tests.
type Result struct {
	AlertID         string                  `json:"alert_id"`
	EquipmentID     string                  `json:"equipment_id"`
	EvaluatedAt     time.Time               `json:"evaluated_at"`
	IsFalsePositive bool                    `json:"is_false_positive"`
	Confidence      float64                 `json:"confidence"`
	Methods         map[string]MethodResult `json:"methods"`
	RulesApplied    []RuleNote              `json:"rules_applied,omitempty"`
	Recommendation  Recommendation          `json:"recommendation"`

	// Error marks a partial failure (equipment or history unavailable).
	// A result with Error set is always valid-by-default.
	Error string `json:"error,omitempty"`
}
