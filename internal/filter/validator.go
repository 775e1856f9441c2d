// Package filter validates raised alerts against equipment history and flags
// probable false positives before they reach an operator.
package filter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/measurement"
)

// Config controls the validation thresholds and method weights
type Config struct {
	// FalsePositiveThreshold is the combined confidence at or above which an
	// alert is flagged as a false positive.
	FalsePositiveThreshold float64

	// MinSamples is the minimum number of similar historical alerts the
	// pattern method needs before it leaves its neutral score.
	MinSamples int

	// DuplicateThreshold is the duplicate count at which the duplicate rule
	// fires.
	DuplicateThreshold int

	// HistoryWindow bounds the recent alerts and measurements fetched into a
	// snapshot.
	HistoryWindow time.Duration

	// RateWindow bounds the historical false-positive rate lookup.
	RateWindow time.Duration

	// HighRateThreshold is the false-positive rate above which the
	// high-rate rule fires.
	HighRateThreshold float64

	// Method weights. Renormalized to sum to 1 when they do not.
	StatisticalWeight float64
	PatternWeight     float64
	RuleWeight        float64
}

// DefaultConfig returns the validation defaults
func DefaultConfig() Config {
	return Config{
		FalsePositiveThreshold: 0.70,
		MinSamples:             10,
		DuplicateThreshold:     3,
		HistoryWindow:          24 * time.Hour,
		RateWindow:             90 * 24 * time.Hour,
		HighRateThreshold:      0.7,
		StatisticalWeight:      0.4,
		PatternWeight:          0.4,
		RuleWeight:             0.2,
	}
}

// Validator scores alerts for false-positive likelihood. Safe for concurrent
// use; all state lives in the config.
type Validator struct {
	cfg Config
}

// NewValidator creates a validator, filling in zero config fields with
// defaults and renormalizing the method weights.
func NewValidator(cfg Config) *Validator {
	def := DefaultConfig()
	if cfg.FalsePositiveThreshold <= 0 {
		cfg.FalsePositiveThreshold = def.FalsePositiveThreshold
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.DuplicateThreshold <= 0 {
		cfg.DuplicateThreshold = def.DuplicateThreshold
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = def.HistoryWindow
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = def.RateWindow
	}
	if cfg.HighRateThreshold <= 0 {
		cfg.HighRateThreshold = def.HighRateThreshold
	}
	if cfg.StatisticalWeight <= 0 && cfg.PatternWeight <= 0 && cfg.RuleWeight <= 0 {
		cfg.StatisticalWeight = def.StatisticalWeight
		cfg.PatternWeight = def.PatternWeight
		cfg.RuleWeight = def.RuleWeight
	}
	total := cfg.StatisticalWeight + cfg.PatternWeight + cfg.RuleWeight
	if total > 0 && math.Abs(total-1.0) > 1e-9 {
		cfg.StatisticalWeight /= total
		cfg.PatternWeight /= total
		cfg.RuleWeight /= total
	}
	return &Validator{cfg: cfg}
}

// Config returns the effective configuration after normalization
func (v *Validator) Config() Config {
	return v.cfg
}

// Validate scores one alert against its history snapshot. It never returns
// an error: when the snapshot lacks equipment data the alert passes through
// valid-by-default with the failure recorded on the result.
func (v *Validator) Validate(alert *alerts.Alert, snapshot *Snapshot) *Result {
	if snapshot == nil || snapshot.Equipment == nil {
		return v.failOpen(alert, "equipment not found")
	}

	history := snapshot.alertsExcluding(alert.ID)

	methods := map[string]MethodResult{
		MethodStatistical:  v.validateStatistical(alert, snapshot),
		MethodPatternBased: v.validatePattern(alert, history),
		MethodRuleBased:    v.validateRules(alert),
	}

	confidence := v.cfg.StatisticalWeight*methods[MethodStatistical].Confidence +
		v.cfg.PatternWeight*methods[MethodPatternBased].Confidence +
		v.cfg.RuleWeight*methods[MethodRuleBased].Confidence

	notes := v.applyNotes(alert, snapshot, history)

	// Sparsely instrumented equipment produces noisy alarms; keep a floor
	// of suspicion regardless of what the methods said. The note is recorded
	// whether or not the floor ends up raising the score.
	if snapshot.Equipment.TrackingStatus == equipment.MinimallyTracked {
		notes = append(notes, RuleNote{
			Rule:        "minimally_tracked_equipment",
			Description: "equipment is minimally tracked",
			Confidence:  0.4,
		})
		if confidence < 0.4 {
			confidence = 0.4
		}
	}

	// Severe alarms on critical assets get the benefit of the doubt: the
	// cost of suppressing a genuine one dominates.
	if (alert.Gravity == alerts.GravityP1 || alert.Gravity == alerts.GravityP2) &&
		alert.Criticality == alerts.CriticalityHigh {
		confidence = math.Max(0, confidence-0.3)
		notes = append(notes, RuleNote{
			Rule:        "high_severity_override",
			Description: "severe alarm on high-criticality equipment, confidence reduced",
			Confidence:  confidence,
		})
	}

	confidence = clamp(confidence, 0, 1)
	isFP := confidence >= v.cfg.FalsePositiveThreshold

	return &Result{
		AlertID:         alert.ID,
		EquipmentID:     alert.EquipmentID,
		EvaluatedAt:     time.Now().UTC(),
		IsFalsePositive: isFP,
		Confidence:      confidence,
		Methods:         methods,
		RulesApplied:    notes,
		Recommendation:  v.recommend(alert, isFP, confidence),
	}
}

// validateStatistical z-scores every numeric value of the triggering
// measurement against the mean and spread of that same value set. One value
// sitting far from the rest points at a real anomaly. No triggering
// measurement or no numeric values yields the neutral score.
func (v *Validator) validateStatistical(alert *alerts.Alert, snapshot *Snapshot) MethodResult {
	current := snapshot.measurementFor(alert)
	if current == nil {
		return MethodResult{
			Method:     MethodStatistical,
			Confidence: 0.5,
			Rationale:  "no measurement data attached to alert",
		}
	}

	numeric := current.NumericValues()
	if len(numeric) == 0 {
		return MethodResult{
			Method:     MethodStatistical,
			Confidence: 0.5,
			Rationale:  "no numeric values in measurement data",
		}
	}

	values := make([]float64, 0, len(numeric))
	for _, value := range numeric {
		values = append(values, value)
	}
	mean, std := meanStd(values)
	if std == 0 {
		std = 1.0
	}
	maxZ := 0.0
	for _, value := range values {
		z := math.Abs(value-mean) / std
		if z > maxZ {
			maxZ = z
		}
	}

	confidence := math.Min(0.5+maxZ/6.0, 0.95)
	return MethodResult{
		Method:     MethodStatistical,
		Confidence: confidence,
		Rationale:  fmt.Sprintf("max z-score %.2f across %d values", maxZ, len(values)),
	}
}

// validatePattern scores the alert by the false-positive ratio of similar
// historical alerts. With fewer than MinSamples historical alerts for the
// equipment it stays neutral; the ratio itself is taken over the similar
// subset only.
func (v *Validator) validatePattern(alert *alerts.Alert, history []alerts.Alert) MethodResult {
	if len(history) < v.cfg.MinSamples {
		return MethodResult{
			Method:     MethodPatternBased,
			Confidence: 0.5,
			Rationale:  fmt.Sprintf("only %d historical alerts, need %d", len(history), v.cfg.MinSamples),
		}
	}

	similar := make([]alerts.Alert, 0, len(history))
	falseCount := 0
	for _, h := range history {
		if !similarAlerts(alert, &h) {
			continue
		}
		similar = append(similar, h)
		if h.Status == alerts.StatusFalsePositive {
			falseCount++
		}
	}

	ratio := 0.0
	if len(similar) > 0 {
		ratio = float64(falseCount) / float64(len(similar))
	}
	confidence := 0.5 + 0.5*(1.0-ratio)

	return MethodResult{
		Method:     MethodPatternBased,
		Confidence: confidence,
		Rationale:  fmt.Sprintf("%d of %d similar alerts were false positives", falseCount, len(similar)),
	}
}

// validateRules applies the static gravity/criticality prior
func (v *Validator) validateRules(alert *alerts.Alert) MethodResult {
	confidence := 0.75
	rationale := "default prior"
	switch {
	case alert.Gravity == alerts.GravityP1 && alert.Criticality == alerts.CriticalityHigh:
		confidence = 0.9
		rationale = "P1 alarm on high-criticality equipment"
	case alert.Gravity == alerts.GravityP3 && alert.Criticality == alerts.CriticalityLow:
		confidence = 0.6
		rationale = "P3 alarm on low-criticality equipment"
	}
	return MethodResult{
		Method:     MethodRuleBased,
		Confidence: confidence,
		Rationale:  rationale,
	}
}

// applyNotes records the deterministic evidence rules. Notes never change the
// combined score directly; they surface context for reviewers.
func (v *Validator) applyNotes(alert *alerts.Alert, snapshot *Snapshot, history []alerts.Alert) []RuleNote {
	var notes []RuleNote

	duplicates := 0
	for _, h := range history {
		if h.Description == alert.Description {
			duplicates++
		}
	}
	if duplicates >= v.cfg.DuplicateThreshold {
		notes = append(notes, RuleNote{
			Rule:        "duplicate_alerts",
			Description: fmt.Sprintf("%d identical alerts in the history window", duplicates),
			Confidence:  0.8,
		})
	}

	normalAfter := 0
	for _, batch := range snapshot.RecentMeasurements {
		for _, m := range batch {
			if alert.MeasurementSource != "" && m.Source != alert.MeasurementSource {
				continue
			}
			if m.Timestamp.After(alert.Timestamp) && m.Status == measurement.StatusNormal {
				normalAfter++
			}
		}
	}
	if normalAfter > 0 {
		notes = append(notes, RuleNote{
			Rule:        "normal_readings_after_alert",
			Description: fmt.Sprintf("%d normal readings recorded after the alert", normalAfter),
			Confidence:  math.Min(0.5+0.1*float64(normalAfter), 0.9),
		})
	}

	if rate, ok := snapshot.FalsePositiveRates[alert.Description]; ok && rate > v.cfg.HighRateThreshold {
		notes = append(notes, RuleNote{
			Rule:        "high_false_positive_rate",
			Description: fmt.Sprintf("%.0f%% of past alerts with this description were false positives", rate*100),
			Confidence:  rate,
		})
	}

	return notes
}

// recommend maps the verdict to an operator action
func (v *Validator) recommend(alert *alerts.Alert, isFP bool, confidence float64) Recommendation {
	if isFP {
		if confidence < 0.3 {
			return Recommendation{
				Action:      ActionIgnore,
				Description: "likely false positive, no action required",
				Confidence:  confidence,
			}
		}
		return Recommendation{
			Action:      ActionVerifyLow,
			Description: "probable false positive, verify at low priority",
			Confidence:  confidence,
		}
	}
	switch {
	case alert.Gravity == alerts.GravityP1 || confidence > 0.9:
		return Recommendation{
			Action:      ActionAttendUrgent,
			Description: "attend urgently",
			Confidence:  confidence,
		}
	case alert.Gravity == alerts.GravityP2 || confidence > 0.7:
		return Recommendation{
			Action:      ActionAttendPriority,
			Description: "attend with priority",
			Confidence:  confidence,
		}
	default:
		return Recommendation{
			Action:      ActionAttendNormal,
			Description: "attend on the normal schedule",
			Confidence:  confidence,
		}
	}
}

// failOpen returns a valid-by-default result when history is unavailable
func (v *Validator) failOpen(alert *alerts.Alert, reason string) *Result {
	return &Result{
		AlertID:         alert.ID,
		EquipmentID:     alert.EquipmentID,
		EvaluatedAt:     time.Now().UTC(),
		IsFalsePositive: false,
		Confidence:      0,
		Methods:         map[string]MethodResult{},
		Recommendation: Recommendation{
			Action:      ActionAttendNormal,
			Description: "validation unavailable, attend on the normal schedule",
		},
		Error: reason,
	}
}

// similarAlerts reports whether two alerts match on at least two of three
// criteria: gravity, measurement source (two absent sources count as equal),
// and description word overlap of at least 30% of the smaller token set.
func similarAlerts(a, b *alerts.Alert) bool {
	matches := 0
	if a.Gravity == b.Gravity {
		matches++
	}
	if a.MeasurementSource == b.MeasurementSource {
		matches++
	}
	if wordOverlap(a.Description, b.Description) {
		matches++
	}
	return matches >= 2
}

func wordOverlap(a, b string) bool {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return false
	}
	common := 0
	for t := range tokensA {
		if _, ok := tokensB[t]; ok {
			common++
		}
	}
	smaller := len(tokensA)
	if len(tokensB) < smaller {
		smaller = len(tokensB)
	}
	return float64(common) >= 0.3*float64(smaller)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(s)) {
		set[t] = struct{}{}
	}
	return set
}

func meanStd(values []float64) (float64, float64) {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
