// Package rootcause analyzes recurring equipment failures: it extracts
// repeated alert patterns, correlates them with maintenance and measurement
// history, and synthesizes possible causes with preventive recommendations.
package rootcause

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
	"github.com/silpredict/silpredict/internal/measurement"
)

// HistoryStore provides the period queries the analyzer runs against
type HistoryStore interface {
	Equipment(ctx context.Context, equipmentID string) (*equipment.Info, error)
	AlertsInRange(ctx context.Context, equipmentID string, start, end time.Time) ([]alerts.Alert, error)
	MaintenanceRecordsInRange(ctx context.Context, equipmentID string, start, end time.Time) ([]equipment.MaintenanceRecord, error)
	MeasurementsInRange(ctx context.Context, equipmentID string, start, end time.Time) ([]*measurement.Measurement, error)
	ClientEquipment(ctx context.Context, clientID string) ([]equipment.Info, error)
}

// Config controls the analysis windows and thresholds
type Config struct {
	// Window is the default look-back when no explicit period is given.
	Window time.Duration

	// MinOccurrences is the identical-description count at which a group
	// of alerts becomes a failure pattern.
	MinOccurrences int

	// MaintenanceLookAhead bounds the maintenance correlation window after
	// each alert.
	MaintenanceLookAhead time.Duration

	// MeasurementLookBack bounds the measurement correlation window before
	// each alert.
	MeasurementLookBack time.Duration
}

// DefaultConfig returns the analysis defaults
func DefaultConfig() Config {
	return Config{
		Window:               365 * 24 * time.Hour,
		MinOccurrences:       2,
		MaintenanceLookAhead: 168 * time.Hour,
		MeasurementLookBack:  24 * time.Hour,
	}
}

// Analyzer runs root-cause analysis for equipment and clients
type Analyzer struct {
	cfg     Config
	store   HistoryStore
	advisor Advisor
}

// NewAnalyzer creates an analyzer. The advisor is optional; pass nil to run
// without narratives.
func NewAnalyzer(cfg Config, store HistoryStore, advisor Advisor) *Analyzer {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MinOccurrences <= 0 {
		cfg.MinOccurrences = def.MinOccurrences
	}
	if cfg.MaintenanceLookAhead <= 0 {
		cfg.MaintenanceLookAhead = def.MaintenanceLookAhead
	}
	if cfg.MeasurementLookBack <= 0 {
		cfg.MeasurementLookBack = def.MeasurementLookBack
	}
	return &Analyzer{cfg: cfg, store: store, advisor: advisor}
}

// patternGroup keeps the full alerts of a pattern for correlation; the
// exported FailurePattern only carries IDs.
type patternGroup struct {
	pattern FailurePattern
	alerts  []alerts.Alert
}

// AnalyzeEquipment runs the full analysis for one equipment. Zero start and
// end default to the configured window ending now.
func (a *Analyzer) AnalyzeEquipment(ctx context.Context, equipmentID string, start, end time.Time) (*Analysis, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.Add(-a.cfg.Window)
	}

	eq, err := a.store.Equipment(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment %s: %w", equipmentID, err)
	}
	if eq == nil {
		return nil, fmt.Errorf("equipment %s not found", equipmentID)
	}

	alertList, err := a.store.AlertsInRange(ctx, equipmentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for %s: %w", equipmentID, err)
	}
	maintenance, err := a.store.MaintenanceRecordsInRange(ctx, equipmentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load maintenance records for %s: %w", equipmentID, err)
	}
	measurements, err := a.store.MeasurementsInRange(ctx, equipmentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load measurements for %s: %w", equipmentID, err)
	}

	groups := a.identifyPatterns(alertList)
	maintCorr := a.correlateMaintenance(groups, maintenance)
	measCorr := a.correlateMeasurements(groups, measurements)
	causes, recommendations := a.synthesize(groups, maintCorr, measCorr)

	confidence := 0.0
	if len(causes) > 0 {
		for _, c := range causes {
			confidence += c.Confidence
		}
		confidence /= float64(len(causes))
	}

	analysis := &Analysis{
		EquipmentID:             equipmentID,
		EquipmentType:           eq.Type,
		PeriodStart:             start,
		PeriodEnd:               end,
		AlertCount:              len(alertList),
		MaintenanceCount:        len(maintenance),
		Patterns:                exportPatterns(groups),
		MaintenanceCorrelations: maintCorr,
		MeasurementCorrelations: measCorr,
		PossibleCauses:          causes,
		Recommendations:         recommendations,
		Confidence:              confidence,
		GeneratedAt:             time.Now().UTC(),
	}

	if a.advisor != nil && len(analysis.Patterns) > 0 {
		narrative, err := a.advisor.Summarize(ctx, Evidence{
			Equipment: eq,
			Patterns:  analysis.Patterns,
			Causes:    causes,
		})
		if err != nil {
			log.Printf("Advisory narrative failed for equipment %s: %v", equipmentID, err)
		} else {
			analysis.Narrative = narrative
		}
	}

	return analysis, nil
}

// identifyPatterns groups alerts by exact description and keeps the groups
// that reach the occurrence floor, most frequent first.
func (a *Analyzer) identifyPatterns(alertList []alerts.Alert) []patternGroup {
	byDescription := make(map[string][]alerts.Alert)
	for _, al := range alertList {
		byDescription[al.Description] = append(byDescription[al.Description], al)
	}

	groups := make([]patternGroup, 0, len(byDescription))
	for description, group := range byDescription {
		if len(group) < a.cfg.MinOccurrences {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		intervalSum := 0.0
		for i := 1; i < len(group); i++ {
			intervalSum += group[i].Timestamp.Sub(group[i-1].Timestamp).Hours()
		}
		avgInterval := 0.0
		if len(group) > 1 {
			avgInterval = intervalSum / float64(len(group)-1)
		}

		gravityCounts := make(map[alerts.Gravity]int)
		for _, al := range group {
			gravityCounts[al.Gravity]++
		}
		predominant := group[0].Gravity
		for g, n := range gravityCounts {
			if n > gravityCounts[predominant] ||
				(n == gravityCounts[predominant] && g.Rank() < predominant.Rank()) {
				predominant = g
			}
		}

		ids := make([]string, len(group))
		for i, al := range group {
			ids[i] = al.ID
		}

		groups = append(groups, patternGroup{
			pattern: FailurePattern{
				Description:          description,
				Occurrences:          len(group),
				FirstOccurrence:      group[0].Timestamp,
				LastOccurrence:       group[len(group)-1].Timestamp,
				AverageIntervalHours: avgInterval,
				PredominantGravity:   predominant,
				AlertIDs:             ids,
			},
			alerts: group,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].pattern.Occurrences != groups[j].pattern.Occurrences {
			return groups[i].pattern.Occurrences > groups[j].pattern.Occurrences
		}
		return groups[i].pattern.Description < groups[j].pattern.Description
	})
	return groups
}

// correlateMaintenance finds, for each pattern occurrence, the maintenance
// records performed within the look-ahead window after the alert.
func (a *Analyzer) correlateMaintenance(groups []patternGroup, records []equipment.MaintenanceRecord) []MaintenanceCorrelation {
	if len(groups) == 0 || len(records) == 0 {
		return nil
	}

	var out []MaintenanceCorrelation
	for _, g := range groups {
		var matches []MaintenanceMatch
		for _, al := range g.alerts {
			for _, rec := range records {
				diff := rec.Timestamp.Sub(al.Timestamp)
				if diff < 0 || diff > a.cfg.MaintenanceLookAhead {
					continue
				}
				matches = append(matches, MaintenanceMatch{
					AlertID:       al.ID,
					MaintenanceID: rec.ID,
					TimeDiffHours: diff.Hours(),
					Type:          rec.Type,
					Description:   rec.Description,
				})
			}
		}
		if len(matches) > 0 {
			out = append(out, MaintenanceCorrelation{
				PatternDescription: g.pattern.Description,
				Matches:            matches,
			})
		}
	}
	return out
}

// correlateMeasurements finds, for each pattern, the non-normal measurements
// recorded within the look-back window before any of the pattern's alerts.
// Each measurement counts once per pattern even when it precedes several
// occurrences.
func (a *Analyzer) correlateMeasurements(groups []patternGroup, measurements []*measurement.Measurement) []MeasurementCorrelation {
	if len(groups) == 0 || len(measurements) == 0 {
		return nil
	}

	var out []MeasurementCorrelation
	for _, g := range groups {
		seen := make(map[string]bool)
		var anomalous []AnomalousMeasurement
		for _, al := range g.alerts {
			for _, m := range measurements {
				if m.Status == measurement.StatusNormal || seen[m.ID] {
					continue
				}
				diff := al.Timestamp.Sub(m.Timestamp)
				if diff < 0 || diff > a.cfg.MeasurementLookBack {
					continue
				}
				seen[m.ID] = true
				anomalous = append(anomalous, AnomalousMeasurement{
					MeasurementID:    m.ID,
					Source:           m.Source,
					Timestamp:        m.Timestamp,
					HoursBeforeAlert: diff.Hours(),
					Status:           m.Status,
					Values:           m.NumericValues(),
				})
			}
		}
		if len(anomalous) > 0 {
			out = append(out, MeasurementCorrelation{
				PatternDescription: g.pattern.Description,
				Anomalous:          anomalous,
			})
		}
	}
	return out
}

// synthesize turns patterns and correlations into causes and recommendations
func (a *Analyzer) synthesize(groups []patternGroup, maintCorr []MaintenanceCorrelation, measCorr []MeasurementCorrelation) ([]Cause, []Recommendation) {
	maintByPattern := make(map[string]*MaintenanceCorrelation, len(maintCorr))
	for i := range maintCorr {
		maintByPattern[maintCorr[i].PatternDescription] = &maintCorr[i]
	}
	measByPattern := make(map[string]*MeasurementCorrelation, len(measCorr))
	for i := range measCorr {
		measByPattern[measCorr[i].PatternDescription] = &measCorr[i]
	}

	var causes []Cause
	var recommendations []Recommendation

	for _, g := range groups {
		priority := PriorityMedium
		if g.pattern.PredominantGravity == alerts.GravityP1 || g.pattern.PredominantGravity == alerts.GravityP2 {
			priority = PriorityHigh
		}

		patternHasCause := false

		if mc := maintByPattern[g.pattern.Description]; mc != nil {
			typeCounts := make(map[equipment.MaintenanceType]int)
			for _, m := range mc.Matches {
				typeCounts[m.Type]++
			}
			var mostCommon equipment.MaintenanceType
			best := 0
			for t, n := range typeCounts {
				if n > best || (n == best && string(t) < string(mostCommon)) {
					mostCommon, best = t, n
				}
			}
			causes = append(causes, Cause{
				Description: fmt.Sprintf("Recurring failure requiring %s maintenance", mostCommon),
				Confidence:  0.7,
				Evidence:    fmt.Sprintf("%d correlated maintenance interventions", len(mc.Matches)),
			})
			recommendations = append(recommendations, Recommendation{
				Description: fmt.Sprintf("Increase the frequency of %s maintenance", mostCommon),
				Priority:    priority,
			})
			patternHasCause = true
		}

		if mc := measByPattern[g.pattern.Description]; mc != nil {
			bySource := make(map[measurement.Source][]AnomalousMeasurement)
			for _, m := range mc.Anomalous {
				bySource[m.Source] = append(bySource[m.Source], m)
			}
			for _, source := range sortedSources(bySource) {
				paramValues := make(map[string][]float64)
				for _, m := range bySource[source] {
					for param, value := range m.Values {
						paramValues[param] = append(paramValues[param], value)
					}
				}
				for _, param := range sortedParams(paramValues) {
					values := paramValues[param]
					if len(values) < 2 {
						continue
					}
					avg := 0.0
					for _, v := range values {
						avg += v
					}
					avg /= float64(len(values))
					causes = append(causes, Cause{
						Description: fmt.Sprintf("Anomalous %s readings in %s measurements", param, source),
						Confidence:  0.8,
						Evidence:    fmt.Sprintf("average value %.2f across %d measurements", avg, len(values)),
					})
					recommendations = append(recommendations, Recommendation{
						Description: fmt.Sprintf("Monitor %s in %s measurements more frequently", param, source),
						Priority:    priority,
					})
					patternHasCause = true
				}
			}
		}

		if !patternHasCause {
			causes = append(causes, Cause{
				Description: fmt.Sprintf("Recurring failure: %s", g.pattern.Description),
				Confidence:  0.5,
				Evidence: fmt.Sprintf("%d occurrences, average interval %.1f hours",
					g.pattern.Occurrences, g.pattern.AverageIntervalHours),
			})
			recommendations = append(recommendations, Recommendation{
				Description: "Perform a detailed inspection to identify the root cause",
				Priority:    priority,
			})
		}
	}

	return causes, recommendations
}

func exportPatterns(groups []patternGroup) []FailurePattern {
	out := make([]FailurePattern, len(groups))
	for i, g := range groups {
		out[i] = g.pattern
	}
	return out
}

func sortedSources(m map[measurement.Source][]AnomalousMeasurement) []measurement.Source {
	keys := make([]measurement.Source, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedParams(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
