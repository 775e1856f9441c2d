package database

import "time"

// FilterSettings controls alarm validation and analysis behavior (singleton)
type FilterSettings struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	Enabled                 bool      `gorm:"default:true" json:"enabled"`
	FalsePositiveThreshold  float64   `gorm:"type:decimal(3,2);default:0.70" json:"false_positive_threshold"`
	MinPatternSamples       int       `gorm:"default:10" json:"min_pattern_samples"`
	DuplicateThreshold      int       `gorm:"default:3" json:"duplicate_threshold"`
	HistoryWindowHours      int       `gorm:"default:24" json:"history_window_hours"`
	RateWindowDays          int       `gorm:"default:90" json:"rate_window_days"`
	AnalysisWindowDays      int       `gorm:"default:365" json:"analysis_window_days"`
	MinPatternOccurrences   int       `gorm:"default:2" json:"min_pattern_occurrences"`
	FilterIntervalMinutes   int       `gorm:"default:5" json:"filter_interval_minutes"`
	AnalysisIntervalMinutes int       `gorm:"default:1440" json:"analysis_interval_minutes"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (FilterSettings) TableName() string {
	return "filter_settings"
}

// NewDefaultFilterSettings returns settings with default values
func NewDefaultFilterSettings() *FilterSettings {
	return &FilterSettings{
		Enabled:                 true,
		FalsePositiveThreshold:  0.70,
		MinPatternSamples:       10,
		DuplicateThreshold:      3,
		HistoryWindowHours:      24,
		RateWindowDays:          90,
		AnalysisWindowDays:      365,
		MinPatternOccurrences:   2,
		FilterIntervalMinutes:   5,
		AnalysisIntervalMinutes: 1440,
	}
}
