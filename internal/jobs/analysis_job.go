package jobs

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/silpredict/silpredict/internal/database"
	"github.com/silpredict/silpredict/internal/metrics"
	"github.com/silpredict/silpredict/internal/rootcause"
)

// AnalysisJob periodically runs root cause analysis over every client's
// fleet and logs the findings.
type AnalysisJob struct {
	db       *gorm.DB
	store    *database.Store
	analyzer *rootcause.Analyzer
}

// NewAnalysisJob creates a new analysis job
func NewAnalysisJob(db *gorm.DB, store *database.Store, analyzer *rootcause.Analyzer) *AnalysisJob {
	return &AnalysisJob{
		db:       db,
		store:    store,
		analyzer: analyzer,
	}
}

// Run executes one analysis pass over all clients.
// Returns the number of clients analyzed.
func (j *AnalysisJob) Run() (int, error) {
	ctx := context.Background()
	clientIDs, err := j.store.ClientIDs(ctx)
	if err != nil {
		return 0, err
	}

	analyzed := 0
	for _, clientID := range clientIDs {
		started := time.Now()
		analysis, err := j.analyzer.AnalyzeClient(ctx, clientID, time.Time{}, time.Time{})
		if err != nil {
			metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeError)
			log.Printf("Root cause analysis failed for client %s: %v", clientID, err)
			continue
		}
		metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeSuccess)
		analyzed++

		logClientAnalysis(analysis)
	}

	return analyzed, nil
}

// logClientAnalysis writes a one-line digest per analyzed equipment
func logClientAnalysis(analysis *rootcause.ClientAnalysis) {
	for _, eq := range analysis.Analyses {
		if eq.Error != "" {
			log.Printf("Analysis for equipment %s (%s) failed: %s", eq.EquipmentName, eq.EquipmentTag, eq.Error)
			continue
		}
		if eq.Analysis == nil || len(eq.Analysis.Patterns) == 0 {
			continue
		}
		log.Printf("Analysis for equipment %s (%s): %d patterns, %d possible causes, confidence %.2f",
			eq.EquipmentName, eq.EquipmentTag,
			len(eq.Analysis.Patterns), len(eq.Analysis.PossibleCauses), eq.Analysis.Confidence)
	}
	if len(analysis.CommonPatterns) > 0 {
		log.Printf("Client %s: %d failure patterns shared across equipment", analysis.ClientID, len(analysis.CommonPatterns))
	}
}

// Start begins the periodic analysis passes
func (j *AnalysisJob) Start(stop <-chan struct{}) {
	settings, err := database.GetOrCreateFilterSettings(j.db)
	if err != nil {
		log.Printf("Failed to get analysis settings, using default interval: %v", err)
		settings = database.NewDefaultFilterSettings()
	}

	interval := time.Duration(settings.AnalysisIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			analyzed, err := j.Run()
			if err != nil {
				log.Printf("Analysis job error: %v", err)
			} else if analyzed > 0 {
				log.Printf("Analysis job: analyzed %d clients", analyzed)
			}

			newSettings, err := database.GetOrCreateFilterSettings(j.db)
			if err == nil && newSettings.AnalysisIntervalMinutes != settings.AnalysisIntervalMinutes {
				settings = newSettings
				interval = time.Duration(settings.AnalysisIntervalMinutes) * time.Minute
				ticker.Reset(interval)
				log.Printf("Analysis interval updated to %d minutes", settings.AnalysisIntervalMinutes)
			}

		case <-stop:
			log.Println("Analysis job stopped")
			return
		}
	}
}
