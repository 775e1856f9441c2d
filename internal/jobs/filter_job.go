package jobs

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/database"
	"github.com/silpredict/silpredict/internal/filter"
	"github.com/silpredict/silpredict/internal/metrics"
	"github.com/silpredict/silpredict/internal/services"
)

// filterBatchLimit caps how many alerts one filter pass picks up. Leftovers
// are processed on the next tick.
const filterBatchLimit = 100

// FilterJob periodically validates NEW alerts that have not been through the
// filter yet and persists the verdicts.
type FilterJob struct {
	db        *gorm.DB
	store     *database.Store
	validator *filter.Validator
	alertSvc  *services.AlertService
}

// NewFilterJob creates a new filter job
func NewFilterJob(db *gorm.DB, store *database.Store, validator *filter.Validator, alertSvc *services.AlertService) *FilterJob {
	return &FilterJob{
		db:        db,
		store:     store,
		validator: validator,
		alertSvc:  alertSvc,
	}
}

// Run executes one iteration of the filter job.
// Returns the number of verdicts persisted.
func (j *FilterJob) Run() (int, error) {
	settings, err := database.GetOrCreateFilterSettings(j.db)
	if err != nil {
		return 0, err
	}

	if !settings.Enabled {
		log.Println("Alert filtering is disabled, skipping")
		return 0, nil
	}

	ctx := context.Background()
	pending, err := j.store.UnvalidatedAlerts(ctx, filterBatchLimit)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	batch := make([]*alerts.Alert, len(pending))
	for i := range pending {
		batch[i] = &pending[i]
	}

	results := j.validator.FilterBatch(ctx, j.store, batch)

	persisted := 0
	for _, result := range results {
		if err := j.alertSvc.ApplyFilterResult(result); err != nil {
			log.Printf("Failed to persist filter result for alert %s: %v", result.AlertID, err)
			continue
		}
		metrics.ObserveValidation(verdictLabel(result), result.Confidence)
		persisted++
	}

	return persisted, nil
}

// verdictLabel maps a filter result to its metrics label
func verdictLabel(result *filter.Result) string {
	switch {
	case result.Error != "":
		return metrics.VerdictFailOpen
	case result.IsFalsePositive:
		return metrics.VerdictFalsePositive
	default:
		return metrics.VerdictValid
	}
}

// Start begins the periodic filter passes
func (j *FilterJob) Start(stop <-chan struct{}) {
	settings, err := database.GetOrCreateFilterSettings(j.db)
	if err != nil {
		log.Printf("Failed to get filter settings, using default interval: %v", err)
		settings = database.NewDefaultFilterSettings()
	}

	interval := time.Duration(settings.FilterIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			validated, err := j.Run()
			if err != nil {
				log.Printf("Filter job error: %v", err)
			} else if validated > 0 {
				log.Printf("Filter job: validated %d alerts", validated)
			}

			// Refresh interval from settings (in case it changed)
			newSettings, err := database.GetOrCreateFilterSettings(j.db)
			if err == nil && newSettings.FilterIntervalMinutes != settings.FilterIntervalMinutes {
				settings = newSettings
				interval = time.Duration(settings.FilterIntervalMinutes) * time.Minute
				ticker.Reset(interval)
				log.Printf("Filter interval updated to %d minutes", settings.FilterIntervalMinutes)
			}

		case <-stop:
			log.Println("Filter job stopped")
			return
		}
	}
}
