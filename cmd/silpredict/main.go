package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm/logger"

	"github.com/silpredict/silpredict/internal/advisor"
	"github.com/silpredict/silpredict/internal/config"
	"github.com/silpredict/silpredict/internal/database"
	"github.com/silpredict/silpredict/internal/filter"
	"github.com/silpredict/silpredict/internal/jobs"
	"github.com/silpredict/silpredict/internal/measurement"
	"github.com/silpredict/silpredict/internal/metrics"
	"github.com/silpredict/silpredict/internal/rootcause"
	"github.com/silpredict/silpredict/internal/services"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SIL Predictive engine...")

	// Initialize database connection
	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize default database records
	if err := database.InitializeDefaults(); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}

	db := database.GetDB()
	settings, err := database.GetOrCreateFilterSettings(db)
	if err != nil {
		log.Fatalf("Failed to load filter settings: %v", err)
	}

	// Environment-provided intervals take precedence over the stored row
	if cfg.FilterIntervalMinutes != settings.FilterIntervalMinutes ||
		cfg.AnalysisIntervalMinutes != settings.AnalysisIntervalMinutes {
		settings.FilterIntervalMinutes = cfg.FilterIntervalMinutes
		settings.AnalysisIntervalMinutes = cfg.AnalysisIntervalMinutes
		if err := database.UpdateFilterSettings(db, settings); err != nil {
			log.Printf("Warning: Failed to persist job intervals: %v", err)
		}
	}

	// Load the threshold profile used to turn measurements into alerts
	profile, err := measurement.LoadProfile(cfg.ThresholdProfilePath)
	if err != nil {
		log.Fatalf("Failed to load threshold profile %s: %v", cfg.ThresholdProfilePath, err)
	}
	log.Printf("Threshold profile loaded from %s", cfg.ThresholdProfilePath)

	store := database.NewStore(db)
	alertService := services.NewAlertService(db)
	measurementService := services.NewMeasurementService(db, profile)

	// Validator configured from the settings singleton
	validator := filter.NewValidator(filter.Config{
		FalsePositiveThreshold: settings.FalsePositiveThreshold,
		MinSamples:             settings.MinPatternSamples,
		DuplicateThreshold:     settings.DuplicateThreshold,
		HistoryWindow:          time.Duration(settings.HistoryWindowHours) * time.Hour,
		RateWindow:             time.Duration(settings.RateWindowDays) * 24 * time.Hour,
	})
	log.Printf("Alarm filter initialized (false-positive threshold %.2f)", settings.FalsePositiveThreshold)

	// Advisory narratives are optional; without a key the analyzer runs bare
	var adv rootcause.Advisor
	if cfg.AnthropicAPIKey != "" {
		adv = advisor.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		log.Printf("Advisory narratives enabled (model %s)", cfg.AnthropicModel)
	} else {
		log.Printf("Advisory narratives disabled (no API key configured)")
	}

	analyzer := rootcause.NewAnalyzer(rootcause.Config{
		Window:         time.Duration(settings.AnalysisWindowDays) * 24 * time.Hour,
		MinOccurrences: settings.MinPatternOccurrences,
	}, store, adv)
	log.Printf("Root cause analyzer initialized (window %d days)", settings.AnalysisWindowDays)

	// Register metrics and expose the scrape endpoint alongside the
	// measurement intake
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ingest/measurement", ingestHandler(measurementService))
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: mux,
	}
	go func() {
		log.Printf("HTTP listener on port %d (/metrics, /ingest/measurement)", cfg.MetricsPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP listener error: %v", err)
		}
	}()

	// Start the background jobs
	stop := make(chan struct{})
	filterJob := jobs.NewFilterJob(db, store, validator, alertService)
	go filterJob.Start(stop)
	log.Printf("Filter job started (every %d minutes)", settings.FilterIntervalMinutes)

	analysisJob := jobs.NewAnalysisJob(db, store, analyzer)
	go analysisJob.Start(stop)
	log.Printf("Analysis job started (every %d minutes)", settings.AnalysisIntervalMinutes)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")
	close(stop)
	if err := httpServer.Close(); err != nil {
		log.Printf("Error shutting down HTTP listener: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("Shutdown complete")
}

// ingestRequest is the measurement intake payload. Kind selects the typed
// shape (thermography points, an oil sample, or vibration axes); without a
// kind the raw source/readings envelope is ingested as-is.
type ingestRequest struct {
	Kind        string    `json:"kind"`
	EquipmentID string    `json:"equipment_id"`
	Timestamp   time.Time `json:"timestamp"`

	Points []measurement.ThermographyPoint `json:"points,omitempty"`
	Sample *measurement.OilSample          `json:"sample,omitempty"`
	Axes   []measurement.VibrationAxis     `json:"axes,omitempty"`

	Source   measurement.Source    `json:"source,omitempty"`
	Readings []measurement.Reading `json:"readings,omitempty"`
	Extra    map[string]float64    `json:"extra,omitempty"`
}

// ingestHandler accepts one measurement per request, evaluates it against the
// threshold profile, and reports the raised alert if any.
func ingestHandler(svc *services.MeasurementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid measurement payload: %v", err), http.StatusBadRequest)
			return
		}
		if req.EquipmentID == "" {
			http.Error(w, "equipment_id is required", http.StatusBadRequest)
			return
		}
		if req.Timestamp.IsZero() {
			req.Timestamp = time.Now().UTC()
		}

		var (
			m     *measurement.Measurement
			alert *database.Alert
			err   error
		)
		switch req.Kind {
		case "thermography":
			m, alert, err = svc.IngestThermography(req.EquipmentID, req.Timestamp, req.Points)
		case "oil_analysis":
			if req.Sample == nil {
				http.Error(w, "sample is required for oil_analysis", http.StatusBadRequest)
				return
			}
			m, alert, err = svc.IngestOilAnalysis(req.EquipmentID, req.Timestamp, *req.Sample)
		case "vibration":
			m, alert, err = svc.IngestVibration(req.EquipmentID, req.Timestamp, req.Axes)
		case "":
			m = &measurement.Measurement{
				EquipmentID: req.EquipmentID,
				Timestamp:   req.Timestamp,
				Source:      req.Source,
				Readings:    req.Readings,
				Extra:       req.Extra,
			}
			alert, err = svc.Ingest(m)
		default:
			http.Error(w, fmt.Sprintf("unknown measurement kind %q", req.Kind), http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Printf("Measurement ingest failed for equipment %s: %v", req.EquipmentID, err)
			http.Error(w, "failed to store measurement", http.StatusInternalServerError)
			return
		}

		resp := map[string]interface{}{
			"measurement_id": m.ID,
			"status":         m.Status,
		}
		if alert != nil {
			resp["alert_id"] = alert.ID
			resp["gravity"] = alert.Gravity
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("Failed to encode ingest response: %v", err)
		}
	}
}
