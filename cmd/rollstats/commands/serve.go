package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"rollstats-go/internal/analytics"
	"rollstats-go/internal/storage"
	"rollstats-go/pkg/config"
)

var (
	samplesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollstats_samples_ingested_total",
		Help: "Number of samples ingested per metric.",
	}, []string{"metric"})

	anomaliesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollstats_anomalies_total",
		Help: "Number of samples flagged as anomalous per metric.",
	}, []string{"metric"})

	rollingMean = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rollstats_rolling_mean",
		Help: "Current rolling mean per metric.",
	}, []string{"metric"})

	rollingStdDev = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rollstats_rolling_stddev",
		Help: "Current rolling sample standard deviation per metric.",
	}, []string{"metric"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rollstats_ingest_queue_depth",
		Help: "Number of samples waiting in the ingest queue.",
	})
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sample ingest API",
		Long: `Run an HTTP server that accepts samples per metric, maintains a rolling
window for each, flags anomalous z-scores, and periodically snapshots the
latest statistics to Redis.`,
		RunE: runServe,
	}

	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", config.DefaultServeAddr, "Listen address")
	cmd.Flags().Float64("window-size", config.DefaultWindowSize, "Number of samples kept per metric")
	cmd.Flags().Float64("threshold", config.DefaultAnomalyThreshold, "Absolute z-score that flags an anomaly")
	cmd.Flags().Int("queue-size", config.DefaultQueueSize, "Ingest queue capacity")
	cmd.Flags().StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	cmd.Flags().String("redis-addr", config.DefaultRedisAddr, "Redis address for snapshots (empty to disable)")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database number")

	viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	viper.BindPFlag("window-size", cmd.Flags().Lookup("window-size"))
	viper.BindPFlag("serve.threshold", cmd.Flags().Lookup("threshold"))
	viper.BindPFlag("serve.queue-size", cmd.Flags().Lookup("queue-size"))
	viper.BindPFlag("serve.cors-origins", cmd.Flags().Lookup("cors-origins"))
	viper.BindPFlag("serve.redis-addr", cmd.Flags().Lookup("redis-addr"))
	viper.BindPFlag("serve.redis-password", cmd.Flags().Lookup("redis-password"))
	viper.BindPFlag("serve.redis-db", cmd.Flags().Lookup("redis-db"))
}

// ingestRequest is the body of POST /ingest.
type ingestRequest struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

type server struct {
	engine  *analytics.Engine
	store   *storage.SnapshotStore
	logger  *zap.Logger
	samples chan ingestRequest
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	logger, ok := ctx.Value("logger").(*zap.Logger)
	if !ok || logger == nil {
		return fmt.Errorf("logger not found in context")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	srv := &server{
		engine:  analytics.NewEngine(cfg.WindowSize, cfg.Serve.AnomalyThreshold, logger),
		logger:  logger,
		samples: make(chan ingestRequest, cfg.Serve.QueueSize),
	}

	if cfg.Serve.RedisAddr != "" {
		store, err := storage.NewSnapshotStore(ctx, cfg.Serve.RedisAddr, cfg.Serve.RedisPassword, cfg.Serve.RedisDB, logger)
		if err != nil {
			logger.Warn("Snapshot persistence disabled", zap.Error(err))
		} else {
			srv.store = store
			defer store.Close()
		}
	}

	workerDone := make(chan struct{})
	go srv.worker(ctx, workerDone)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Serve.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Post("/ingest", srv.handleIngest)
	router.Get("/stats", srv.handleStats)
	router.Get("/latest", srv.handleLatest)
	router.Get("/health", srv.handleHealth)
	router.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Serve.Addr,
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving ingest API", zap.String("addr", cfg.Serve.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}

	close(srv.samples)
	<-workerDone

	logger.Info("Server stopped")
	return nil
}

// worker drains the ingest queue and updates the engine.
func (s *server) worker(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case req, ok := <-s.samples:
			if !ok {
				s.snapshot(context.Background())
				return
			}
			queueDepth.Set(float64(len(s.samples)))

			result := s.engine.Update(req.Metric, req.Value)
			samplesIngested.WithLabelValues(req.Metric).Inc()
			rollingMean.WithLabelValues(req.Metric).Set(result.Mean.Float())
			rollingStdDev.WithLabelValues(req.Metric).Set(result.StdDev.Float())
			if result.Anomaly {
				anomaliesDetected.WithLabelValues(req.Metric).Inc()
			}
		case <-ticker.C:
			s.snapshot(ctx)
		}
	}
}

func (s *server) snapshot(ctx context.Context) {
	if s.store == nil {
		return
	}
	latest := s.engine.Latest()
	if len(latest) == 0 {
		return
	}
	snap := storage.Snapshot{Timestamp: time.Now().UTC(), Results: latest}
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Error("Snapshot save failed", zap.Error(err))
	}
}

func (s *server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Metric == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "metric is required"})
		return
	}

	select {
	case s.samples <- req:
		queueDepth.Set(float64(len(s.samples)))
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	default:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "ingest queue full"})
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Latest())
}

func (s *server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "snapshot persistence disabled"})
		return
	}

	snap, err := s.store.LoadLatest(r.Context())
	if err != nil {
		s.logger.Error("Snapshot load failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load snapshot"})
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"metrics": s.engine.Metrics(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
