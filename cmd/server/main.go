package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"cpdtrack/internal/audit"
	"cpdtrack/internal/catalog"
	"cpdtrack/internal/credit"
	"cpdtrack/internal/cycle"
	"cpdtrack/internal/platform/config"
	"cpdtrack/internal/platform/httpserver"
	"cpdtrack/internal/platform/logger"
	"cpdtrack/internal/platform/metrics"
	"cpdtrack/internal/practitioner"
	"cpdtrack/internal/rule"
	"cpdtrack/internal/submission"
	"cpdtrack/pkg/requestcontext"
)

// main wires stores, services, and the ops HTTP surface. Business logic
// lives in the internal packages; this file only assembles them.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	m := metrics.New()

	catalogStore := catalog.NewPostgresStore(db)
	practitionerStore := practitioner.NewPostgresStore(db)
	ruleStore := rule.NewPostgresStore(db)
	submissionStore := submission.NewPostgresStore(db)
	auditSvc := audit.NewService(audit.NewPostgresStore(db), log)

	ruleResolver := rule.NewResolver(ruleStore)
	aggregator := credit.NewAggregator(submissionStore, catalogStore, ruleResolver)
	calculator := cycle.NewCalculator(ruleResolver, practitionerStore, aggregator)

	scheduler := cron.New()
	if cfg.DeadlineSweepSpec != "" {
		sweeper := cycle.NewSweeper(calculator, practitionerStore, auditSvc, log, m, cfg.CohortPageSize)
		_, err := scheduler.AddFunc(cfg.DeadlineSweepSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			// One timestamp for the whole run keeps every cycle window
			// anchored to the same instant.
			ctx = requestcontext.WithTime(ctx, time.Now())
			if _, err := sweeper.Run(ctx); err != nil {
				log.WithError(err).Error("deadline sweep failed")
			}
		})
		if err != nil {
			log.WithError(err).Fatal("schedule deadline sweep")
		}
		scheduler.Start()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.WithField("addr", cfg.Addr).Info("starting cpdtrack")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cfg.DeadlineSweepSpec != "" {
		<-scheduler.Stop().Done()
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("graceful shutdown failed")
	}
}
