package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/learncert/internal/api"
	"github.com/vytor/learncert/internal/auth"
	"github.com/vytor/learncert/internal/config"
	"github.com/vytor/learncert/internal/db"
	"github.com/vytor/learncert/internal/jobs"
	"github.com/vytor/learncert/internal/logger"
	"github.com/vytor/learncert/internal/repository"
	"github.com/vytor/learncert/internal/repository/postgres"
	"github.com/vytor/learncert/internal/repository/sqlite"
	"github.com/vytor/learncert/internal/scoring"
	"github.com/vytor/learncert/internal/services"
	"github.com/vytor/learncert/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("LearnCert Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("mirror_enabled=%t", cfg.MirrorEnabled())
	log.Debug("mirror_worker_count=%d", cfg.MirrorWorkerCount)
	log.Debug("mirror_queue_size=%d", cfg.MirrorQueueSize)
	log.Debug("resync_interval=%v", cfg.ResyncInterval)
	log.Debug("resync_grace=%v", cfg.ResyncGrace)
	log.Debug("section_pass_accuracy=%d", cfg.SectionPassAccuracy)
	log.Debug("master_pass_accuracy=%d", cfg.MasterPassAccuracy)
	log.Debug("master_min_sections=%d", cfg.MasterMinSections)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	userRepo := sqlite.NewUserRepository(database.DB)
	responseRepo := sqlite.NewResponseRepository(database.DB)
	completionRepo := sqlite.NewCompletionRepository(database.DB)
	certRepo := sqlite.NewCertificateRepository(database.DB)
	reviewRepo := sqlite.NewReviewRepository(database.DB)
	outboxRepo := sqlite.NewOutboxRepository(database.DB)

	// Remote mirror is optional; without it the app runs local-only.
	var (
		mirror     repository.MirrorRepository
		mirrorPing api.Pinger
		queue      jobs.JobQueue
	)
	mirrorPool := worker.NewPool(cfg.MirrorWorkerCount, cfg.MirrorQueueSize)
	if cfg.MirrorEnabled() {
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		pg, err := postgres.Open(connectCtx, cfg.RemoteDSN)
		connectCancel()
		if err != nil {
			log.Warn("remote mirror unavailable, running local-only: %v", err)
		} else {
			defer pg.Close()
			mirror, mirrorPing = pg, pg
			queue = jobs.NewWorkerQueue(mirrorPool, outboxRepo, mirror)
		}
	}

	rules := scoring.Rules{
		SectionAccuracy:   cfg.SectionPassAccuracy,
		MasterAccuracy:    cfg.MasterPassAccuracy,
		MasterMinSections: cfg.MasterMinSections,
	}

	// Initialize services
	syncService := services.NewSyncService(outboxRepo, mirror, queue, services.WithResyncGrace(cfg.ResyncGrace))
	userService := services.NewUserService(userRepo, syncService)
	certificateService := services.NewCertificateService(certRepo, completionRepo, responseRepo, syncService, rules)
	learningService := services.NewLearningService(responseRepo, completionRepo, certificateService, syncService)
	progressService := services.NewProgressService(userService, certificateService, rules)
	reviewService := services.NewReviewService(reviewRepo, syncService)
	adminService := services.NewAdminService(userRepo, responseRepo, completionRepo, certRepo, reviewRepo, outboxRepo, certificateService, syncService)

	adminAuth := auth.NewAdminAuth(cfg.AdminPassHash, cfg.AdminTokenSecret, cfg.AdminTokenTTL)
	if !adminAuth.Enabled() {
		log.Warn("ADMIN_PASS_HASH not set, admin routes are disabled")
	}

	srv := &api.Server{
		UserService:        userService,
		LearningService:    learningService,
		ProgressService:    progressService,
		CertificateService: certificateService,
		ReviewService:      reviewService,
		AdminService:       adminService,
		AdminAuth:          adminAuth,
		DB:                 database,
		Mirror:             mirrorPing,
		CORSOrigins:        cfg.CORSOrigins,
		SecureCookies:      cfg.SecureCookies,
	}

	mirrorPool.Start(ctx)
	if syncService.Enabled() {
		syncService.MirrorCatalog(ctx)
		go func() {
			if _, err := syncService.Resync(ctx); err != nil {
				log.Error("startup resync failed: %v", err)
			}
			syncService.RunPeriodic(ctx, cfg.ResyncInterval)
		}()
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Unfinished mirror writes stay pending in the outbox for the next resync.
	log.Debug("stopping mirror pool")
	cancel()
	mirrorPool.Stop()

	log.Info("===========================================")
	log.Info("LearnCert Server Stopped")
	log.Info("===========================================")
}
