package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/workout-planner/internal/api"
	"alcyxob/workout-planner/internal/cloudsync"
	"alcyxob/workout-planner/internal/config"
	"alcyxob/workout-planner/internal/identity"
	"alcyxob/workout-planner/internal/localstore"
	"alcyxob/workout-planner/internal/logging"
	"alcyxob/workout-planner/internal/repository/mongo"
	"alcyxob/workout-planner/internal/service"
	"alcyxob/workout-planner/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(cfg.Logging)
	log.Info("starting workout planner server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureGoalIndexes(ctx, appDB.Collection("goals"))
		log.Info("index creation completed")
	}()

	// --- Backup Storage (optional) ---
	var backupStorage storage.BackupStorage
	if cfg.S3.BucketName != "" {
		backupStorage, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Warn("no S3 bucket configured, backup export disabled")
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	snapshotRepo := mongo.NewMongoSnapshotRepository(appDB)
	goalRepo := mongo.NewMongoGoalRepository(appDB)

	// --- Local store and sync plumbing ---
	localAdapter := localstore.NewAdapter(localstore.NewFileKV(cfg.Sync.DataDir))
	ids := identity.NewBroadcaster()
	monitor := cloudsync.NewGoalMonitor(goalRepo)

	planService := service.NewPlanService(localAdapter, monitor, ids, backupStorage)
	defer planService.Close()

	reconciler := cloudsync.NewReconciler(
		snapshotRepo,
		localAdapter,
		cloudsync.NewWallTimer(),
		mongo.NewPingChecker(dbClient),
		planService.ApplyRemote,
		cloudsync.Options{Debounce: cfg.Sync.Debounce},
	)
	defer reconciler.Close()

	// The broadcaster notifies in subscription order: the reconciler
	// subscribes first so a sign-in pulls the remote snapshot before the
	// plan service's goal monitor pass reads the history.
	unsubscribe := ids.Subscribe(reconciler.OnIdentity)
	defer unsubscribe()
	planService.AttachReconciler(reconciler)

	// --- Services ---
	authService := service.NewAuthService(userRepo, ids, cfg.JWT.Secret, cfg.JWT.Expiration)
	goalService := service.NewGoalService(goalRepo)

	// --- HTTP ---
	router := gin.Default()
	api.SetupRoutes(router, authService, planService, goalService, snapshotRepo)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Info("server exiting")
}
