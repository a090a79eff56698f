package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"BeatWave/cache"
	"BeatWave/config"
	"BeatWave/core/auth"
	"BeatWave/core/catalog"
	"BeatWave/core/marketplace"
	"BeatWave/core/submission"
	"BeatWave/db"
	"BeatWave/logger"
	"BeatWave/repository"
	"BeatWave/storage"
)

// playFlushInterval is how often buffered play counts are written back to
// the database.
const playFlushInterval = 30 * time.Second

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  5 * time.Minute, // uploads can be slow on bad links
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()
	if err := db.MigrateGormModels(); err != nil {
		logger.Fatal("failed to migrate GORM models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()
	logger.Info("successfully connected to Redis")

	beatRepo := repository.NewMySQLBeatRepository()
	userRepo := repository.NewMySQLUserRepository(db.DB)
	profileRepo := repository.NewGormProfileRepository(db.GormDB)

	blobStore := storage.NewBeatStore(storage.GetMinioClient(), cfg.MinioBucket)
	homeCache := cache.NewHomeCache(db.RedisClient)
	playCounter := cache.NewPlayCounter(db.RedisClient, beatRepo)

	queries := catalog.NewQueryService(beatRepo, homeCache)
	validator := submission.NewValidator(cfg.MaxAudioSize, cfg.MaxCoverSize)
	facade := marketplace.NewFacade(beatRepo, blobStore, validator, queries, playCounter)

	apiHandler := NewAPIHandler(facade, userRepo, profileRepo, blobStore, cfg)

	flushCtx, stopFlusher := context.WithCancel(context.Background())
	flusherDone := make(chan struct{})
	go func() {
		playCounter.RunFlusher(flushCtx, playFlushInterval)
		close(flusherDone)
	}()

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Authentication endpoints
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Public catalog endpoints
	router.HandleFunc("/api/beats/home", apiHandler.HomeHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/beats/{id:[0-9]+}", apiHandler.BeatDetailHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/beats/{id:[0-9]+}/play", apiHandler.RecordPlayHandler).Methods(http.MethodPost)

	// Producer endpoints
	router.HandleFunc("/api/upload", apiHandler.AuthMiddleware(apiHandler.UploadBeatHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/beats/{id:[0-9]+}/feature", apiHandler.AuthMiddleware(apiHandler.FeatureBeatHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/profile", apiHandler.AuthMiddleware(apiHandler.GetProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/profile", apiHandler.AuthMiddleware(apiHandler.UpdateProfileHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/profile/avatar", apiHandler.AuthMiddleware(apiHandler.UploadAvatarHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/profile/beats", apiHandler.AuthMiddleware(apiHandler.ProfileBeatsHandler)).Methods(http.MethodGet)

	// Blob serving from MinIO (covers, avatars, audio previews)
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/static/")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := blobStore.Get(ctx, objectPath)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		var contentType string
		if strings.HasPrefix(objectPath, "covers/") || strings.HasPrefix(objectPath, "avatars/") {
			contentType = "image/jpeg"
		} else if strings.HasPrefix(objectPath, "audio/") {
			contentType = "audio/mpeg"
		} else {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000") // objects are immutable, cache for a year

		if _, err := io.Copy(w, object); err != nil {
			logger.Error("error serving file from MinIO", logger.ErrorField(err))
		}
	})

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	// Stop the flusher and wait for its final play-count drain to finish
	// before the deferred connection closes run.
	stopFlusher()
	<-flusherDone

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}
