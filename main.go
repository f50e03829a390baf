package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/proventus/backend/src/config"
	"github.com/username/proventus/backend/src/database"
	"github.com/username/proventus/backend/src/feeds"
	"github.com/username/proventus/backend/src/handlers"
	"github.com/username/proventus/backend/src/logger"
	"github.com/username/proventus/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Proventus backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing feed cache...", "ttl", config.Cfg.FeedCacheTTL)
	feedCache := cache.New(config.Cfg.FeedCacheTTL, 2*config.Cfg.FeedCacheTTL)

	logger.L.Info("Initializing feeds, services and handlers...")
	// Feed order fixes reconciliation precedence: brapi is the
	// higher-trust source and wins conflicting duplicates.
	brapiFeed, err := feeds.GetFeed("brapi")
	if err != nil {
		logger.L.Error("Failed to initialize brapi feed", "error", err)
		os.Exit(1)
	}
	statusInvestFeed, err := feeds.GetFeed("statusinvest")
	if err != nil {
		logger.L.Error("Failed to initialize statusinvest feed", "error", err)
		os.Exit(1)
	}

	store := services.NewSQLiteStore()
	syncService := services.NewSyncService(
		store,
		[]feeds.DividendFeed{brapiFeed, statusInvestFeed},
		config.Cfg.SyncWindowDays,
		feedCache,
		config.Cfg.FeedCacheTTL,
	)
	syncHandler := handlers.NewSyncHandler(syncService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/sync/dividends", syncHandler.HandleTriggerSync)
	apiRouter.HandleFunc("GET /api/sync/state", syncHandler.HandleGetSyncState)
	apiRouter.HandleFunc("GET /api/income-records", syncHandler.HandleGetIncomeRecords)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Proventus Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // sync runs hit external feeds per ticker
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
