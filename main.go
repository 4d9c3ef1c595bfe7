package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tastebase/auth"
	"tastebase/config"
	"tastebase/db"
	"tastebase/ingest"
	"tastebase/middleware"
	"tastebase/oauth"
	"tastebase/ratelim"
	"tastebase/recipes"
	"tastebase/routes"
	"tastebase/stats"
	"tastebase/tokens"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(database *db.DB, cache *stats.Cache, tokenSvc *tokens.Service, google *oauth.Handlers) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	rateLimiter := ratelim.New(5, 10)
	routes.AddAuthRoutes(router, auth.NewHandlers(database, tokenSvc), google, rateLimiter)
	routes.AddRecipeRoutes(router, recipes.NewHandlers(database), tokenSvc)
	routes.AddStatsRoutes(router, stats.NewHandlers(database, cache), tokenSvc)

	return router
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	var cache *stats.Cache
	if cfg.RedisAddr != "" {
		cache = &stats.Cache{Client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})}
	}

	tokenSvc := tokens.NewService(cfg.JWTSecret, cfg.TokenTTL)

	var verifier oauth.IdentityVerifier
	if cfg.GoogleClientID != "" {
		verifier, err = oauth.NewGoogleVerifier(context.Background(), cfg.GoogleClientID)
		if err != nil {
			log.Printf("Google OIDC discovery failed, callback disabled: %v", err)
		}
	}
	google := oauth.NewHandlers(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI,
		verifier, database, tokenSvc)

	// start the upload watcher
	pipeline := ingest.NewPipeline(database, cfg.MaxRecipes)
	if cache != nil {
		pipeline.Cache = cache
	}
	watchCtx, stopWatch := context.WithCancel(context.Background())
	watcher := ingest.NewWatcher(cfg.UploadDir, pipeline)
	go func() {
		if err := watcher.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			log.Printf("ingest: watcher stopped: %v", err)
		}
	}()

	router := setupRouter(database, cache, tokenSvc, google)

	// apply middleware: CORS, security headers, logging
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.RequestLogger(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	if err := database.Close(ctx); err != nil {
		log.Printf("Mongo disconnect: %v", err)
	}

	log.Println("Server stopped cleanly")
}
