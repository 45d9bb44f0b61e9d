package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dibbydollars/backend/docs"
	"github.com/dibbydollars/backend/internal/database"
	"github.com/dibbydollars/backend/internal/handlers"
	mW "github.com/dibbydollars/backend/internal/middleware"
	"github.com/dibbydollars/backend/internal/scheduler"
	"github.com/dibbydollars/backend/internal/services"
)

// @title Dibby Dollars API
// @version 1.0
// @description Classroom reward banking backend with an append-only DB$ ledger
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("session.expiry_hours", "SESSION_EXPIRY_HOURS")
	viper.BindEnv("scheduler.snapshot_time", "SCHEDULER_SNAPSHOT_TIME")
	viper.BindEnv("scheduler.interest_time", "SCHEDULER_INTEREST_TIME")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Dibby Dollars API"
	docs.SwaggerInfo.Description = "Classroom reward banking backend with an append-only DB$ ledger"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerService := services.NewLedgerService(db)
	configService := services.NewConfigService(db)
	snapshotService := services.NewSnapshotService(db, ledgerService)
	interestService := services.NewInterestService(db, ledgerService, snapshotService, configService)
	authService := services.NewAuthService(db, redisClient, ledgerService)
	transactionService := services.NewTransactionService(db, redisClient, ledgerService)
	studentService := services.NewStudentService(db, ledgerService)
	behaviorService := services.NewBehaviorService(db)
	raffleService := services.NewRaffleService(db, ledgerService, snapshotService, configService)
	adminService := services.NewAdminService(db, configService, interestService)
	analyticsService := services.NewAnalyticsService(db, ledgerService)
	cardService := services.NewCardService(db, redisClient)
	cardHandler := handlers.NewCardHandler(cardService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Background jobs: daily snapshots and the weekly interest run
	jobs := scheduler.New(snapshotService, interestService, configService)
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	jobs.Start(jobCtx)
	defer cancelJobs()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/me", authService.Me)

			r.Get("/transactions", transactionService.ListTransactions)
			r.Get("/balance/me", analyticsService.MyBalance)

			// Teacher endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireTeacher)

				r.Post("/transactions/award", transactionService.Award)
				r.Post("/transactions/deposit", transactionService.Deposit)

				r.Get("/students", studentService.ListStudents)
				r.Post("/students", studentService.CreateStudent)
				r.Get("/students/classes", studentService.ListClasses)
				r.Get("/students/{studentId}", studentService.GetStudent)
				r.Put("/students/{studentId}", studentService.UpdateStudent)
				r.Get("/students/{studentId}/qr", cardHandler.GetLoginCard)

				r.Get("/behaviors", behaviorService.ListBehaviors)
				r.Post("/behaviors", behaviorService.CreateBehavior)
				r.Get("/behaviors/focus", behaviorService.GetMyFocus)
				r.Put("/behaviors/focus", behaviorService.SetMyFocus)

				r.Post("/raffle/draw", raffleService.ConductDraw)
				r.Get("/raffle/history", raffleService.ListDraws)

				r.Get("/balance/{userId}", analyticsService.UserBalance)
				r.Get("/analytics/leaderboard", analyticsService.Leaderboard)
				r.Get("/analytics/behavior-breakdown", analyticsService.BehaviorBreakdown)
				r.Get("/analytics/system-stats", analyticsService.SystemStats)
			})

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireAdmin)

				r.Get("/admin/config", adminService.GetConfig)
				r.Put("/admin/config", adminService.UpdateConfig)
				r.Get("/admin/users", adminService.ListUsers)
				r.Post("/admin/users", adminService.CreateUser)
				r.Post("/admin/trigger-interest", adminService.TriggerInterest)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	jobs.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
