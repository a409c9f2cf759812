package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/uninest/backend/docs"
	"github.com/uninest/backend/internal/auth/token"
	"github.com/uninest/backend/internal/config"
	"github.com/uninest/backend/internal/logger"
	"github.com/uninest/backend/internal/metrics"
	"github.com/uninest/backend/internal/repositories"
	"github.com/uninest/backend/internal/server"
	"github.com/uninest/backend/internal/services"
	"github.com/uninest/backend/migrations"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// accountStore is satisfied by both credential store drivers
type accountStore interface {
	services.AccountRepository
	services.AccountStatusRepository
}

// @title UniNest Backend API
// @version 1.0
// @description Registration, login and session token verification for the UniNest accommodation platform

// @host localhost:5000
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Administration API key.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting UniNest backend", zap.String("env", cfg.Env), zap.String("driver", cfg.Database.Driver))

	// Connect to the credential store; the service does not run without it
	store, closeStore, err := openStore(cfg, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer closeStore()

	tokenGenerator := token.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	// Initialize services
	authService := services.NewAuthService(store, tokenGenerator, cfg.Security.BcryptCost, logger.Logger)
	adminService := services.NewAdminService(store, logger.Logger)

	r := server.NewRouter(server.Dependencies{
		Config:       cfg,
		Logger:       logger.Logger,
		Metrics:      metrics.New(),
		AuthService:  authService,
		AdminService: adminService,
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// openStore connects the configured driver and prepares its schema
func openStore(cfg *config.Config, logger *zap.Logger) (accountStore, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		db, err := connectMySQL(cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.Up(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", zap.Error(err))
			}
		}
		return repositories.NewAccountRepository(db, logger), closeFn, nil

	default:
		client, err := connectMongo(cfg.MongoURI())
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logger.Error("failed to disconnect from MongoDB", zap.Error(err))
			}
		}

		repo := repositories.NewMongoAccountRepository(client.Database(cfg.Database.DBName), logger)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil
	}
}

// connectMySQL connects to the database
func connectMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// connectMongo connects to MongoDB and verifies the connection
func connectMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}
