package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/annboard/annboard/internal/config"
	"github.com/annboard/annboard/internal/handlers"
	"github.com/annboard/annboard/internal/httprange"
	"github.com/annboard/annboard/internal/middleware"
	"github.com/annboard/annboard/internal/repository"
	"github.com/annboard/annboard/internal/service"
	"github.com/annboard/annboard/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dynamoClient, err := initDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	fileStore, err := initFileStore(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize file store")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	announcementRepo := repository.NewAnnouncementRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	assetRepo := repository.NewAssetRepository(dynamoClient, cfg.DynamoDB.TableName, logger)

	// Services
	jwtService, err := service.NewJWTService(&cfg.JWT, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize JWT service")
	}

	revocationService := service.NewRevocationService(redisClient, logger)
	authorizer := service.NewAdminEmailAuthorizer(cfg.JWT.AdminEmail)
	assetService := service.NewAssetService(fileStore, logger)
	streamer := httprange.NewStreamer(fileStore, logger)

	authHandlers := handlers.NewAuthHandlers(userRepo, jwtService, revocationService, authorizer, logger)
	announcementHandlers := handlers.NewAnnouncementHandlers(
		announcementRepo, assetRepo, userRepo, assetService, cfg.Upload.MaxFileSize, logger)
	assetHandlers := handlers.NewAssetHandlers(
		assetRepo, announcementRepo, assetService, streamer, cfg.Upload.MaxFileSize, logger)
	userHandlers := handlers.NewUserHandlers(userRepo, logger)

	authMiddleware := middleware.NewAuthMiddleware(jwtService, revocationService, userRepo, authorizer, logger)
	router := setupRouter(authHandlers, announcementHandlers, assetHandlers, userHandlers, authMiddleware, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")
	return client, nil
}

func initFileStore(cfg *config.Config) (storage.FileStore, error) {
	if cfg.Storage.Backend == "s3" {
		return storage.NewS3Store(context.Background(), storage.S3Options{
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
		})
	}
	return storage.NewLocalStore(cfg.Storage.LocalRoot)
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	announcementHandlers *handlers.AnnouncementHandlers,
	assetHandlers *handlers.AssetHandlers,
	userHandlers *handlers.UserHandlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/refresh", authHandlers.Refresh).Methods("POST", "OPTIONS")

	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.HandleFunc("/me", authHandlers.Me).Methods("GET")
	authProtected.HandleFunc("/logout", authHandlers.Logout).Methods("POST")

	public := api.PathPrefix("/public").Subrouter()
	public.HandleFunc("/announcements", announcementHandlers.Index).Methods("GET", "OPTIONS")
	public.HandleFunc("/announcements/{id}", announcementHandlers.Show).Methods("GET", "OPTIONS")
	public.HandleFunc("/assets/{id}", assetHandlers.Show).Methods("GET", "OPTIONS")
	public.HandleFunc("/assets/{id}/stream", assetHandlers.Stream).Methods("GET", "OPTIONS")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware.RequireAuth)
	admin.Use(authMiddleware.RequireAdmin)

	admin.HandleFunc("/announcements", announcementHandlers.Store).Methods("POST")
	admin.HandleFunc("/announcements/{id}", announcementHandlers.Update).Methods("PUT", "PATCH")
	admin.HandleFunc("/announcements/{id}", announcementHandlers.Destroy).Methods("DELETE")

	admin.HandleFunc("/assets", assetHandlers.Index).Methods("GET")
	admin.HandleFunc("/assets", assetHandlers.Store).Methods("POST")
	admin.HandleFunc("/assets/{id}", assetHandlers.Update).Methods("PUT", "PATCH")
	admin.HandleFunc("/assets/{id}", assetHandlers.Destroy).Methods("DELETE")

	admin.HandleFunc("/users", userHandlers.Index).Methods("GET")
	admin.HandleFunc("/users/{id}", userHandlers.Show).Methods("GET")
	admin.HandleFunc("/users", userHandlers.Store).Methods("POST")
	admin.HandleFunc("/users/{id}", userHandlers.Update).Methods("PUT", "PATCH")
	admin.HandleFunc("/users/{id}", userHandlers.Destroy).Methods("DELETE")

	return router
}
