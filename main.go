package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"social-media-restful/auth"
	"social-media-restful/config"
	"social-media-restful/controllers"
	"social-media-restful/database"
	grpcserver "social-media-restful/grpc_server"
	"social-media-restful/registry"
	"social-media-restful/repositories"
	"social-media-restful/services"
	"social-media-restful/storage"
)

func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	switch cfg.LogLevel {
	case "debug":
		logger, _ = zap.NewDevelopment()
	default:
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Open(cfg.DatabaseURL, cfg.LogLevel, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.SeedGenders(db, logger); err != nil {
		return err
	}

	store, err := newPictureStore(ctx, cfg)
	if err != nil {
		return err
	}
	hasher, err := auth.NewPasswordHasher(cfg.PasswordScheme)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenIssuer([]byte(cfg.JwtSecret), cfg.TokenTTL)

	userRepo := repositories.NewUserRepository(db)
	genderRepo := repositories.NewGenderRepository(db)

	ws := controllers.NewWebService(
		controllers.NewUserController(services.NewUserService(userRepo, hasher, tokens, logger), tokens, logger),
		controllers.NewGenderController(services.NewGenderService(genderRepo), logger),
		controllers.NewProfilePictureController(services.NewProfilePictureService(userRepo, store, logger), cfg.StrictUploadErrors, logger),
		controllers.NewHealthController(sqlDB, logger),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newContainer(cfg, logger, ws),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpcserver.NewServer(cfg.GRPCAddr(), cfg.ServiceName, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	grpcCtx, stopGRPC := context.WithCancel(ctx)
	defer stopGRPC()
	go func() {
		if err := grpcServer.Run(grpcCtx); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	if cfg.Consul.Enabled {
		deregister, err := registerWithConsul(ctx, cfg, logger)
		if err != nil {
			// the service keeps running undiscoverable
			logger.Error("Consul registration failed", zap.Error(err))
		} else {
			defer deregister()
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-errCh:
	}

	stopGRPC()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown incomplete", zap.Error(shutdownErr))
	}
	return err
}

func newPictureStore(ctx context.Context, cfg *config.Config) (storage.PictureStore, error) {
	if cfg.PictureStore == config.PictureStoreS3 {
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(client, cfg.S3.Bucket, cfg.PictureDir), nil
	}
	return storage.NewLocalStore(cfg.PictureDir), nil
}

func newContainer(cfg *config.Config, logger *zap.Logger, ws *restful.WebService) *restful.Container {
	container := restful.NewContainer()
	container.DoNotRecover(false)
	container.RecoverHandler(controllers.RecoverHandler(logger))
	container.Filter(controllers.AccessLogFilter(logger))

	cors := restful.CrossOriginResourceSharing{
		AllowedDomains: cfg.CORS.AllowedDomains,
		AllowedHeaders: []string{"Content-Type", "Accept", "Authorization"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		CookiesAllowed: false,
		Container:      container,
	}
	container.Filter(cors.Filter)
	container.Filter(container.OPTIONSFilter)

	container.Add(ws)
	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))
	return container
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Social media account API",
			Description: "Registration, login, password reset and profile pictures",
			Version:     "1.0.0",
		},
	}
	swo.SecurityDefinitions = spec.SecurityDefinitions{
		"bearer": spec.APIKeyAuth("Authorization", "header"),
	}
}

func registerWithConsul(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(), error) {
	reg, err := registry.NewConsulRegistry(cfg.Consul.Address, logger)
	if err != nil {
		return nil, err
	}

	regCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	deregister, err := registry.RegisterSelf(regCtx, reg, registry.Instance{
		Name:     cfg.ServiceName,
		Host:     cfg.Consul.AdvertiseHost,
		HTTPPort: cfg.HTTPPort,
		GRPCPort: cfg.GRPCPort,
	}, logger)
	if err != nil {
		return nil, err
	}
	registry.LogPeers(regCtx, reg, cfg.ServiceName, logger)
	return deregister, nil
}
