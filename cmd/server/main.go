package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/config"
	"github.com/Webizinnovation/serveEz-sub003/internal/database"
	"github.com/Webizinnovation/serveEz-sub003/internal/handlers"
	"github.com/Webizinnovation/serveEz-sub003/internal/realtime"
	"github.com/Webizinnovation/serveEz-sub003/internal/repository"
	"github.com/Webizinnovation/serveEz-sub003/internal/routes"
	"github.com/Webizinnovation/serveEz-sub003/internal/services"
	"github.com/Webizinnovation/serveEz-sub003/internal/unread"
	chatws "github.com/Webizinnovation/serveEz-sub003/internal/websocket"
	"github.com/Webizinnovation/serveEz-sub003/pkg/logger"
)

type runnableFeed interface {
	chatlist.ChangeFeed
	Run(ctx context.Context) error
}

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(cfg.AppEnv)
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(ctx, cfg.DBUrl, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 3. Change feed
	feed, err := newChangeFeed(ctx, cfg, log.Named("realtime"))
	if err != nil {
		log.Fatal("failed to set up change feed", zap.Error(err))
	}
	go func() {
		if err := feed.Run(ctx); err != nil {
			log.Error("change feed stopped", zap.Error(err))
		}
	}()

	// 4. Services
	storage, err := newStorageService(ctx, cfg)
	if err != nil {
		log.Fatal("failed to set up storage", zap.Error(err))
	}

	hub := chatws.NewHub(log.Named("hub"))
	go hub.Run(ctx)

	gateway := repository.NewGateway(db)
	sessions := services.NewSessionManager(
		gateway,
		feed,
		unread.NewRegistry(nil),
		hub,
		chatlist.Options{
			Debounce:             cfg.Sync.Debounce,
			ForegroundStaleAfter: cfg.Sync.ForegroundStaleAfter,
			MarkReadDelay:        cfg.Sync.MarkReadDelay,
			Location:             cfg.Location(),
		},
		log,
	)
	defer sessions.Close()

	chatService := services.NewChatService(sessions, gateway)
	profileService := services.NewProfileService(repository.NewProfileRepository(db), storage, log.Named("profile"))
	walletService := services.NewWalletService(repository.NewWalletRepository(db))

	// 5. Setup Fiber
	app := fiber.New()

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	routes.RegisterRoutes(app, cfg.JWTSecret, routes.Handlers{
		Chat:    handlers.NewChatHandler(chatService, hub, log.Named("handlers")),
		Profile: handlers.NewProfileHandler(profileService, cfg.StorageEnabled()),
		Wallet:  handlers.NewWalletHandler(walletService),
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown", zap.Error(err))
		}
	}()

	// 6. Start Server
	log.Info("server starting", zap.String("port", cfg.Port), zap.String("change_feed", cfg.ChangeFeed))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server failed to start", zap.Error(err))
	}
}

func newChangeFeed(ctx context.Context, cfg *config.Config, log *zap.Logger) (runnableFeed, error) {
	switch cfg.ChangeFeed {
	case config.FeedRedis:
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return realtime.NewRedisFeed(client, cfg.FeedChannel, log), nil
	case config.FeedPostgres:
		return realtime.NewPostgresFeed(cfg.DBUrl, cfg.FeedChannel, log), nil
	default:
		return nil, errors.New("unsupported change feed " + cfg.ChangeFeed)
	}
}

// newStorageService returns a nil interface when no bucket is configured.
func newStorageService(ctx context.Context, cfg *config.Config) (services.StorageService, error) {
	if !cfg.StorageEnabled() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Storage.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := cfg.Storage.PublicBaseURL
	if publicBaseURL == "" {
		publicBaseURL = cfg.Storage.Endpoint
	}
	return services.NewS3StorageService(client, cfg.Storage.Bucket, publicBaseURL, cfg.Storage.PresignTTL), nil
}
