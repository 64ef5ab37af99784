package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/quickdesk/quickdesk/internal/api/http"
	"github.com/quickdesk/quickdesk/internal/api/http/handlers"
	"github.com/quickdesk/quickdesk/internal/config"
	"github.com/quickdesk/quickdesk/internal/events"
	"github.com/quickdesk/quickdesk/internal/identity"
	"github.com/quickdesk/quickdesk/internal/mail"
	"github.com/quickdesk/quickdesk/internal/observability"
	"github.com/quickdesk/quickdesk/internal/persistence"
	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/internal/service"
	"github.com/quickdesk/quickdesk/internal/storage"
	"github.com/quickdesk/quickdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	var (
		accounts    repository.AccountRepository
		categories  repository.CategoryRepository
		tickets     repository.TicketRepository
		comments    repository.CommentRepository
		attachments repository.AttachmentRepository
		votes       repository.VoteRepository
	)
	if pool := postgres.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("migrations failed", zap.Error(err))
			}
		}
		accounts = repository.NewAccountRepository(pool)
		categories = repository.NewCategoryRepository(pool)
		tickets = repository.NewTicketRepository(pool)
		comments = repository.NewCommentRepository(pool)
		attachments = repository.NewAttachmentRepository(pool)
		votes = repository.NewVoteRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		accounts = store.Accounts
		categories = store.Categories
		tickets = store.Tickets
		comments = store.Comments
		attachments = store.Attachments
		votes = store.Votes
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var blobs storage.BlobStore
	if cfg.Storage.Endpoint != "" {
		minioClient, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Fatal("minio client failed", zap.Error(err))
		}
		if err := minioClient.EnsureBucket(ctx); err != nil {
			logger.Fatal("minio bucket setup failed", zap.Error(err))
		}
		blobs = minioClient
		logger.Info("attachment storage using minio", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		blobs = storage.NewMemoryBlobStore()
		logger.Warn("MINIO_ENDPOINT not provided; attachments held in memory")
	}

	var dispatcher events.Dispatcher
	if cfg.Queue.URL != "" {
		amqpDispatcher, err := events.NewAMQPDispatcher(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		defer amqpDispatcher.Close()
		dispatcher = amqpDispatcher
		logger.Info("notifications routed through rabbitmq", zap.String("queue", cfg.Queue.Queue))
	} else {
		dispatcher = events.NewInMemoryDispatcher()
		logger.Info("notifications dispatched in process")
	}

	verifier := identity.NewVerifier(cfg.Identity)
	principalCache := identity.NewPrincipalCache(redis.Client, cfg.Redis.PrincipalTTL())
	mailer := mail.NewSMTPMailer(cfg.SMTP)
	if !mailer.IsConfigured() {
		logger.Warn("SMTP_HOST not provided; notification email disabled")
	}

	accountService := service.NewAccountService(accounts, tickets, principalCache, logger)
	categoryService := service.NewCategoryService(categories, tickets, logger)
	ticketService := service.NewTicketService(tickets, comments, attachments, votes, categories, accounts, blobs, dispatcher, logger)
	notificationService := service.NewNotificationService(tickets, accounts, categories, comments, mailer, cfg.App.FrontendURL, logger)

	notificationWorker := worker.NewNotificationWorker(dispatcher, notificationService, logger)
	notificationWorker.Start(ctx)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    60 << 20,
		ErrorHandler: httpapi.ErrorHandler(logger, metrics, cfg.App.Production()),
	})
	app.Use(httpapi.Recover(logger))
	app.Use(httpapi.RequestTimeout(cfg.App.RequestTimeout()))
	app.Use(observability.RequestLogger(logger, metrics))

	router := &httpapi.Router{
		Health:       handlers.NewHealthHandler(postgres, redis, cfg.App.Version),
		Auth:         handlers.NewAuthHandler(verifier, accountService),
		Tickets:      handlers.NewTicketHandler(ticketService),
		Categories:   handlers.NewCategoryHandler(categoryService),
		Users:        handlers.NewUserHandler(accountService),
		Authenticate: identity.Middleware(verifier, accountService, principalCache, logger),
	}
	router.Register(app)

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
