package appServer

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gilson954/sistema-rifa-sub001/config"
	"github.com/gilson954/sistema-rifa-sub001/internal/database"
	"github.com/gilson954/sistema-rifa-sub001/internal/database/memory"
	repository "github.com/gilson954/sistema-rifa-sub001/internal/database/postgres"
	redisRepo "github.com/gilson954/sistema-rifa-sub001/internal/database/redis"
	"github.com/gilson954/sistema-rifa-sub001/internal/provider"
	"github.com/gilson954/sistema-rifa-sub001/internal/service"
	"github.com/gilson954/sistema-rifa-sub001/internal/transport"
	"github.com/gilson954/sistema-rifa-sub001/internal/worker"
	"github.com/gilson954/sistema-rifa-sub001/pkg/clock"
	"github.com/gilson954/sistema-rifa-sub001/pkg/kafka"
	"github.com/gilson954/sistema-rifa-sub001/pkg/postgres"
	"github.com/gilson954/sistema-rifa-sub001/pkg/rabbitmq"
	"github.com/gilson954/sistema-rifa-sub001/pkg/redis"
	"github.com/gilson954/sistema-rifa-sub001/pkg/storage"
	"github.com/gilson954/sistema-rifa-sub001/pkg/telegram"
	"github.com/gilson954/sistema-rifa-sub001/pkg/thumbnail"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second, // proof uploads
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type repositories struct {
	campaigns database.CampaignRepository
	orders    database.OrderRepository
	tickets   database.TicketRepository
	proofs    database.ProofRepository
	oplog     database.OperationLogRepository
	ping      func() error
	close     func() error
}

// openRepositories выбирает хранилище по database.driver
func openRepositories(cfg *config.DatabaseConfig) (*repositories, error) {
	switch cfg.Driver {
	case "memory":
		logrus.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			campaigns: store.Campaigns(),
			orders:    store.Orders(),
			tickets:   store.Tickets(),
			proofs:    store.Proofs(),
			oplog:     store.OperationLogs(),
			ping:      func() error { return nil },
			close:     func() error { return nil },
		}, nil
	case "postgres", "":
		db, err := postgres.NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return postgresRepositories(db), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func postgresRepositories(db *sql.DB) *repositories {
	return &repositories{
		campaigns: repository.NewCampaignRepository(db),
		orders:    repository.NewOrderRepository(db),
		tickets:   repository.NewTicketRepository(db),
		proofs:    repository.NewProofRepository(db),
		oplog:     repository.NewOperationLogRepository(db),
		ping:      db.Ping,
		close:     db.Close,
	}
}

func buildRegistry(cfg *config.ProvidersConfig, orders database.OrderRepository) *provider.Registry {
	resolver := provider.NewResolver(orders)
	registry := provider.NewRegistry()
	if cfg.Checkout.Enabled {
		registry.Register(provider.NewCheckoutAdapter(cfg.Checkout.Secret, resolver))
	}
	if cfg.Bank.Enabled {
		registry.Register(provider.NewBankAdapter(cfg.Bank.Secret, resolver))
	}
	if cfg.Manual.Enabled {
		registry.Register(provider.NewManualAdapter(cfg.Manual.Secret, orders))
	}
	logrus.WithField("providers", registry.Names()).Info("Payment providers registered")
	return registry
}

func setupLogging(cfg *config.ServerConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func NewServer(cfg *config.Config) {

	setupLogging(&cfg.Server)
	clk := clock.NewSystem()

	// Initialize storage
	repos, err := openRepositories(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer repos.close()

	healthChecks := map[string]func() error{"database": repos.ping}

	// Webhook delivery cache
	var deliveries redisRepo.DeliveryCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis: %v. Continuing without delivery cache...", err)
		} else {
			defer redisClient.Close()
			healthChecks["redis"] = func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return redisClient.Ping(ctx).Err()
			}
			deliveries = redisRepo.NewDeliveryCache(redisClient, cfg.Redis.DedupeTTL)
		}
	}

	// Operation log mirror
	var producer kafka.Producer
	if cfg.Kafka.Brokers != "" {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settlement notifications
	var notifier service.Notifier = service.NopNotifier{}
	if cfg.RabbitMQ.URL != "" {
		queue, err := rabbitmq.NewRabbitMQ(rabbitmq.Config{
			URL:       cfg.RabbitMQ.URL,
			QueueName: cfg.RabbitMQ.QueueName,
		})
		if err != nil {
			logrus.Errorf("Failed to initialize RabbitMQ: %v. Continuing without notifications...", err)
		} else {
			defer queue.Close()
			healthChecks["rabbitmq"] = queue.HealthCheck
			notifier = service.NewQueueNotifier(queue, cfg.RabbitMQ.RetryCount, cfg.RabbitMQ.RetryDelay)

			if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
				bot := telegram.NewBot(cfg.Telegram.BotToken)
				notificationWorker := worker.NewNotificationWorker(queue, bot, cfg.Telegram.ChatID)
				if err := notificationWorker.Start(ctx); err != nil {
					logrus.Errorf("Failed to start notification worker: %v", err)
				}
			} else {
				logrus.Warn("Telegram bot token not provided, notifications are only queued")
			}
		}
	}

	// Initialize services
	oplog := service.NewOperationLogger(repos.oplog, producer, clk)
	processor := service.NewSettlementProcessor(repos.tickets, notifier, clk)
	campaignService := service.NewCampaignService(repos.campaigns, clk, cfg.Campaign.MaxTickets)
	reservationService := service.NewReservationService(repos.campaigns, repos.orders, clk, service.ReservationTimeouts{
		Default: cfg.Reservation.DefaultTimeout,
		Max:     cfg.Reservation.MaxTimeout,
	})
	webhookService := service.NewWebhookService(buildRegistry(&cfg.Providers, repos.orders), processor, deliveries, oplog)
	reviewService := service.NewReviewService(
		repos.campaigns, repos.orders, repos.tickets, repos.proofs, processor,
		storage.NewFileStorage(cfg.Storage.BasePath),
		thumbnail.NewGenerator(cfg.Storage.ThumbnailWidth, cfg.Storage.ThumbnailHeight),
		oplog, clk,
		service.ReviewConfig{ReleaseOnReject: cfg.Review.ReleaseOnReject},
	)
	orderService := service.NewOrderService(repos.campaigns, repos.orders, repos.tickets, repos.proofs, clk)
	sweeperService := service.NewSweeperService(repos.campaigns, repos.tickets, repos.proofs, processor, oplog, clk,
		service.SweeperConfig{
			DraftGrace: cfg.Sweeper.DraftGrace,
			BatchSize:  cfg.Sweeper.BatchSize,
		})

	if cfg.Sweeper.Enabled {
		sweepWorker := worker.NewSweepWorker(sweeperService, cfg.Sweeper.Interval)
		go sweepWorker.Start(ctx)
	}
	if cfg.Sweeper.Token == "" {
		logrus.Warn("Sweeper token not configured, the admin endpoints are disabled")
	}

	// Initialize handlers
	handlers := &transport.Handlers{
		Campaign: transport.NewCampaignHandler(campaignService, reservationService),
		Webhook:  transport.NewWebhookHandler(webhookService),
		Proof:    transport.NewProofHandler(reviewService, cfg.Storage.MaxUploadMB),
		Order:    transport.NewOrderHandler(orderService, reviewService),
		Admin:    transport.NewAdminHandler(sweeperService, oplog),
	}

	if cfg.Server.Env == "production" || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.InitRoutes(handlers, transport.RouterConfig{
		RequestTimeout: cfg.Server.Timeout,
		SweeperToken:   cfg.Sweeper.Token,
		AppVersion:     cfg.Server.AppVersion,
		HealthChecks:   healthChecks,
	})

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("port", cfg.Server.Port).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
