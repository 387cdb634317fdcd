package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/gateway"
	"github.com/hilthontt/retrochat/internal/infrastructure/configs"
	"github.com/hilthontt/retrochat/internal/infrastructure/events"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/infrastructure/messaging"
	"github.com/hilthontt/retrochat/internal/infrastructure/profanity"
	"github.com/hilthontt/retrochat/internal/infrastructure/ratelimiter"
	memstore "github.com/hilthontt/retrochat/internal/infrastructure/repository"
	"github.com/hilthontt/retrochat/internal/infrastructure/tracing"
	"github.com/hilthontt/retrochat/internal/persistence/db"
	mongorepo "github.com/hilthontt/retrochat/internal/persistence/repository"
	"github.com/hilthontt/retrochat/internal/presentation/api"
	"github.com/hilthontt/retrochat/internal/presentation/handler/audit"
	"github.com/hilthontt/retrochat/internal/presentation/handler/health"
	"github.com/hilthontt/retrochat/internal/presentation/handler/messages"
	"github.com/hilthontt/retrochat/internal/presentation/handler/rooms"
	"github.com/hilthontt/retrochat/internal/presentation/ws"
	"github.com/hilthontt/retrochat/internal/service"
)

const serviceName = "retrochat-api"

type repositories struct {
	rooms       domain.RoomRepository
	memberships domain.MembershipRepository
	requests    domain.JoinRequestRepository
	messages    domain.MessageRepository
	audit       domain.RoomAuditRepository
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logging.FilePath,
		Encoding: cfg.Logging.Encoding,
		Level:    cfg.Logging.Level,
		Logger:   cfg.Logging.Logger,
	})
	logger.Init()

	if cfg.Tracing.Enabled {
		sh, err := tracing.InitTracer(tracing.Config{
			ServiceName: serviceName,
			Environment: cfg.Tracing.Environment,
			Endpoint:    cfg.Tracing.Endpoint,
		})
		if err != nil {
			log.Fatalf("Failed to initialize the tracer: %v", err)
		}
		defer sh(ctx)
	}

	repos, cleanup := buildRepositories(ctx, cfg, logger)
	defer cleanup()

	eventBus := bus.New(cfg.Bus.Buffer)

	publisher, closeMessaging := buildMessaging(cfg, repos, logger)
	defer closeMessaging()

	registry := service.NewRegistry(repos.rooms, cfg.CodePolicy(), cfg.Room.CodeAttempts, publisher, logger)
	membership := service.NewMembership(repos.rooms, repos.memberships, repos.requests, repos.messages, eventBus, publisher, logger)
	messageLog := service.NewMessageLog(repos.rooms, repos.memberships, repos.messages, profanity.NewFilter(), eventBus, publisher, logger)

	gw := gateway.New(registry, membership, messageLog, eventBus, logger)

	roomHandler := rooms.NewHandler(gw)
	messageHandler := messages.NewHandler(gw)
	healthHandler := health.NewHandler()
	auditHandler := audit.NewHandler(repos.audit)
	wsHandler := ws.NewHandler(gw, logger)

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		IdleTTL:          cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})
	defer rl.Close()

	app := api.NewApplication(cfg, roomHandler, messageHandler, healthHandler, auditHandler, wsHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

// buildRepositories wires the configured store driver. The memory
// driver needs no external services and is the default; mongo is for
// deployments that must survive a restart.
func buildRepositories(ctx context.Context, cfg *configs.Config, logger logging.Logger) (repositories, func()) {
	switch cfg.Store.Driver {
	case "mongo":
		client, err := db.NewMongoClient(ctx, &db.MongoConfig{
			URI:               cfg.Store.URI,
			Database:          cfg.Store.Database,
			ConnectionTimeout: cfg.Store.Timeout,
		})
		if err != nil {
			logger.Fatalf("failed to connect to mongo: %v", err)
		}

		database := db.GetDatabase(client, &db.MongoConfig{URI: cfg.Store.URI, Database: cfg.Store.Database})

		if err := mongorepo.EnsureIndexes(ctx, database, cfg.Room.TTL); err != nil {
			logger.Fatalf("failed to ensure indexes: %v", err)
		}

		auditRepo := mongorepo.NewRoomAuditLogRepository(database)
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			logger.Fatalf("failed to ensure audit indexes: %v", err)
		}

		repos := repositories{
			rooms:       mongorepo.NewRoomRepository(database, cfg.Room.TTL),
			memberships: mongorepo.NewMembershipRepository(database),
			requests:    mongorepo.NewJoinRequestRepository(database),
			messages:    mongorepo.NewMessageRepository(database),
			audit:       auditRepo,
		}

		return repos, func() {
			if err := db.DisconnectMongo(context.Background(), client); err != nil {
				logger.Errorf("failed to disconnect mongo: %v", err)
			}
		}

	case "memory":
		store := memstore.NewStore(cfg.Room.Capacity, cfg.Room.TTL)

		repos := repositories{
			rooms:       store.Rooms(),
			memberships: store.Memberships(),
			requests:    store.JoinRequests(),
			messages:    store.Messages(),
			audit:       store.AuditLogs(),
		}

		return repos, store.Close

	default:
		logger.Fatalf("unknown store driver %q, supported drivers: [memory, mongo]", cfg.Store.Driver)
		return repositories{}, func() {}
	}
}

// buildMessaging connects RabbitMQ when enabled and starts the audit
// consumer if an audit repository exists to write to.
func buildMessaging(cfg *configs.Config, repos repositories, logger logging.Logger) (events.Publisher, func()) {
	if !cfg.Messaging.Enabled {
		return events.NoOpPublisher{}, func() {}
	}

	rabbitmq, err := messaging.NewRabbitMQ(cfg.Messaging.URI)
	if err != nil {
		logger.Fatalf("failed to connect to RabbitMQ: %v", err)
	}

	logger.Info(logging.RabbitMQ, logging.Startup, "RabbitMQ connection established", nil)

	if repos.audit != nil {
		consumer := events.NewRoomConsumer(rabbitmq, repos.audit)
		if err := consumer.Listen(); err != nil {
			logger.Errorf("failed to start audit consumer: %v", err)
		}
	}

	return events.NewRoomPublisher(rabbitmq), rabbitmq.Close
}
