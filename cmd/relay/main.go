package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/config"
	infraCache "github.com/dcastanera/matriculabus/internal/infra/cache"
	"github.com/dcastanera/matriculabus/internal/infra/db/mongodb"
	"github.com/dcastanera/matriculabus/internal/infra/db/postgres"
	"github.com/dcastanera/matriculabus/internal/infra/db/sqlite"
	infraEvents "github.com/dcastanera/matriculabus/internal/infra/events"
	infraKafka "github.com/dcastanera/matriculabus/internal/infra/kafka"
	"github.com/dcastanera/matriculabus/internal/outbox"
	"github.com/dcastanera/matriculabus/internal/relay"
	relayHttp "github.com/dcastanera/matriculabus/internal/relay/inbound/http"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
	sharedEvents "github.com/dcastanera/matriculabus/internal/shared/events"
	"github.com/dcastanera/matriculabus/pkg/logger"

	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

// userTopics son los destinos que consume y publica este servicio.
var userTopics = []string{
	sharedEvents.UserCreatedTopic,
	sharedEvents.UserUpdatedTopic,
	sharedEvents.UserDeletedTopic,
}

func main() {
	logger.Init("relay")
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// ---------------- DB ----------------
	var db *sql.DB
	needSQLite := cfg.ProcessedStore == "sqlite" ||
		(cfg.OutboxEnabled && cfg.OutboxDriver != "postgres" && cfg.OutboxDriver != "mongo")
	if needSQLite {
		var err error
		db, err = sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		defer db.Close()

		if err := sqlite.InitSchema(db); err != nil {
			log.Fatal("failed to initialize SQLite", zap.Error(err))
		}
	}

	// --------- Store de idempotencia ---------
	var processedStore relay.ProcessedStore
	switch cfg.ProcessedStore {
	case "sqlite":
		processedStore = sqlite.NewProcessedRepoSQLite(db)
		log.Info("✅ Idempotencia sobre SQLite")
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to ping Redis", zap.Error(err))
		}
		processedStore = infraCache.NewRedisProcessedStore(rdb)
		log.Info("✅ Idempotencia sobre Redis")
	default:
		processedStore = relay.NewInMemoryProcessedStore()
		log.Info("⚡️ Idempotencia en memoria")
	}

	// --------------- Servicio --------------
	syncService := relay.NewEventSyncService(processedStore, log)
	consumer := relay.NewUserEventConsumer(syncService, log)
	handlers := consumer.Handlers()

	// ---------------- Events ---------------
	var publisher bus.Publisher

	if cfg.BrokerEnabled {
		log.Info("🚀 Usando Kafka como bus de eventos", zap.Strings("brokers", cfg.KafkaBrokers))

		kafkaPublisher := infraKafka.NewPublisher(cfg.KafkaBrokers, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		// Tabla explícita destino→handler, registrada una vez en el arranque.
		for _, topic := range userTopics {
			reader := infraKafka.NewReader(cfg.KafkaBrokers, topic, cfg.KafkaGroupID)
			defer reader.Close()

			adapter := infraKafka.NewConsumerAdapter(reader, kafkaPublisher, handlers[topic], cfg.Retry, log)
			adapter.Start(ctx)
		}
	} else {
		log.Info("⚡️ Usando bus de eventos en memoria (canales de Go)")

		inMemoryBus := infraEvents.NewInMemoryBus(cfg.Retry.MaxAttempts, log)
		inMemoryBus.Register(handlers)
		publisher = inMemoryBus
	}

	producer := relay.NewUserEventProducer(publisher, log)

	// ------------ Outbox Worker ------------
	if cfg.OutboxEnabled {
		destinations := outbox.Destinations{}
		for _, topic := range userTopics {
			destinations[topic] = topic // event_type y topic coinciden
		}

		var repo outbox.Repository
		switch cfg.OutboxDriver {
		case "postgres":
			pgDB, err := sql.Open("pgx", cfg.PostgresDSN)
			if err != nil {
				log.Fatal("failed to open Postgres", zap.Error(err))
			}
			defer pgDB.Close()
			repo = postgres.NewOutboxRepoPostgres(pgDB)
		case "mongo":
			client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
			if err != nil {
				log.Fatal("failed to connect to MongoDB", zap.Error(err))
			}
			defer client.Disconnect(ctx)
			repo = mongodb.NewOutboxRepoMongoDB(client, cfg.MongoDB)
		default:
			repo = sqlite.NewOutboxRepoSQLite(db)
		}

		worker := outbox.NewWorker(repo, publisher, destinations, cfg.OutboxPeriod, cfg.OutboxLimit, log)
		worker.Start(ctx)
	}

	// ---------------- HTTP ----------------
	eventHandler := relayHttp.NewEventHandler(producer)
	router := gin.Default()
	relayHttp.RegisterEventRoutes(router, eventHandler)

	go func() {
		if err := router.Run(":" + cfg.HTTPPort); err != nil {
			log.Fatal("HTTP server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Servicio de relay detenido")
}
