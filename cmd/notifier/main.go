package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/config"
	infraEvents "github.com/dcastanera/matriculabus/internal/infra/events"
	"github.com/dcastanera/matriculabus/internal/infra/rabbit"
	"github.com/dcastanera/matriculabus/internal/mail"
	"github.com/dcastanera/matriculabus/internal/notifier"
	"github.com/dcastanera/matriculabus/internal/notifier/audit"
	notifierHttp "github.com/dcastanera/matriculabus/internal/notifier/inbound/http"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
	"github.com/dcastanera/matriculabus/pkg/logger"
)

func main() {
	logger.Init("notifier")
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// ---------------- Mail ----------------
	var mailer mail.Mailer
	if cfg.MailEnabled {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, log)
		log.Info("✅ Transporte SMTP habilitado", zap.String("host", cfg.SMTPHost))
	} else {
		mailer = mail.NewNoopMailer(log)
		log.Info("⚠️ Transporte de correo simulado")
	}

	// --------------- Auditoría --------------
	var deliveryAudit notifier.DeliveryAudit
	if cfg.ClickHouseAddr != "" {
		repo, err := audit.NewDeliveryAuditRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB, log)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, auditoría desactivada", zap.Error(err))
		} else {
			repo.Start(ctx)
			deliveryAudit = repo
			log.Info("✅ Auditoría de entregas en ClickHouse")
		}
	}

	// --------------- Servicio --------------
	templates := notifier.NewEmailTemplateBuilder()
	service := notifier.NewNotificationService(mailer, templates, deliveryAudit, log)
	consumer := notifier.NewNotificationConsumer(service, log)

	// ---------------- Events ---------------
	var publisher bus.Publisher

	if cfg.BrokerEnabled {
		log.Info("🚀 Usando RabbitMQ como bus de notificaciones", zap.String("url", cfg.RabbitURL))

		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer conn.Close()

		setupCh, err := conn.Channel()
		if err != nil {
			log.Fatal("failed to open channel", zap.Error(err))
		}
		if err := rabbit.DeclareTopology(setupCh); err != nil {
			log.Fatal("failed to declare topology", zap.Error(err))
		}
		setupCh.Close()

		rabbitPublisher, err := rabbit.NewPublisher(conn, log)
		if err != nil {
			log.Fatal("failed to create publisher", zap.Error(err))
		}
		defer rabbitPublisher.Close()
		publisher = rabbitPublisher

		// Tabla explícita cola→handler, un consumidor por cola durable.
		for queue, handler := range consumer.Handlers() {
			adapter := rabbit.NewConsumerAdapter(conn, queue, handler, cfg.Retry, log)
			if err := adapter.Start(ctx); err != nil {
				log.Fatal("failed to start consumer", zap.String("queue", queue), zap.Error(err))
			}
		}
	} else {
		log.Info("⚡️ Usando bus de notificaciones en memoria (canales de Go)")

		inMemoryBus := infraEvents.NewInMemoryBus(cfg.Retry.MaxAttempts, log)
		// En memoria no hay colas: los handlers se registran directamente
		// sobre las routing keys.
		inMemoryBus.Register(bus.HandlerTable{
			notifier.EmailRoutingKey:     consumer.HandleEmail,
			notifier.MatriculaRoutingKey: consumer.HandleMatricula,
			notifier.PagoRoutingKey:      consumer.HandlePago,
		})
		publisher = inMemoryBus
	}

	producer := notifier.NewNotificationProducer(publisher, log)

	// ---------------- HTTP ----------------
	notificationHandler := notifierHttp.NewNotificationHandler(producer)
	router := gin.Default()
	notifierHttp.RegisterNotificationRoutes(router, notificationHandler)

	go func() {
		if err := router.Run(":" + cfg.HTTPPort); err != nil {
			log.Fatal("HTTP server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Servicio de notificaciones detenido")
}
