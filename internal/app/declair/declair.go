// Package declair собирает основное HTTP-приложение: хранилище, кеш,
// очередь почтовых заданий, внешние клиенты и все сервисы домена.
package declair

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/ainexo/declair/internal/cache"
	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/filestore"
	"github.com/ainexo/declair/internal/lib/embeddings"
	"github.com/ainexo/declair/internal/lib/jwt"
	"github.com/ainexo/declair/internal/lib/recaptcha"
	"github.com/ainexo/declair/internal/migrations"
	"github.com/ainexo/declair/internal/rabbitmq"
	accessservice "github.com/ainexo/declair/internal/services/access"
	authservice "github.com/ainexo/declair/internal/services/auth"
	billingservice "github.com/ainexo/declair/internal/services/billing"
	chatservice "github.com/ainexo/declair/internal/services/chat"
	chatbotservice "github.com/ainexo/declair/internal/services/chatbot"
	dashboardservice "github.com/ainexo/declair/internal/services/dashboard"
	knowledgeservice "github.com/ainexo/declair/internal/services/knowledge"
	notificationservice "github.com/ainexo/declair/internal/services/notification"
	projectservice "github.com/ainexo/declair/internal/services/project"
	"github.com/ainexo/declair/internal/storage/repository"
)

// App представляет основное приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// Services держит сервисы домена, передаваемые в регистрацию маршрутов.
type Services struct {
	Auth         *authservice.Service
	Billing      *billingservice.Service
	Access       *accessservice.Service
	Knowledge    *knowledgeservice.Service
	Chat         *chatservice.Service
	Project      *projectservice.Service
	Chatbot      *chatbotservice.Service
	Notification *notificationservice.Service
	Dashboard    *dashboardservice.Service
	JWTMaker     jwt.Maker
}

// New создает приложение и все его зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, migrations.DefaultPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEmailQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	emailPublisher := rabbitmq.NewEmailPublisher(ch)

	files, err := filestore.New(ctx, cfg.FileStorage)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	embedder := embeddings.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	captcha := recaptcha.NewClient(cfg.RecaptchaSecretKey, cfg.Recaptcha.MinScore)
	stripeClient := billingservice.NewStripeClient(cfg.Stripe.SecretKey)

	services := &Services{
		Auth:         authservice.New(db, cacheRedis, captcha, jwtMaker, emailPublisher, cfg.LoginGuard, logger),
		Billing:      billingservice.New(db, stripeClient, cfg.Stripe, logger),
		Access:       accessservice.New(db, cfg.AccessPolicy),
		Knowledge:    knowledgeservice.New(db, embedder, files, logger),
		Chat:         chatservice.New(db, embedder, logger),
		Project:      projectservice.New(db, logger),
		Chatbot:      chatbotservice.New(db, cacheRedis, logger),
		Notification: notificationservice.New(db, logger),
		Dashboard:    dashboardservice.New(db, logger),
		JWTMaker:     jwtMaker,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, services)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до остановки контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
