// Package scheduler содержит приложение планировщика напоминаний
// об окончании пробного периода.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/rabbitmq"
	schedulerservice "github.com/ainexo/declair/internal/services/scheduler"
	"github.com/ainexo/declair/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	conn             *amqp.Connection
	ch               *amqp.Channel
	db               *repository.Storage
	logger           *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEmailQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	emailPublisher := rabbitmq.NewEmailPublisher(ch)
	schedulerService := schedulerservice.New(db, emailPublisher, logger)

	return &App{
		schedulerService: schedulerService,
		conn:             conn,
		ch:               ch,
		db:               db,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает планировщик.
func (a *App) Run(ctx context.Context) error {
	go a.schedulerService.Run(ctx)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	_ = a.db.DB.Close()

	return nil
}
