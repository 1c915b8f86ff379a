// Package sender содержит приложение отправителя писем.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/ainexo/declair/internal/config"
	smtplib "github.com/ainexo/declair/internal/lib/smtp"
	"github.com/ainexo/declair/internal/rabbitmq"
	senderservice "github.com/ainexo/declair/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEmailQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	newTransport := smtplib.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.New(newTransport, cfg.AppBaseURL, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, "emails.outbound", a.senderService.HandleEmailJob)
	if err != nil {
		a.logger.Error("failed to start emails.outbound consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
