package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/lib/sl"
)

// Transport реализует SMTP транспорт для отправки писем.
// Соединение открывается на каждое письмо: объём рассылок невелик,
// а короткоживущие соединения упрощают обработку обрывов.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// smtpClientWrapper обертка для *smtp.Client, реализующая интерфейс Client.
type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error {
	return w.client.Mail(from)
}

func (w *smtpClientWrapper) Rcpt(to string) error {
	return w.client.Rcpt(to)
}

func (w *smtpClientWrapper) Data() (io.WriteCloser, error) {
	return w.client.Data()
}

func (w *smtpClientWrapper) Quit() error {
	return w.client.Quit()
}

func (w *smtpClientWrapper) Close() error {
	return w.client.Close()
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Connect устанавливает соединение с SMTP сервером, выполняет STARTTLS
// и аутентификацию. Сервер без поддержки STARTTLS отклоняется.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"

	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.log.Error("failed to dial SMTP server", slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("%s: dial %s: %w", op, addr, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		t.closeQuietly(conn)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.log.Error("SMTP server does not support STARTTLS", slog.String("addr", addr))
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: server does not support STARTTLS", op)
	}

	tlsConfig := &tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		t.log.Error("failed to start TLS", sl.Err(err))
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: starttls: %w", op, err)
	}

	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)
	if err = client.Auth(auth); err != nil {
		t.log.Error("smtp auth failed", sl.Err(err))
		t.closeQuietly(client)
		return nil, fmt.Errorf("%s: auth: %w", op, err)
	}

	return &smtpClientWrapper{client: client}, nil
}

// closeQuietly закрывает соединение на пути ошибки, сообщая
// о неудаче закрытия только в журнал.
func (t *Transport) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		t.log.Error("failed to close SMTP connection", sl.Err(err))
	}
}

// GetSMTPUser возвращает имя пользователя SMTP.
func (t *Transport) GetSMTPUser() string {
	return t.cfg.User
}
