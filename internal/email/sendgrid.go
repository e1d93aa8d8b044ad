package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendEndpoint = "/v3/mail/send"

// notSet is the placeholder deployments use for a missing API key.
const notSet = "NOT_SET"

var ErrNotConfigured = errors.New("mailer not configured")

type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides the SendGrid API base URL. Empty means the public API.
	Host string
}

func (c Config) configured() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != notSet
}

type SendGridMailer struct {
	cfg Config
}

func NewSendGridMailer(cfg Config) (*SendGridMailer, error) {
	if !cfg.configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("%w: sender address is required", ErrNotConfigured)
	}
	return &SendGridMailer{cfg: cfg}, nil
}

func (m *SendGridMailer) Send(ctx context.Context, msg ports.Message) error {
	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	body := mail.GetRequestBody(mail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML))

	request := sendgrid.GetRequest(m.cfg.APIKey, sendEndpoint, m.cfg.Host)
	request.Method = rest.Post
	request.Body = body

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send mail to %s: sendgrid returned %d: %s", msg.To, response.StatusCode, response.Body)
	}
	return nil
}

// LogMailer stands in when no API key is set. It logs each message and
// reports it as undelivered.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg ports.Message) error {
	m.logger.WarnContext(ctx, "mail delivery disabled, message dropped",
		"to", msg.To,
		"subject", msg.Subject,
	)
	m.logger.InfoContext(ctx, "mail body", "to", msg.To, "html", msg.HTML)
	return ErrNotConfigured
}

// New returns a SendGrid mailer, or a LogMailer when the key is missing.
func New(cfg Config, logger *slog.Logger) ports.Mailer {
	mailer, err := NewSendGridMailer(cfg)
	if err != nil {
		fallback := NewLogMailer(logger)
		fallback.logger.Warn("sendgrid disabled, emails will only be logged", "error", err)
		return fallback
	}
	return mailer
}
