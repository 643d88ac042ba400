package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"github.com/wneessen/go-mail"
)

const (
	defaultFrom    = "pulsewatch@localhost"
	defaultTimeout = 10 * time.Second
)

type Configuration struct {
	SMTPHost string `yaml:"smtp-host"`
	SMTPPort uint   `yaml:"smtp-port"`
	Username string
	Password string
	From     string `validate:"omitempty,email"`
	// mandatory, opportunistic or none
	TLSPolicy string `yaml:"tls-policy" validate:"omitempty,oneof=mandatory opportunistic none"`
	// upper bound of one delivery when the caller context has no deadline
	Timeout time.Duration
}

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// EmailNotifier sends an alert by email when a check is unhealthy
type EmailNotifier struct {
	logger *slog.Logger
	config Configuration
	send   sendFunc
}

func NewEmailNotifier(logger *slog.Logger, config Configuration) *EmailNotifier {
	if config.SMTPPort == 0 {
		config.SMTPPort = 25
	}
	if config.From == "" {
		config.From = defaultFrom
	}
	if config.TLSPolicy == "" {
		config.TLSPolicy = "opportunistic"
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	notifier := &EmailNotifier{
		logger: logger,
		config: config,
	}
	notifier.send = notifier.dialAndSend
	return notifier
}

func (n *EmailNotifier) Notify(ctx context.Context, endpoint *aggregates.Endpoint, outcome *aggregates.Outcome, settings *aggregates.Settings) error {
	if settings == nil || !settings.NotificationsEnabled || len(settings.Recipients) == 0 {
		return nil
	}
	if n.config.SMTPHost == "" {
		n.logger.Warn(fmt.Sprintf("notifications are enabled but no SMTP server is configured, endpoint %s alert dropped", endpoint.ID))
		return nil
	}
	msg, err := buildMessage(n.config.From, settings.Recipients, endpoint, outcome)
	if err != nil {
		return err
	}
	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("fail to send the alert for endpoint %s: %w", endpoint.ID, err)
	}
	n.logger.Info(fmt.Sprintf("alert sent for endpoint %s to %d recipients", endpoint.ID, len(settings.Recipients)))
	return nil
}

func tlsPolicy(policy string) mail.TLSPolicy {
	switch policy {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

// dialAndSend delivers the message within the context deadline, including the
// wait for the server greeting.
func (n *EmailNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	timeout := n.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	options := []mail.Option{
		mail.WithPort(int(n.config.SMTPPort)),
		mail.WithTLSPolicy(tlsPolicy(n.config.TLSPolicy)),
		mail.WithTimeout(timeout),
		mail.WithDialContextFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
			dialer := &net.Dialer{}
			conn, err := dialer.DialContext(ctx, network, address)
			if err != nil {
				return nil, err
			}
			if deadline, ok := ctx.Deadline(); ok {
				if err := conn.SetDeadline(deadline); err != nil {
					conn.Close()
					return nil, err
				}
			}
			return conn, nil
		}),
	}
	if n.config.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.config.Username),
			mail.WithPassword(n.config.Password))
	}
	client, err := mail.NewClient(n.config.SMTPHost, options...)
	if err != nil {
		return fmt.Errorf("fail to create the smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func buildMessage(from string, to []string, endpoint *aggregates.Endpoint, outcome *aggregates.Outcome) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %s: %w", from, err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(fmt.Sprintf("[pulsewatch] endpoint %s is unhealthy", endpoint.Name))

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Endpoint: %s (%s)\n", endpoint.Name, endpoint.ID))
	builder.WriteString(fmt.Sprintf("URL: %s %s\n", endpoint.Method, endpoint.URL))
	builder.WriteString(fmt.Sprintf("Checked at: %s\n", outcome.CheckedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Latency: %s\n", outcome.Latency))
	if outcome.StatusCode != nil {
		builder.WriteString(fmt.Sprintf("Status code: %d\n", *outcome.StatusCode))
	}
	if outcome.Error != nil {
		builder.WriteString(fmt.Sprintf("Error: %s\n", *outcome.Error))
	}
	msg.SetBodyString(mail.TypeTextPlain, builder.String())
	return msg, nil
}
