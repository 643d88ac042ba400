package notification_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"github.com/pulsewatch/server/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type sentMail struct {
	to  []string
	msg string
}

func newNotifier(t *testing.T, config notification.Configuration, err error) (*notification.EmailNotifier, *[]sentMail) {
	t.Helper()
	sent := []sentMail{}
	notifier := notification.NewEmailNotifier(slog.Default(), config)
	notifier.SetSender(func(ctx context.Context, msg *mail.Msg) error {
		to, recipientsErr := msg.GetRecipients()
		require.NoError(t, recipientsErr)
		var buf bytes.Buffer
		_, writeErr := msg.WriteTo(&buf)
		require.NoError(t, writeErr)
		sent = append(sent, sentMail{to: to, msg: buf.String()})
		return err
	})
	return notifier, &sent
}

func unhealthy() (*aggregates.Endpoint, *aggregates.Outcome) {
	status := 503
	reason := "expected status code in [200], got 503"
	endpoint := &aggregates.Endpoint{ID: "abc", Name: "api", Method: "GET", URL: "https://api.example.com"}
	outcome := &aggregates.Outcome{
		EndpointID: "abc",
		CheckedAt:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		Latency:    120 * time.Millisecond,
		StatusCode: &status,
		Error:      &reason,
	}
	return endpoint, outcome
}

func TestNotifySendsEmail(t *testing.T) {
	notifier, sent := newNotifier(t, notification.Configuration{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		Username: "user",
		Password: "secret",
		From:     "alerts@example.com",
	}, nil)
	endpoint, outcome := unhealthy()
	settings := &aggregates.Settings{NotificationsEnabled: true, Recipients: []string{"ops@example.com", "dev@example.com"}}

	err := notifier.Notify(context.Background(), endpoint, outcome, settings)
	require.NoError(t, err)
	require.Len(t, *sent, 1)
	delivered := (*sent)[0]
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, delivered.to)
	assert.Contains(t, delivered.msg, "alerts@example.com")
	assert.Contains(t, delivered.msg, "Subject: [pulsewatch] endpoint api is unhealthy")
	assert.Contains(t, delivered.msg, "Status code: 503")
	assert.Contains(t, delivered.msg, "Error: expected status code in [200], got 503")
	assert.Contains(t, delivered.msg, "Checked at: 2024-03-10T12:00:00Z")
}

func TestNotifySkipped(t *testing.T) {
	endpoint, outcome := unhealthy()
	cases := map[string]struct {
		config   notification.Configuration
		settings *aggregates.Settings
	}{
		"no settings": {
			config: notification.Configuration{SMTPHost: "smtp.example.com"},
		},
		"disabled": {
			config:   notification.Configuration{SMTPHost: "smtp.example.com"},
			settings: &aggregates.Settings{Recipients: []string{"ops@example.com"}},
		},
		"no recipients": {
			config:   notification.Configuration{SMTPHost: "smtp.example.com"},
			settings: &aggregates.Settings{NotificationsEnabled: true},
		},
		"no smtp server": {
			settings: &aggregates.Settings{NotificationsEnabled: true, Recipients: []string{"ops@example.com"}},
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			notifier, sent := newNotifier(t, c.config, nil)
			err := notifier.Notify(context.Background(), endpoint, outcome, c.settings)
			require.NoError(t, err)
			assert.Empty(t, *sent)
		})
	}
}

func TestNotifyError(t *testing.T) {
	notifier, sent := newNotifier(t, notification.Configuration{SMTPHost: "smtp.example.com"}, errors.New("connection reset"))
	endpoint, outcome := unhealthy()
	settings := &aggregates.Settings{NotificationsEnabled: true, Recipients: []string{"ops@example.com"}}

	err := notifier.Notify(context.Background(), endpoint, outcome, settings)
	require.ErrorContains(t, err, "connection reset")
	require.Len(t, *sent, 1)
}

func TestNotifyHonorsContextDeadline(t *testing.T) {
	// the server accepts connections and never sends its greeting
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var mu sync.Mutex
	conns := []net.Conn{}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		listener.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			conn.Close()
		}
	})
	port := listener.Addr().(*net.TCPAddr).Port

	notifier := notification.NewEmailNotifier(slog.Default(), notification.Configuration{
		SMTPHost:  "127.0.0.1",
		SMTPPort:  uint(port),
		TLSPolicy: "none",
	})
	endpoint, outcome := unhealthy()
	settings := &aggregates.Settings{NotificationsEnabled: true, Recipients: []string{"ops@example.com"}}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = notifier.Notify(ctx, endpoint, outcome, settings)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
