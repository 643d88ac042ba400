package notification

import (
	"context"

	"github.com/wneessen/go-mail"
)

func (n *EmailNotifier) SetSender(send func(ctx context.Context, msg *mail.Msg) error) {
	n.send = send
}
