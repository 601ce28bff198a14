package otp

import (
	"context"
	"log/slog"
)

// Sender delivers a verification code to a contact address out-of-band.
// Delivery is an external collaborator; the store never hands the code back
// over the request channel.
type Sender interface {
	Send(ctx context.Context, address, code string) error
}

// LogSender writes codes to the log instead of delivering them. Development
// and test use only.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, address, code string) error {
	s.Logger.InfoContext(ctx, "verification code issued (log delivery)",
		"address", address, "code", code)
	return nil
}
