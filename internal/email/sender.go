package email

import (
	"context"
	"errors"
)

// Sender entrega correos HTML.
type Sender interface {
	SendMail(ctx context.Context, to, subject, html string) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender devuelve un Sender que siempre falla; se usa cuando SMTP
// no esta configurado.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendMail(_ context.Context, _, _, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
