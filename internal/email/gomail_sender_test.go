package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent  []*gomail.Message
	err   error
	block chan struct{}
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	if d.block != nil {
		<-d.block
	}
	d.sent = append(d.sent, m...)
	return d.err
}

func TestNewGomailSender_RequiresHostAndFrom(t *testing.T) {
	if _, err := NewGomailSender(SMTPConfig{From: "no-reply@x.com"}); err == nil {
		t.Fatalf("expected error without host")
	}
	if _, err := NewGomailSender(SMTPConfig{Host: "smtp.x.com"}); err == nil {
		t.Fatalf("expected error without from")
	}
	if _, err := NewGomailSender(SMTPConfig{Host: "smtp.x.com", From: "no-reply@x.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGomailSender_SendMailBuildsMessage(t *testing.T) {
	dialer := &recordingDialer{}
	s := &GomailSender{dialer: dialer, from: "no-reply@x.com", fromName: "ZeekNet"}

	if err := s.SendMail(context.Background(), " ana@x.com ", "Hola", "<p>hi</p>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(dialer.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(dialer.sent))
	}
	m := dialer.sent[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "ana@x.com" {
		t.Fatalf("unexpected To header %v", got)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Hola" {
		t.Fatalf("unexpected Subject header %v", got)
	}
	if got := m.GetHeader("From"); len(got) != 1 || !strings.Contains(got[0], "no-reply@x.com") {
		t.Fatalf("unexpected From header %v", got)
	}
}

func TestGomailSender_Errors(t *testing.T) {
	s := &GomailSender{dialer: &recordingDialer{err: errors.New("dial failed")}, from: "no-reply@x.com"}
	if err := s.SendMail(context.Background(), "ana@x.com", "s", "b"); err == nil {
		t.Fatalf("expected dial error to propagate")
	}
	if err := s.SendMail(context.Background(), "  ", "s", "b"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestGomailSender_ContextTimeout(t *testing.T) {
	dialer := &recordingDialer{block: make(chan struct{})}
	defer close(dialer.block)
	s := &GomailSender{dialer: dialer, from: "no-reply@x.com"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.SendMail(ctx, "ana@x.com", "s", "b"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDisabledSender(t *testing.T) {
	if err := NewDisabledSender("smtp not configured").SendMail(context.Background(), "a@x.com", "s", "b"); err == nil || err.Error() != "smtp not configured" {
		t.Fatalf("expected configured reason, got %v", err)
	}
	if err := NewDisabledSender("").SendMail(context.Background(), "a@x.com", "s", "b"); err == nil {
		t.Fatalf("expected default error")
	}
}
