package notification

import (
	"TraceSpectra/internal/config"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestEmailNotifier_Send(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "spectra@example.com",
		To:   "a@example.com, b@example.com,",
	})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	if err := n.Send("Alert", "<p>low goodput</p>"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("Unexpected address %q", gotAddr)
	}
	if len(gotTo) != 2 || gotTo[1] != "b@example.com" {
		t.Errorf("Unexpected recipients %v", gotTo)
	}
	for _, want := range []string{"Subject: Alert\r\n", "Content-Type: text/html", "\r\n\r\n<p>low goodput</p>"} {
		if !strings.Contains(gotMsg, want) {
			t.Errorf("Message does not contain %q:\n%s", want, gotMsg)
		}
	}
}

func TestEmailNotifier_Errors(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{Host: "localhost", Port: 25})
	if err := n.Send("s", "b"); err == nil {
		t.Errorf("Expected an error without recipients")
	}

	n = NewEmailNotifier(config.SMTPConfig{Host: "localhost", Port: 25, To: "x@example.com"})
	boom := errors.New("connection refused")
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }
	if err := n.Send("s", "b"); !errors.Is(err, boom) {
		t.Errorf("Expected the smtp error to be wrapped, got %v", err)
	}
}
