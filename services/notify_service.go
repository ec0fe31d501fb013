package services

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/courtside-dev/scoreboard-system/config"
)

// EmailNotifier sends round-finalized notifications over SMTP. Delivery is
// fire and forget: errors are logged and never reach the caller.
type EmailNotifier struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewEmailNotifier(cfg *config.Config, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger}
}

func (n *EmailNotifier) NotifyRoundFinalized(eventID, categoryName, roundName string, finalizedCount int) {
	if n.cfg.SMTPHost == "" || n.cfg.AdminNotifyEmail == "" {
		return
	}

	subject := fmt.Sprintf("Round finalized: %s / %s", categoryName, roundName)
	body := fmt.Sprintf(
		"Event %s: round %q of category %q was finalized (%d matches).",
		eventID, roundName, categoryName, finalizedCount,
	)

	if err := n.send([]string{n.cfg.AdminNotifyEmail}, subject, body); err != nil {
		n.logger.Error("round finalized notification failed",
			slog.String("event_id", eventID),
			slog.Any("error", err))
	}
}

func (n *EmailNotifier) send(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPass, n.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + n.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	tlsConfig := &tls.Config{ServerName: n.cfg.SMTPHost}

	var client *smtp.Client
	if n.cfg.SMTPPort == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, n.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp client failed: %w", err)
		}
	} else {
		// STARTTLS.
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("starttls failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(n.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("mail from failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("message write failed: %w", err)
	}
	return w.Close()
}
