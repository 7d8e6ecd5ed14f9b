// Package mailer sends transactional email: password resets and booking notifications.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Used in DEV.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg(msg.Body)
	return nil
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	Account  string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host, port, account, password string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Account:  account,
		Password: password,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("[SMTPMailer Send] recipient is required")
	}
	auth := smtp.PlainAuth("", m.Account, m.Password, m.Host)
	if err := m.send(m.Host+":"+m.Port, auth, m.Account, []string{msg.To}, Format(m.Account, msg)); err != nil {
		return fmt.Errorf("[SMTPMailer Send] %w", err)
	}
	return nil
}

// Format renders msg as an RFC 5322 message body.
func Format(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + strings.ReplaceAll(msg.Subject, "\n", " ") + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
