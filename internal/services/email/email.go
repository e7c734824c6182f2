// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/cashtrackr/cashtrackr/internal/config"
	"codeberg.org/cashtrackr/cashtrackr/internal/i18n"
	"github.com/a-h/templ"
	"github.com/wneessen/go-mail"
)

const (
	confirmPath = "/auth/confirm-account"
	resetPath   = "/auth/new-password"
)

// TokenMessage carries what a confirmation or reset email needs.
type TokenMessage struct {
	Name      string
	Email     string
	Token     string
	ExpiresIn time.Duration
}

// Dispatcher delivers account emails.
type Dispatcher interface {
	SendConfirmation(ctx context.Context, msg TokenMessage) error
	SendPasswordReset(ctx context.Context, msg TokenMessage) error
}

// Service sends account emails over SMTP.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SendConfirmation sends the account confirmation code.
func (s *Service) SendConfirmation(ctx context.Context, msg TokenMessage) error {
	m, err := s.compose(ctx, msg, "email_confirmation", s.baseURL+confirmPath)
	if err != nil {
		return err
	}
	return s.send(ctx, m)
}

// SendPasswordReset sends the password reset code.
func (s *Service) SendPasswordReset(ctx context.Context, msg TokenMessage) error {
	m, err := s.compose(ctx, msg, "email_reset", s.baseURL+resetPath)
	if err != nil {
		return err
	}
	return s.send(ctx, m)
}

// compose builds a multipart message from the translations under prefix.
func (s *Service) compose(ctx context.Context, msg TokenMessage, prefix, link string) (*mail.Msg, error) {
	data := map[string]any{
		"Name":  msg.Name,
		"Token": msg.Token,
		"URL":   link,
	}

	content := tokenContent{
		Greeting: i18n.TData(ctx, prefix+"_greeting", data),
		Intro:    i18n.TData(ctx, prefix+"_intro", data),
		Action:   i18n.T(ctx, prefix+"_action"),
		CodeHint: i18n.T(ctx, "email_code_hint"),
		Expiry:   i18n.TPlural(ctx, "email_expiry", hours(msg.ExpiresIn)),
		Ignore:   i18n.T(ctx, "email_ignore"),
		URL:      link,
		Token:    msg.Token,
	}

	html, err := render(ctx, tokenEmail(content))
	if err != nil {
		return nil, fmt.Errorf("rendering email: %w", err)
	}

	m := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := m.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := m.AddToFormat(msg.Name, msg.Email); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	m.Subject(i18n.T(ctx, prefix+"_subject"))
	m.SetBodyString(mail.TypeTextPlain, content.plain())
	m.AddAlternativeString(mail.TypeTextHTML, html)

	return m, nil
}

// send delivers a message via SMTP using go-mail.
func (s *Service) send(ctx context.Context, m *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func render(ctx context.Context, component templ.Component) (string, error) {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := component.Render(ctx, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func hours(d time.Duration) int {
	h := int(d.Hours())
	if h < 1 {
		return 1
	}
	return h
}
