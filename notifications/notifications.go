// Package notifications delivers account lifecycle emails through the
// Postmark REST API. Bodies are rendered from embedded templates.
package notifications

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/template/django/v3"
	uptask "github.com/goliatone/go-uptask"
)

//go:embed templates/*.html
var templatesFS embed.FS

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Config struct {
	// ServerToken authenticates against the Postmark API. An empty token
	// leaves the sender unconfigured, sends fail loudly.
	ServerToken string
	FromEmail   string
	// AppURL is the public frontend base, used to build confirmation and
	// reset links.
	AppURL string
	// APIURL overrides the Postmark endpoint, used by tests.
	APIURL string
}

// Sender implements uptask.Notifier on top of Postmark
type Sender struct {
	serverToken string
	fromEmail   string
	apiURL      string
	appURL      string
	httpClient  *http.Client
	engine      *django.Engine
	logger      uptask.Logger
}

var _ uptask.Notifier = (*Sender)(nil)

type Option func(*Sender)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.httpClient = c
		}
	}
}

func WithLogger(l uptask.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSender(cfg Config, opts ...Option) (*Sender, error) {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	engine := django.NewFileSystem(http.FS(templatesFS), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}

	s := &Sender{
		serverToken: cfg.ServerToken,
		fromEmail:   cfg.FromEmail,
		apiURL:      apiURL,
		appURL:      cfg.AppURL,
		httpClient:  http.DefaultClient,
		engine:      engine,
		logger:      uptask.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Configured returns true if the server token is set.
func (s *Sender) Configured() bool {
	return s.serverToken != ""
}

func (s *Sender) SendConfirmation(ctx context.Context, email, name, token string) error {
	body, err := s.render("templates/confirm_account", map[string]any{
		"name":  name,
		"token": token,
		"link":  fmt.Sprintf("%s/auth/confirm-account", s.appURL),
		"ttl":   int(uptask.VerificationTokenTTL / time.Minute),
	})
	if err != nil {
		return err
	}

	return s.send(ctx, email, "Confirm your account", body)
}

func (s *Sender) SendPasswordReset(ctx context.Context, email, name, token string) error {
	body, err := s.render("templates/reset_password", map[string]any{
		"name":  name,
		"token": token,
		"link":  fmt.Sprintf("%s/auth/new-password", s.appURL),
		"ttl":   int(uptask.VerificationTokenTTL / time.Minute),
	})
	if err != nil {
		return err
	}

	return s.send(ctx, email, "Reset your password", body)
}

func (s *Sender) render(template string, binding map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := s.engine.Render(&buf, template, binding); err != nil {
		return "", fmt.Errorf("render email template %s: %w", template, err)
	}
	return buf.String(), nil
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
}

func (s *Sender) send(ctx context.Context, to, subject, htmlBody string) error {
	if !s.Configured() {
		return fmt.Errorf("email sender not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     s.fromEmail,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", s.serverToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	s.logger.Debug("notification sent to %s: %s", to, subject)

	return nil
}
