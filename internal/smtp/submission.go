package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/ultrazend/ultrazend/internal/dto"
)

// SubmissionAuthenticator verifies SASL credentials against a tenant user's
// account, the same (email, password) pair used to log in over HTTP, and
// resolves the team the authenticated session submits mail on behalf of.
type SubmissionAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (uuid.UUID, error)
}

// SubmissionAuthenticatorFunc adapts a function to SubmissionAuthenticator.
type SubmissionAuthenticatorFunc func(ctx context.Context, email, password string) (uuid.UUID, error)

// Authenticate implements SubmissionAuthenticator.
func (f SubmissionAuthenticatorFunc) Authenticate(ctx context.Context, email, password string) (uuid.UUID, error) {
	return f(ctx, email, password)
}

// OutboundSubmitter enters a message into the outbound pipeline exactly as
// if it had been posted through POST /emails.
type OutboundSubmitter interface {
	Send(ctx context.Context, teamID uuid.UUID, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error)
}

// NewSubmissionServer creates the authenticated Submission listener (587).
// STARTTLS and SASL PLAIN/LOGIN are mandatory: AllowInsecureAuth stays false
// so go-smtp itself refuses AUTH before STARTTLS, and the session's
// AuthMechanisms additionally withholds PLAIN/LOGIN until the connection is
// encrypted.
func NewSubmissionServer(cfg ServerConfig, backend gosmtp.Backend, logger *slog.Logger) *gosmtp.Server {
	s := gosmtp.NewServer(backend)
	s.Addr = cfg.ListenAddr
	s.Domain = cfg.Domain
	s.MaxMessageBytes = cfg.MaxMessageBytes
	s.ReadTimeout = cfg.ReadTimeout
	s.WriteTimeout = cfg.WriteTimeout
	s.AllowInsecureAuth = false

	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Error("failed to load TLS certificate for submission SMTP", "cert", cfg.TLSCert, "key", cfg.TLSKey, "error", err)
		} else {
			s.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
			logger.Info("TLS enabled for submission SMTP server")
		}
	} else {
		logger.Warn("submission SMTP server starting without TLS materials; STARTTLS will be unavailable and no client can authenticate")
	}
	return s
}

// SubmissionBackend implements gosmtp.Backend for the port-587 listener.
// Unlike Backend, which persists every message as an InboundEmail, a session
// here must authenticate before MAIL FROM and its submitted message is
// handed to OutboundSubmitter instead of being stored as received mail.
type SubmissionBackend struct {
	authenticator   SubmissionAuthenticator
	submitter       OutboundSubmitter
	maxMessageBytes int64
	logger          *slog.Logger
}

// NewSubmissionBackend creates a new SubmissionBackend.
func NewSubmissionBackend(authenticator SubmissionAuthenticator, submitter OutboundSubmitter, maxMessageBytes int64, logger *slog.Logger) *SubmissionBackend {
	return &SubmissionBackend{
		authenticator:   authenticator,
		submitter:       submitter,
		maxMessageBytes: maxMessageBytes,
		logger:          logger,
	}
}

// NewSession implements gosmtp.Backend.
func (b *SubmissionBackend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	_, isTLS := c.TLSConnectionState()
	return &submissionSession{backend: b, isTLS: isTLS}, nil
}

// submissionSession tracks one authenticated submission conversation.
type submissionSession struct {
	backend       *SubmissionBackend
	isTLS         bool
	authenticated bool
	teamID        uuid.UUID
	from          string
	to            []string
}

// AuthMechanisms implements gosmtp.AuthSession. Nothing is advertised until
// STARTTLS has run, which forces clients onto an encrypted channel before
// credentials ever cross the wire.
func (s *submissionSession) AuthMechanisms() []string {
	if !s.isTLS {
		return nil
	}
	return []string{sasl.Plain, sasl.Login}
}

// Auth implements gosmtp.AuthSession.
func (s *submissionSession) Auth(mech string) (sasl.Server, error) {
	if !s.isTLS {
		return nil, &gosmtp.SMTPError{
			Code:         523,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 10},
			Message:      "TLS required for authentication",
		}
	}

	authenticate := func(username, password string) error {
		teamID, err := s.backend.authenticator.Authenticate(context.Background(), username, password)
		if err != nil {
			return &gosmtp.SMTPError{
				Code:         535,
				EnhancedCode: gosmtp.EnhancedCode{5, 7, 8},
				Message:      "invalid credentials",
			}
		}
		s.teamID = teamID
		s.authenticated = true
		return nil
	}

	switch mech {
	case sasl.Plain:
		return sasl.NewPlainServer(func(identity, username, password string) error {
			return authenticate(username, password)
		}), nil
	case sasl.Login:
		return sasl.NewLoginServer(authenticate), nil
	default:
		return nil, &gosmtp.SMTPError{
			Code:         504,
			EnhancedCode: gosmtp.EnhancedCode{5, 5, 4},
			Message:      "unsupported authentication mechanism",
		}
	}
}

// Mail implements gosmtp.Session. A submission session must be authenticated
// before it is allowed to name a sender.
func (s *submissionSession) Mail(from string, opts *gosmtp.MailOptions) error {
	if !s.authenticated {
		return &gosmtp.SMTPError{
			Code:         530,
			EnhancedCode: gosmtp.EnhancedCode{5, 7, 0},
			Message:      "authentication required",
		}
	}
	s.from = from
	return nil
}

// Rcpt implements gosmtp.Session.
func (s *submissionSession) Rcpt(to string, opts *gosmtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

// Data implements gosmtp.Session. The message is handed to OutboundSubmitter,
// which runs it through the same domain-verification, fallback-signing and
// suppression checks as a POST /emails call.
func (s *submissionSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(io.LimitReader(r, s.backend.maxMessageBytes+1))
	if err != nil {
		return fmt.Errorf("reading submitted message: %w", err)
	}
	if int64(len(raw)) > s.backend.maxMessageBytes {
		return &gosmtp.SMTPError{
			Code:         552,
			EnhancedCode: gosmtp.EnhancedCode{5, 3, 4},
			Message:      "message exceeds maximum size",
		}
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parsing submitted message: %w", err)
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return fmt.Errorf("reading submitted message body: %w", err)
	}

	req := &dto.SendEmailRequest{
		From:    s.from,
		To:      s.to,
		Subject: msg.Header.Get("Subject"),
	}
	content := string(body)
	if strings.Contains(strings.ToLower(msg.Header.Get("Content-Type")), "html") {
		req.HTML = &content
	} else {
		req.Text = &content
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.backend.submitter.Send(ctx, s.teamID, req); err != nil {
		s.backend.logger.Error("submission send failed", "error", err, "team_id", s.teamID)
		return &gosmtp.SMTPError{
			Code:         451,
			EnhancedCode: gosmtp.EnhancedCode{4, 3, 0},
			Message:      "submission could not be queued, try again",
		}
	}
	return nil
}

// Reset implements gosmtp.Session.
func (s *submissionSession) Reset() {
	s.from = ""
	s.to = nil
}

// Logout implements gosmtp.Session.
func (s *submissionSession) Logout() error {
	return nil
}
