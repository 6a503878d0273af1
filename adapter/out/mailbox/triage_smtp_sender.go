package mailbox

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"github.com/rs/zerolog"

	"mailtriage/pkg/apperr"
)

// SMTPSender delivers HTML replies over authenticated SMTP with
// STARTTLS. One connection per message; reply volume is mailbox-poll
// scale, not bulk.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
	log      zerolog.Logger
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func NewSMTPSender(cfg SMTPConfig, log zerolog.Logger) *SMTPSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		timeout:  timeout,
		log:      log.With().Str("component", "smtp").Logger(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return apperr.SendFailed(fmt.Errorf("invalid from address %q: %w", s.from, err))
	}
	if err := msg.To(to); err != nil {
		return apperr.SendFailed(fmt.Errorf("invalid recipient %q: %w", to, err))
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(s.timeout),
	)
	if err != nil {
		return apperr.SendFailed(fmt.Errorf("smtp client: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return apperr.SendFailed(fmt.Errorf("smtp send to %s: %w", to, err))
	}

	s.log.Debug().Str("to", to).Str("subject", subject).Msg("reply sent")
	return nil
}
