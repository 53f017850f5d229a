package notifier

import (
	"context"
	"fmt"
	"time"

	"SwapSentinel/internal/model"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPOptions configures the mail transport.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	// SSL selects implicit TLS; otherwise STARTTLS is mandatory.
	SSL     bool
	Timeout time.Duration
}

// EmailNotifier sends HTML trade alerts over SMTP.
type EmailNotifier struct {
	opts SMTPOptions
	log  *zap.Logger
	now  func() time.Time
	send func(ctx context.Context, msg *mail.Msg) error
}

// NewEmailNotifier creates a notifier that dials the SMTP server per alert.
func NewEmailNotifier(opts SMTPOptions, log *zap.Logger) *EmailNotifier {
	n := &EmailNotifier{opts: opts, log: log.Named("email"), now: time.Now}
	n.send = n.dialAndSend
	return n
}

// Send renders and delivers the alert for rec.
func (n *EmailNotifier) Send(ctx context.Context, rec *model.AnalysisRecord) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("email send panicked", zap.Any("panic", r))
			ok = false
		}
	}()

	msg, err := n.build(rec)
	if err != nil {
		n.log.Error("build email failed", zap.Error(err))
		return false
	}
	if err := n.send(ctx, msg); err != nil {
		n.log.Error("send email failed", zap.Error(err), zap.String("to", n.opts.To))
		return false
	}
	n.log.Info("trade alert email sent", zap.String("recommendation", string(rec.Recommendation.Action)))
	return true
}

func (n *EmailNotifier) build(rec *model.AnalysisRecord) (*mail.Msg, error) {
	body, err := FormatBody(rec, n.now())
	if err != nil {
		return nil, err
	}
	msg := mail.NewMsg()
	if err := msg.From(n.opts.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(n.opts.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(FormatSubject(rec))
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (n *EmailNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(n.opts.Host, clientOptions(n.opts)...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("dial and send: %w", err)
	}
	return nil
}

// clientOptions maps SMTPOptions onto the mail client. SSL dials implicit
// TLS; otherwise the session must upgrade with STARTTLS or fail.
func clientOptions(o SMTPOptions) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(o.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(o.Username),
		mail.WithPassword(o.Password),
	}
	if o.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(o.Timeout))
	}
	if o.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	return opts
}
