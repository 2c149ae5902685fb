package emailsvc

import (
	"context"

	"github.com/pkg/errors"
	gomail "gopkg.in/mail.v2"

	"github.com/trezcool/gradewatch/core"
)

// SMTPService sends emails through an SMTP relay.
type SMTPService struct {
	base
	dialer *gomail.Dialer
	send   func(d *gomail.Dialer, m *gomail.Message) error // mockable
}

var _ core.Notifier = (*SMTPService)(nil)

func NewSMTPService(conf *core.Config) *SMTPService {
	return &SMTPService{
		base:   newBase(conf),
		dialer: newDialer(conf.Email),
		send:   func(d *gomail.Dialer, m *gomail.Message) error { return d.DialAndSend(m) },
	}
}

// newDialer maps the ssl/tls settings:
//   ssl           -> implicit TLS (usually port 465)
//   tls           -> STARTTLS is mandatory
//   neither       -> plain connection
func newDialer(conf core.EmailConfig) *gomail.Dialer {
	d := gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUser, conf.SMTPPassword)
	d.SSL = conf.SSL
	switch {
	case conf.SSL:
		d.StartTLSPolicy = gomail.NoStartTLS
	case conf.TLS:
		d.StartTLSPolicy = gomail.MandatoryStartTLS
	default:
		d.StartTLSPolicy = gomail.NoStartTLS
	}
	return d
}

func (svc *SMTPService) Name() string { return "email (smtp)" }

func (svc *SMTPService) message(msg core.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", svc.from.Address, svc.from.Name)
	to := make([]string, 0, len(msg.Recipient.Email))
	for _, a := range msg.Recipient.Email {
		to = append(to, m.FormatAddress(a.Address, a.Name))
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", svc.subject(msg))
	m.SetDateHeader("Date", core.NowFunc())
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}
	return m
}

func (svc *SMTPService) Send(ctx context.Context, msg core.Message) error {
	if err := svc.check(msg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := svc.send(svc.dialer, svc.message(msg)); err != nil {
		return errors.Wrap(err, "sending email")
	}
	return nil
}
