package emailsvc

import (
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
)

var (
	// errors
	ErrNoRecipients = errors.New("email has no recipients")
	ErrNoContent    = errors.New("email has no content")
)

// settings shared by every email service
type base struct {
	from       mail.Address
	subjPrefix string
}

func newBase(conf *core.Config) base {
	from := mail.Address{Name: conf.AppName, Address: conf.Email.From}
	if addrs := core.ParseAddresses(conf.Email.From); len(addrs) > 0 {
		from = addrs[0]
		if from.Name == "" {
			from.Name = conf.AppName
		}
	}
	return base{from: from, subjPrefix: "[" + conf.AppName + "] "}
}

func (b base) check(msg core.Message) error {
	if !msg.HasRecipients() {
		return ErrNoRecipients
	}
	if !msg.HasContent() {
		return ErrNoContent
	}
	return nil
}

func (b base) subject(msg core.Message) string { return b.subjPrefix + msg.Title }

// NewService returns the email service of the configured provider.
func NewService(conf *core.Config) (core.Notifier, error) {
	switch conf.Email.Provider {
	case "smtp":
		return NewSMTPService(conf), nil
	case "sendgrid":
		return NewSendgridService(conf), nil
	case "console":
		return NewConsoleService(conf, nil), nil
	}
	return nil, errors.Errorf("unknown email provider %q", conf.Email.Provider)
}
