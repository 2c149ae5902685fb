package core

import (
	"context"
	"net/mail"
)

type (
	// Recipient identifies who a notification is about and where emails go.
	Recipient struct {
		FirstName string
		AccessID  string
		Email     []mail.Address
	}

	// Message is a rendered notification.
	Message struct {
		Title     string
		HTMLBody  string // self-contained markup document
		TextBody  string // plain rendering for push transports
		Recipient Recipient
	}

	// Notifier is any service that can deliver a Message (email, push...).
	Notifier interface {
		Name() string
		Send(ctx context.Context, msg Message) error
	}
)

func (m Message) HasRecipients() bool { return len(m.Recipient.Email) > 0 }
func (m Message) HasContent() bool    { return m.HTMLBody != "" || m.TextBody != "" }

// ParseAddresses parses a comma separated address list, skipping invalid entries.
func ParseAddresses(list ...string) []mail.Address {
	addrs := make([]mail.Address, 0, len(list))
	for _, item := range list {
		for _, s := range SplitList(item) {
			if a, err := mail.ParseAddress(s); err == nil {
				addrs = append(addrs, *a)
			}
		}
	}
	return addrs
}
