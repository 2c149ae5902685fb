package emailsvc

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradewatch/core"
)

// ConsoleService writes emails to out instead of sending them.
type ConsoleService struct {
	base
	out io.Writer
}

var _ core.Notifier = (*ConsoleService)(nil)

// NewConsoleService writes to out, or to stdout when out is nil.
func NewConsoleService(conf *core.Config, out io.Writer) *ConsoleService {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleService{base: newBase(conf), out: out}
}

func (svc *ConsoleService) Name() string { return "email (console)" }

func (svc *ConsoleService) Send(_ context.Context, msg core.Message) error {
	if err := svc.check(msg); err != nil {
		return err
	}
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", core.NowFunc().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subject(msg))
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.Recipient.Email))

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n", altW.Boundary())
	_, _ = fmt.Fprint(body, "\r\n")

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextBody)

	if msg.HTMLBody != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
		if err != nil {
			return errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLBody)
	}
	if err := altW.Close(); err != nil {
		return errors.Wrap(err, "closing multipart/alternative")
	}

	_, err = fmt.Fprintln(svc.out, body.String())
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
