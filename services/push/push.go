// Package pushsvc sends notifications to push services.
// They get the plain text rendering of a message.
package pushsvc

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/gradewatch/core"
)

type sender struct {
	client *rest.Client
}

func newSender() sender {
	return sender{client: rest.DefaultClient}
}

func (s sender) send(ctx context.Context, name string, req rest.Request) error {
	res, err := s.client.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, name)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("%s - status: %d - body: %s", name, res.StatusCode, res.Body)
	}
	return nil
}

// NewServices returns the enabled push services.
func NewServices(conf *core.Config) []core.Notifier {
	var svcs []core.Notifier
	if conf.Pushbullet.Enabled {
		svcs = append(svcs, NewPushbulletService(conf.Pushbullet))
	}
	if conf.Join.Enabled {
		svcs = append(svcs, NewJoinService(conf.Join))
	}
	if conf.Pushover.Enabled {
		svcs = append(svcs, NewPushoverService(conf.Pushover))
	}
	return svcs
}
