package pushsvc

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sendgrid/rest"

	"github.com/trezcool/gradewatch/core"
)

var pushoverURL = "https://api.pushover.net/1/messages.json"

type PushoverService struct {
	sender
	url      string
	token    string
	userKeys string
	priority int
}

var _ core.Notifier = (*PushoverService)(nil)

func NewPushoverService(conf core.PushoverConfig) *PushoverService {
	return &PushoverService{
		sender:   newSender(),
		url:      pushoverURL,
		token:    conf.APIToken,
		userKeys: conf.UserKeys,
		priority: conf.Priority,
	}
}

func (svc *PushoverService) Name() string { return "pushover" }

func (svc *PushoverService) Send(ctx context.Context, msg core.Message) error {
	form := url.Values{}
	form.Set("token", svc.token)
	form.Set("user", svc.userKeys)
	form.Set("title", msg.Title)
	form.Set("message", msg.TextBody)
	form.Set("priority", strconv.Itoa(svc.priority))
	return svc.send(ctx, svc.Name(), rest.Request{
		Method:  rest.Post,
		BaseURL: svc.url,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
	})
}
