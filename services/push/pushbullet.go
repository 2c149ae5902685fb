package pushsvc

import (
	"context"
	"encoding/json"

	"github.com/sendgrid/rest"

	"github.com/trezcool/gradewatch/core"
)

var pushbulletURL = "https://api.pushbullet.com/v2/pushes"

type PushbulletService struct {
	sender
	url      string
	apiKey   string
	deviceID string
}

var _ core.Notifier = (*PushbulletService)(nil)

func NewPushbulletService(conf core.PushbulletConfig) *PushbulletService {
	return &PushbulletService{
		sender:   newSender(),
		url:      pushbulletURL,
		apiKey:   conf.APIKey,
		deviceID: conf.DeviceID,
	}
}

func (svc *PushbulletService) Name() string { return "pushbullet" }

type pushbulletNote struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	DeviceIden string `json:"device_iden,omitempty"`
}

func (svc *PushbulletService) Send(ctx context.Context, msg core.Message) error {
	body, err := json.Marshal(pushbulletNote{
		Type:       "note",
		Title:      msg.Title,
		Body:       msg.TextBody,
		DeviceIden: svc.deviceID,
	})
	if err != nil {
		return err
	}
	return svc.send(ctx, svc.Name(), rest.Request{
		Method:  rest.Post,
		BaseURL: svc.url,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + svc.apiKey,
		},
		Body: body,
	})
}
