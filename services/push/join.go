package pushsvc

import (
	"context"
	"strings"

	"github.com/sendgrid/rest"

	"github.com/trezcool/gradewatch/core"
)

var joinURL = "https://joinjoaomgcd.appspot.com/_ah/api/messaging/v1/sendPush"

// every device of the account
const joinAllDevices = "group.all"

type JoinService struct {
	sender
	url       string
	apiKey    string
	deviceIDs []string
}

var _ core.Notifier = (*JoinService)(nil)

func NewJoinService(conf core.JoinConfig) *JoinService {
	ids := core.SplitList(conf.DeviceID)
	if len(ids) == 0 {
		ids = []string{joinAllDevices}
	}
	return &JoinService{
		sender:    newSender(),
		url:       joinURL,
		apiKey:    conf.APIKey,
		deviceIDs: ids,
	}
}

func (svc *JoinService) Name() string { return "join" }

func (svc *JoinService) Send(ctx context.Context, msg core.Message) error {
	params := map[string]string{
		"apikey": svc.apiKey,
		"title":  msg.Title,
		"text":   msg.TextBody,
	}
	if len(svc.deviceIDs) > 1 {
		params["deviceIds"] = strings.Join(svc.deviceIDs, ",")
	} else {
		params["deviceId"] = svc.deviceIDs[0]
	}
	return svc.send(ctx, svc.Name(), rest.Request{
		Method:      rest.Get,
		BaseURL:     svc.url,
		QueryParams: params,
	})
}
