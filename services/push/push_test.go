package pushsvc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradewatch/core"
)

type capture struct {
	method string
	header http.Header
	query  url.Values
	body   []byte
}

func newServer(t *testing.T, status int) (*httptest.Server, *capture) {
	t.Helper()
	got := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.header = r.Header.Clone()
		got.query = r.URL.Query()
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

var msg = core.Message{
	Title:    "Ana has 1 missing assignment(s)",
	HTMLBody: "<html></html>",
	TextBody: "Algebra II\n- Quiz 1 (10/01/2026) 0.00 / 10.0000",
}

func TestPushbulletService(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	svc := NewPushbulletService(core.PushbulletConfig{Enabled: true, APIKey: "o.key", DeviceID: "dev1"})
	svc.url = srv.URL
	require.NoError(t, svc.Send(context.Background(), msg))

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "Bearer o.key", got.header.Get("Authorization"))
	var note map[string]string
	require.NoError(t, json.Unmarshal(got.body, &note))
	assert.Equal(t, map[string]string{
		"type":        "note",
		"title":       msg.Title,
		"body":        msg.TextBody,
		"device_iden": "dev1",
	}, note)
}

func TestJoinService(t *testing.T) {
	tests := []struct {
		name      string
		deviceID  string
		wantKey   string
		wantValue string
	}{
		{name: "all devices", deviceID: "", wantKey: "deviceId", wantValue: "group.all"},
		{name: "one device", deviceID: "abc", wantKey: "deviceId", wantValue: "abc"},
		{name: "many devices", deviceID: "abc, def", wantKey: "deviceIds", wantValue: "abc,def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newServer(t, http.StatusOK)
			svc := NewJoinService(core.JoinConfig{Enabled: true, APIKey: "jkey", DeviceID: tt.deviceID})
			svc.url = srv.URL
			require.NoError(t, svc.Send(context.Background(), msg))

			assert.Equal(t, http.MethodGet, got.method)
			assert.Equal(t, "jkey", got.query.Get("apikey"))
			assert.Equal(t, msg.Title, got.query.Get("title"))
			assert.Equal(t, msg.TextBody, got.query.Get("text"))
			assert.Equal(t, tt.wantValue, got.query.Get(tt.wantKey))
		})
	}
}

func TestPushoverService(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	svc := NewPushoverService(core.PushoverConfig{Enabled: true, APIToken: "tok", UserKeys: "u1,u2", Priority: 1})
	svc.url = srv.URL
	require.NoError(t, svc.Send(context.Background(), msg))

	assert.Equal(t, http.MethodPost, got.method)
	form, err := url.ParseQuery(string(got.body))
	require.NoError(t, err)
	assert.Equal(t, "tok", form.Get("token"))
	assert.Equal(t, "u1,u2", form.Get("user"))
	assert.Equal(t, msg.Title, form.Get("title"))
	assert.Equal(t, msg.TextBody, form.Get("message"))
	assert.Equal(t, "1", form.Get("priority"))
}

func TestSendFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized)
	svc := NewPushoverService(core.PushoverConfig{Enabled: true})
	svc.url = srv.URL
	err := svc.Send(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pushover - status: 401")
}

func TestNewServices(t *testing.T) {
	conf := &core.Config{}
	assert.Empty(t, NewServices(conf))

	conf.Join.Enabled = true
	conf.Pushover.Enabled = true
	svcs := NewServices(conf)
	require.Len(t, svcs, 2)
	assert.Equal(t, "join", svcs[0].Name())
	assert.Equal(t, "pushover", svcs[1].Name())
}
