package logsvc

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradewatch/core/student"
)

func TestRollbarLoggerStreams(t *testing.T) {
	rollbar.SetEnabled(false)

	tests := []struct {
		name    string
		min     string
		log     func(l *RollbarLogger)
		wantOut string
		wantErr string
	}{
		{name: "debug hidden at info", min: "INFO", log: func(l *RollbarLogger) { l.Debug("fetching") }},
		{name: "debug shown at debug", min: "DEBUG", log: func(l *RollbarLogger) { l.Debug("fetching") }, wantOut: "DEBUG fetching"},
		{name: "info to stdout", min: "INFO", log: func(l *RollbarLogger) { l.Info("sent") }, wantOut: "INFO sent"},
		{name: "warn to stderr", min: "INFO", log: func(l *RollbarLogger) { l.Warn("skipped") }, wantErr: "WARN skipped"},
		{name: "info hidden at error", min: "ERROR", log: func(l *RollbarLogger) { l.Info("sent") }},
		{name: "error always shown", min: "ERROR", log: func(l *RollbarLogger) { l.Error("failed", errors.New("boom")) }, wantErr: "ERROR failed"},
		{name: "unknown level is info", min: "LOUD", log: func(l *RollbarLogger) { l.Info("sent") }, wantOut: "INFO sent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			tt.log(newLogger(&out, &errOut, tt.min))
			if tt.wantOut == "" {
				assert.Empty(t, out.String())
			} else {
				assert.Contains(t, out.String(), tt.wantOut)
			}
			if tt.wantErr == "" {
				assert.Empty(t, errOut.String())
			} else {
				assert.Contains(t, errOut.String(), tt.wantErr)
			}
		})
	}
}

func TestRollbarLoggerArgs(t *testing.T) {
	rollbar.SetEnabled(false)
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut, "DEBUG")

	st := &student.Student{Identity: student.Identity{AccessID: "AGU-A", FirstName: "Ana"}}
	l.Error("report.Run: email", errors.New("connection refused"), map[string]interface{}{"run_id": "r1"}, st)

	got := errOut.String()
	assert.Contains(t, got, "ERROR report.Run: email")
	assert.Contains(t, got, "connection refused")
	assert.Contains(t, got, "map[run_id:r1]")
	assert.NotContains(t, got, "AGU-A", "students set the rollbar person, they are not printed")
	assert.Empty(t, out.String())
}
