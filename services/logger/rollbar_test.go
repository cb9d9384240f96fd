package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
)

func newTestLogger(debug bool) (*RollbarLogger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	logger := NewRollbarLogger(log.New(buf, "", 0), &core.Config{Env: "TEST", Debug: debug})
	logger.Enable(false)
	return logger, buf
}

func TestRollbarLogger_levels(t *testing.T) {
	logger, buf := newTestLogger(false)

	logger.Debug("hidden")
	logger.Info("certificate generated")
	logger.Warn("logo unavailable", map[string]interface{}{"attempt": 1})

	assert.Equal(t, "INFO  certificate generated\nWARN  logo unavailable\nmap[attempt:1]\n", buf.String())

	logger, buf = newTestLogger(true)
	logger.Debug("shown")
	assert.Equal(t, "DEBUG shown\n", buf.String())
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger, _ := newTestLogger(false)
	err := errors.New("boom")
	f := certificate.Fields{UserName: "سارة", CourseName: "Go", IssueDate: "2024-01-01", CertificateID: "C1"}

	got := logger.prepare("failed", []interface{}{err, f})
	assert.Equal(t, []interface{}{
		"failed",
		err,
		map[string]interface{}{"certificateId": "C1", "courseName": "Go", "issueDate": "2024-01-01"},
	}, got)
}
