package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("test defaults", func(t *testing.T) {
		t.Setenv("ENV", "test")

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "TEST", conf.Env)
		assert.True(t, conf.TestMode)
		assert.Equal(t, StorageMemory, conf.Storage.Engine)
		assert.Equal(t, "http://localhost:8080/api/certificate/upload", conf.Upload.UploadURL())
		assert.Equal(t, 5*time.Second, conf.Server.ShutdownTimeout)
		assert.NotEmpty(t, conf.WorkDir)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ENV", "TEST")
		t.Setenv("TEST_STORAGE_ENGINE", "sqlite")
		t.Setenv("TEST_STORAGE_DSN", "/tmp/certs.db")
		t.Setenv("TEST_STORAGE_MAXAGE", "48h")
		t.Setenv("TEST_UPLOAD_BASEURL", "https://api.masomo.cd/")

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, StorageSQLite, conf.Storage.Engine)
		assert.Equal(t, "/tmp/certs.db", conf.Storage.DSN)
		assert.Equal(t, 48*time.Hour, conf.Storage.MaxAge)
		assert.Equal(t, "https://api.masomo.cd/api/certificate/upload", conf.Upload.UploadURL())
	})

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown engine", key: "TEST_STORAGE_ENGINE", val: "mysql"},
		{name: "relative upload path", key: "TEST_UPLOAD_PATH", val: "api/upload"},
		{name: "upload path with query", key: "TEST_UPLOAD_PATH", val: "/api/upload?x=1"},
		{name: "bad base url", key: "TEST_UPLOAD_BASEURL", val: "not a url"},
		{name: "negative quota", key: "TEST_STORAGE_QUOTA", val: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", "TEST")
			t.Setenv(tt.key, tt.val)

			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Sara", CleanString("  Sara\t"))
	assert.Equal(t, "sara", CleanString(" SARA ", true))
	assert.Equal(t, "", CleanString("   "))
}
