package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

func TestRunDeliversTestNotification(t *testing.T) {
	var payload map[string]string
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer sink.Close()

	t.Setenv("DISCORD_WEBHOOK_URL", sink.URL)
	t.Setenv("NOTIFY_MENTION", "")

	err := run(context.Background(), checkOptions{message: "ping", format: "slack", source: "cli", timeout: time.Second})
	require.NoError(t, err)
	assert.Contains(t, payload["text"], "ping")
	assert.Contains(t, payload["text"], "IP: cli")
}

func TestRunWithoutDestination(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("MESSAGE_WEBHOOK_URL", "")

	err := run(context.Background(), checkOptions{message: "ping", format: "discord", source: "cli", timeout: time.Second})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestRunRejectsEmptyMessage(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "http://127.0.0.1:1")

	err := run(context.Background(), checkOptions{message: "   ", format: "discord", source: "cli", timeout: time.Second})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestRunSurfacesRelayStatus(t *testing.T) {
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer sink.Close()
	t.Setenv("DISCORD_WEBHOOK_URL", sink.URL)

	err := run(context.Background(), checkOptions{message: "ping", format: "discord", source: "cli", timeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}

// unsetEnv removes key for the duration of the test so godotenv may set it.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, ok := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func TestRunUsesFormatFromEnvFile(t *testing.T) {
	var payload map[string]string
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()

	for _, key := range []string{"WEBHOOK_FORMAT", "DISCORD_WEBHOOK_URL", "MESSAGE_WEBHOOK_URL", "NOTIFY_MENTION"} {
		unsetEnv(t, key)
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared.env"), []byte("NOTIFY_MENTION=\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.env"),
		[]byte("WEBHOOK_FORMAT=slack\nMESSAGE_WEBHOOK_URL="+sink.URL+"\n"), 0o600))
	require.NoError(t, loadEnvFiles(dir, "staging"))

	err := run(context.Background(), checkOptions{message: "ping", source: "cli", timeout: time.Second})
	require.NoError(t, err)
	assert.Contains(t, payload["text"], "ping")
	assert.NotContains(t, payload, "content")
}

func TestRunFormatFlagOverridesEnv(t *testing.T) {
	var payload map[string]string
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer sink.Close()

	t.Setenv("DISCORD_WEBHOOK_URL", sink.URL)
	t.Setenv("WEBHOOK_FORMAT", "slack")

	err := run(context.Background(), checkOptions{message: "ping", format: "discord", source: "cli", timeout: time.Second})
	require.NoError(t, err)
	assert.Contains(t, payload["content"], "ping")
}

func TestLoadEnvFilesMissing(t *testing.T) {
	assert.Error(t, loadEnvFiles(t.TempDir(), "nope"))
}
