package common

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(nil, rec, http.StatusTooManyRequests, "Too many requests.")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"error": "Too many requests."}, body)
}

func TestParsePositiveInt(t *testing.T) {
	got, ok := ParsePositiveInt(" 15 ", 20)
	assert.Equal(t, 15, got)
	assert.True(t, ok)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		got, ok = ParsePositiveInt(raw, 20)
		assert.Equal(t, 20, got, raw)
		assert.False(t, ok, raw)
	}
}

func TestUserContextRoundTrip(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithUser(context.Background(), AuthenticatedUser{ID: "owner"})
	user, ok := UserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "owner", user.ID)
}
