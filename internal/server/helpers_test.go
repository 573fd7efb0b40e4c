package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"winrec/internal/database"
	"winrec/internal/testutils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openCanonical(t *testing.T) *database.SQLiteService {
	t.Helper()
	config := database.TestConfig()
	config.Migrations = database.MigrationsCanonical

	db, err := database.Open(context.Background(), config, &testutils.RecordingLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestServer(t *testing.T, config Config) *Server {
	t.Helper()
	if config.Location == nil {
		config.Location = time.UTC
	}
	return New(openCanonical(t), config, &testutils.RecordingLogger{})
}

// call sends one request to the server and returns the recorder
func call(t *testing.T, srv *Server, method, target string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func logBody(ts float64, category string, duration int64, title, source string) map[string]interface{} {
	body := map[string]interface{}{
		"timestamp":    ts,
		"category":     category,
		"duration":     duration,
		"window_title": title,
	}
	if source != "" {
		body["source"] = source
	}
	return body
}
