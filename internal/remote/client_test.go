package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/testutils"
	"winrec/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: apiKey, RequestTimeout: time.Second}, &testutils.RecordingLogger{})
	require.NoError(t, err)
	return client
}

func TestPostLog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/log", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 1709287200.5, body["timestamp"])
		assert.Equal(t, "laptop", body["source"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"timestamp":"2024-03-01T10:00:00.500000","category":"mail","duration":60,"window_title":"inbox","source":"laptop"}`))
	}, "secret")

	stored, err := client.PostLog(context.Background(), types.LogSubmission{
		Timestamp: 1709287200.5, Category: "mail", Duration: 60, WindowTitle: "inbox", Source: "laptop",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.ID)
	assert.InDelta(t, 1709287200.5, float64(stored.Timestamp), 1e-6)
}

func TestPostLogWithoutCredentialSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, "")

	_, err := client.PostLog(context.Background(), types.LogSubmission{})
	require.Error(t, err)
	assert.True(t, repoerrors.IsAuth(err))
	assert.ErrorIs(t, err, repoerrors.ErrMissingCredential)
	assert.Equal(t, int32(0), calls.Load())

	assert.True(t, repoerrors.IsAuth(client.ClearData(context.Background())))
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		auth      bool
		transient bool
		invalid   bool
	}{
		{status: http.StatusForbidden, auth: true},
		{status: http.StatusUnauthorized, auth: true},
		{status: http.StatusBadRequest, invalid: true},
		{status: http.StatusInternalServerError, transient: true},
		{status: http.StatusBadGateway, transient: true},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"nope"}`, tc.status)
		}, "key")

		_, err := client.PostLog(context.Background(), types.LogSubmission{})
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.auth, repoerrors.IsAuth(err), "status %d", tc.status)
		assert.Equal(t, tc.transient, repoerrors.IsTransient(err), "status %d", tc.status)
		assert.Equal(t, tc.invalid, repoerrors.IsValidation(err), "status %d", tc.status)
		assert.False(t, repoerrors.IsStorage(err))
	}
}

func TestConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: base, APIKey: "k"}, nil)
	require.NoError(t, err)

	_, err = client.ListLogs(context.Background(), 0, 10)
	require.Error(t, err)
	assert.True(t, repoerrors.IsTransient(err))
}

func TestTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, "k")
	defer close(release)
	client.requestTimeout = 50 * time.Millisecond

	_, err := client.Days(context.Background())
	require.Error(t, err)
	assert.True(t, repoerrors.HasCode(err, repoerrors.ErrCodeTimeout))
	assert.True(t, repoerrors.IsTransient(err))
}

func TestListLogs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logs", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("skip"))
		assert.Equal(t, "20000", r.URL.Query().Get("limit"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"id":1,"timestamp":1709287200,"category":"mail","duration":60,"window_title":"inbox","source":null},
			{"id":2,"timestamp":"2024-03-01T10:05:00Z","category":"programming","duration":30,"window_title":"vim","source":"desk"}
		]`))
	}, "")

	records, err := client.ListLogs(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, types.UnknownSource, records[0].ToActivity().Source)
	assert.Equal(t, "desk", records[1].ToActivity().Source)
	assert.Equal(t, 1709287500.0, float64(records[1].Timestamp))
}

func TestDaysAndSummary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/days":
			_, _ = w.Write([]byte(`["2024-03-02","2024-03-01"]`))
		case "/summary/2024-03-01":
			_, _ = w.Write([]byte(`[{"category":"mail","total_duration":120}]`))
		default:
			http.NotFound(w, r)
		}
	}, "")

	days, err := client.Days(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-02", "2024-03-01"}, days)

	totals, err := client.Summary(context.Background(), "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []types.CategoryTotal{{Category: "mail", TotalDuration: 120}}, totals)

	_, err = client.Summary(context.Background(), "03/01/2024")
	assert.True(t, repoerrors.IsValidation(err))
}

func TestClearData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/clear-data", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}, "k")

	assert.NoError(t, client.ClearData(context.Background()))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}
