package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolkitRevoker_DeleteIdentity(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := newToolkitRevoker(srv.URL, "inews", srv.Client(), time.Second)
	require.NoError(t, r.DeleteIdentity(context.Background(), "uid-1"))
	assert.Equal(t, "/projects/inews/accounts:delete", gotPath)
	assert.Equal(t, "uid-1", gotBody["localId"])
}

func TestToolkitRevoker_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unknown user", http.StatusBadRequest, `{"error":{"code":400,"message":"USER_NOT_FOUND"}}`, ErrIdentityNotFound},
		{"server error", http.StatusServiceUnavailable, `{"error":{"code":503,"message":"backend down"}}`, ErrProviderUnavailable},
		{"forbidden", http.StatusForbidden, `denied`, ErrProviderUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			r := newToolkitRevoker(srv.URL, "inews", srv.Client(), time.Second)
			assert.ErrorIs(t, r.DeleteIdentity(context.Background(), "uid-1"), tc.want)
		})
	}
}

func TestToolkitRevoker_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	r := newToolkitRevoker(srv.URL, "inews", srv.Client(), 50*time.Millisecond)
	assert.ErrorIs(t, r.DeleteIdentity(context.Background(), "uid-1"), ErrProviderTimeout)
}

func TestNewToolkitRevoker_BadCredentials(t *testing.T) {
	_, err := NewToolkitRevoker(context.Background(), "inews", []byte(`not json`), time.Second)
	assert.Error(t, err)
}

func TestDisabledRevoker(t *testing.T) {
	err := DisabledRevoker{}.DeleteIdentity(context.Background(), "uid-1")
	assert.ErrorIs(t, err, ErrRevocationDisabled)

	assert.False(t, Enabled(DisabledRevoker{}))
	assert.False(t, Enabled(nil))
	assert.True(t, Enabled(&ToolkitRevoker{}))
}
