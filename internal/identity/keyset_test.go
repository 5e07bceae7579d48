package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity/identitytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySet_CachesKeys(t *testing.T) {
	iss := identitytest.NewIssuer(t, "proj")
	ks := NewKeySet(iss.URL(), time.Second)

	k1, err := ks.Key(context.Background(), identitytest.KeyID)
	require.NoError(t, err)
	k2, err := ks.Key(context.Background(), identitytest.KeyID)
	require.NoError(t, err)

	assert.Same(t, k1, k2)
	assert.Equal(t, 1, iss.Hits())
}

func TestKeySet_RefreshesAfterMaxAge(t *testing.T) {
	iss := identitytest.NewIssuer(t, "proj")
	ks := NewKeySet(iss.URL(), time.Second)
	now := time.Now()
	ks.now = func() time.Time { return now }

	_, err := ks.Key(context.Background(), identitytest.KeyID)
	require.NoError(t, err)

	now = now.Add(3601 * time.Second)
	_, err = ks.Key(context.Background(), identitytest.KeyID)
	require.NoError(t, err)
	assert.Equal(t, 2, iss.Hits())
}

func TestKeySet_UnknownKid(t *testing.T) {
	iss := identitytest.NewIssuer(t, "proj")
	ks := NewKeySet(iss.URL(), time.Second)

	_, err := ks.Key(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestKeySet_UnknownKidRefetchIsThrottled(t *testing.T) {
	iss := identitytest.NewIssuer(t, "proj")
	ks := NewKeySet(iss.URL(), time.Second)
	now := time.Now()
	ks.now = func() time.Time { return now }

	_, err := ks.Key(context.Background(), identitytest.KeyID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = ks.Key(context.Background(), "forged")
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
	assert.Equal(t, 1, iss.Hits())

	now = now.Add(minRefreshInterval + time.Second)
	_, err = ks.Key(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 2, iss.Hits())

	_, err = ks.Key(context.Background(), identitytest.KeyID)
	require.NoError(t, err)
	assert.Equal(t, 2, iss.Hits())
}

func TestKeySet_ConcurrentRefreshSharesOneFetch(t *testing.T) {
	iss := identitytest.NewIssuer(t, "proj")
	ks := NewKeySet(iss.URL(), 5*time.Second)
	release := iss.Hold()
	defer release()

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ks.Key(context.Background(), identitytest.KeyID)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return iss.Hits() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, iss.Hits())
}

func TestKeySet_ProviderFailure(t *testing.T) {
	iss := identitytest.NewIssuer(t, "proj")
	iss.FailWith(http.StatusInternalServerError)
	ks := NewKeySet(iss.URL(), time.Second)

	_, err := ks.Key(context.Background(), identitytest.KeyID)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotErrorIs(t, err, ErrProviderTimeout)
}

func TestKeySet_ProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ks := NewKeySet(srv.URL, 50*time.Millisecond)
	_, err := ks.Key(context.Background(), "any")
	assert.ErrorIs(t, err, ErrProviderTimeout)
}

func TestMaxAge(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"public, max-age=19790, must-revalidate, no-transform", 19790 * time.Second},
		{"max-age=60", time.Minute},
		{"no-cache", defaultKeyTTL},
		{"max-age=abc", defaultKeyTTL},
		{"", defaultKeyTTL},
	}
	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			assert.Equal(t, tc.want, maxAge(tc.header))
		})
	}
}
