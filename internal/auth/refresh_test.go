package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"strava-challenge/internal/store"
)

// fakeTokenEndpoint counts refresh-grant calls and serves canned tokens
type fakeTokenEndpoint struct {
	calls  int
	fail   bool
	rotate string // refresh token to hand back
}

func (f *fakeTokenEndpoint) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.calls++
		if f.fail {
			http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"fresh-access-%d","token_type":"Bearer","refresh_token":%q,"expires_in":21600}`,
			f.calls, f.rotate)
	}
}

func newTestRefresher(t *testing.T, f *fakeTokenEndpoint, clock clockwork.Clock) *Refresher {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL},
	}
	return NewRefresher(cfg, clock)
}

func TestEnsureValidSkipsNetworkWhenTokenFresh(t *testing.T) {
	endpoint := &fakeTokenEndpoint{}
	clock := clockwork.NewFakeClock()
	r := newTestRefresher(t, endpoint, clock)

	cred := &store.Credential{
		AthleteID:    101,
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    clock.Now().Add(time.Hour),
	}

	token, refreshed, err := r.EnsureValid(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, "stored-access", token)
	assert.False(t, refreshed)
	assert.Equal(t, 0, endpoint.calls, "fresh token must not hit the network")
}

func TestEnsureValidRefreshesExpiredToken(t *testing.T) {
	endpoint := &fakeTokenEndpoint{rotate: "rotated-refresh"}
	clock := clockwork.NewFakeClock()
	r := newTestRefresher(t, endpoint, clock)

	cred := &store.Credential{
		AthleteID:    101,
		AccessToken:  "stale-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    clock.Now().Add(-time.Minute),
	}

	token, refreshed, err := r.EnsureValid(context.Background(), cred)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 1, endpoint.calls)

	assert.Equal(t, "fresh-access-1", token)
	assert.Equal(t, "fresh-access-1", cred.AccessToken, "credential mutated in place")
	assert.Equal(t, "rotated-refresh", cred.RefreshToken, "rotated refresh token replaces the old one")
	assert.True(t, cred.ExpiresAt.After(time.Now()), "new expiry is in the future")
}

func TestEnsureValidIsIdempotent(t *testing.T) {
	endpoint := &fakeTokenEndpoint{rotate: "rotated-refresh"}
	clock := clockwork.NewFakeClock()
	r := newTestRefresher(t, endpoint, clock)

	cred := &store.Credential{
		AthleteID:    101,
		AccessToken:  "stale-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    clock.Now().Add(-time.Minute),
	}

	first, _, err := r.EnsureValid(context.Background(), cred)
	require.NoError(t, err)
	second, refreshed, err := r.EnsureValid(context.Background(), cred)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, refreshed)
	assert.Equal(t, 1, endpoint.calls, "at most one network call for back-to-back checks")
}

func TestEnsureValidLeavesCredentialOnFailure(t *testing.T) {
	endpoint := &fakeTokenEndpoint{fail: true}
	clock := clockwork.NewFakeClock()
	r := newTestRefresher(t, endpoint, clock)

	cred := &store.Credential{
		AthleteID:    101,
		AccessToken:  "stale-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    clock.Now().Add(-time.Minute),
	}
	before := *cred

	_, _, err := r.EnsureValid(context.Background(), cred)
	require.Error(t, err)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, int64(101), refreshErr.AthleteID)

	assert.Equal(t, before, *cred, "failed refresh must not modify the credential")
}
