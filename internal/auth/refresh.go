package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"strava-challenge/internal/store"
)

// expiryBuffer refreshes tokens slightly ahead of their expiry so a token
// valid at the check doesn't die mid-fetch
const expiryBuffer = 60 * time.Second

// RefreshError reports a failed refresh grant for one athlete. The
// athlete's stored credential is left untouched; the next scheduled run
// retries.
type RefreshError struct {
	AthleteID int64
	Err       error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refreshing token for athlete %d: %v", e.AthleteID, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Refresher keeps per-athlete access tokens valid, rotating them through
// the provider's refresh grant when they expire.
type Refresher struct {
	config *oauth2.Config
	clock  clockwork.Clock
}

// NewRefresher creates a Refresher using the given OAuth client config.
func NewRefresher(cfg *oauth2.Config, clock clockwork.Clock) *Refresher {
	return &Refresher{config: cfg, clock: clock}
}

// EnsureValid returns a currently valid access token for the credential.
// The expiry check reads the clock at call time, so a token that expires
// mid-run is refreshed when its athlete is processed, not judged by a
// run-start timestamp.
//
// A still-valid token is returned without a network call. An expired one
// is exchanged via the refresh grant; on success the credential's access
// token, refresh token, and expiry are overwritten in place (Strava may
// rotate the refresh token, in which case the new value replaces the
// old). On failure
// the credential is unmodified and a RefreshError is returned.
func (r *Refresher) EnsureValid(ctx context.Context, cred *store.Credential) (string, bool, error) {
	if cred.ExpiresAt.Sub(r.clock.Now()) > expiryBuffer {
		return cred.AccessToken, false, nil
	}

	// Hand oauth2 only the refresh token so it performs the grant
	// unconditionally instead of consulting its own expiry clock
	src := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	newToken, err := src.Token()
	if err != nil {
		return "", false, &RefreshError{AthleteID: cred.AthleteID, Err: err}
	}

	cred.AccessToken = newToken.AccessToken
	cred.ExpiresAt = newToken.Expiry
	if newToken.RefreshToken != "" {
		cred.RefreshToken = newToken.RefreshToken
	}

	return cred.AccessToken, true, nil
}
