package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"strava-challenge/internal/auth"
	"strava-challenge/internal/stats"
	"strava-challenge/internal/store"
)

const sessionKeyOAuthState = "oauth_state"

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LoadSnapshot(r.Context())
	if errors.Is(err, store.ErrNoSnapshot) {
		snap = &stats.Snapshot{Athletes: []stats.AthleteStat{}}
	} else if err != nil {
		s.logger.Error("loading snapshot", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"ChallengeName": s.challengeName,
		"Snapshot":      snap,
	}
	if err := s.landingTmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering landing page", zap.Error(err))
	}
}

// handleStats serves the latest snapshot read-only. A snapshot may be
// replaced wholesale between two reads; there is no partial-update
// visibility to worry about.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LoadSnapshot(r.Context())
	if errors.Is(err, store.ErrNoSnapshot) {
		http.Error(w, `{"error":"no stats collected yet"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("loading snapshot", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("encoding snapshot", zap.Error(err))
	}
}

// handleConnect starts the OAuth flow with a CSRF state bound to the
// visitor's session.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		s.logger.Error("generating state", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(r, w); err != nil {
		s.logger.Error("saving session", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusFound)
}

// handleCallback exchanges the authorization code and stores the
// athlete's credential. This is the only place a credential is born.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, sessionName)
	wantState, _ := session.Values[sessionKeyOAuthState].(string)
	delete(session.Values, sessionKeyOAuthState)
	_ = session.Save(r, w)

	if wantState == "" || r.URL.Query().Get("state") != wantState {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Authorization failed: %s", errMsg), http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "No authorization code", http.StatusBadRequest)
		return
	}

	token, err := s.oauthCfg.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("exchanging code", zap.Error(err))
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	athlete, err := auth.ExtractAthlete(token)
	if err != nil {
		s.logger.Error("extracting athlete", zap.Error(err))
		http.Error(w, "Unexpected token response", http.StatusBadGateway)
		return
	}

	cred := &store.Credential{
		AthleteID:    athlete.ID,
		DisplayName:  athlete.DisplayName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		ConnectedAt:  time.Now().UTC(),
	}
	if err := s.store.Upsert(r.Context(), cred); err != nil {
		s.logger.Error("storing credential", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("athlete connected",
		zap.Int64("athlete_id", athlete.ID),
		zap.String("display_name", athlete.DisplayName))

	// Count the new athlete without waiting for the next timer tick
	s.trigger.TriggerNow()

	http.Redirect(w, r, "/", http.StatusFound)
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
