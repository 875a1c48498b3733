package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"strava-challenge/internal/collect"
	"strava-challenge/internal/store"
)

const sessionKeyAdmin = "admin"

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.sessionStore.Get(r, sessionName)
		if ok, _ := session.Values[sessionKeyAdmin].(bool); !ok {
			http.Redirect(w, r, "/admin/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if err := s.loginTmpl.Execute(w, nil); err != nil {
		s.logger.Error("rendering login page", zap.Error(err))
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	password := r.PostFormValue("password")
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) != 1 {
		s.logger.Warn("failed admin login", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Wrong password", http.StatusUnauthorized)
		return
	}

	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values[sessionKeyAdmin] = true
	if err := session.Save(r, w); err != nil {
		s.logger.Error("saving session", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, sessionName)
	delete(session.Values, sessionKeyAdmin)
	_ = session.Save(r, w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// adminAthlete is one row of the admin list
type adminAthlete struct {
	AthleteID   int64
	DisplayName string
	ConnectedAt string
	ExpiresAt   string
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	creds, err := s.store.ReadAll(r.Context())
	if err != nil {
		s.logger.Error("reading credentials", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	athletes := make([]adminAthlete, 0, len(creds))
	for _, c := range creds {
		athletes = append(athletes, adminAthlete{
			AthleteID:   c.AthleteID,
			DisplayName: c.DisplayName,
			ConnectedAt: c.ConnectedAt.Format("2006-01-02"),
			ExpiresAt:   c.ExpiresAt.Format("2006-01-02 15:04 MST"),
		})
	}
	sort.Slice(athletes, func(i, j int) bool { return athletes[i].AthleteID < athletes[j].AthleteID })

	data := map[string]interface{}{
		"ChallengeName": s.challengeName,
		"Athletes":      athletes,
	}
	if err := s.adminTmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering admin page", zap.Error(err))
	}
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	athleteID, err := strconv.ParseInt(chi.URLParam(r, "athleteID"), 10, 64)
	if err != nil {
		http.Error(w, "Bad athlete id", http.StatusBadRequest)
		return
	}

	err = s.admin.RemoveAthlete(r.Context(), athleteID)
	switch {
	case errors.Is(err, store.ErrAthleteNotFound):
		http.Error(w, "Athlete not found", http.StatusNotFound)
		return
	case errors.Is(err, collect.ErrRunInProgress):
		http.Error(w, "A collection run is in progress, try again shortly", http.StatusConflict)
		return
	case err != nil:
		s.logger.Error("removing athlete", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("athlete removed", zap.Int64("athlete_id", athleteID))
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (s *Server) handleCollectNow(w http.ResponseWriter, r *http.Request) {
	s.trigger.TriggerNow()
	http.Redirect(w, r, "/admin", http.StatusFound)
}
