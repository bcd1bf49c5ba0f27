package dashboard

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookie = "rentals_session"
	sessionIssuer = "rentals-dashboard"
)

// sessionKey derives the HMAC signing key from the configured secret and
// the password, so changing either invalidates every issued session.
func sessionKey(secret, password string) ([]byte, error) {
	seed := []byte(secret)
	if secret == "" {
		seed = make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return nil, fmt.Errorf("dashboard: session key: %w", err)
		}
	}
	mac := hmac.New(sha256.New, seed)
	mac.Write([]byte(password))
	return mac.Sum(nil), nil
}

// issueSession signs a short-lived token for a successful login.
func (s *Server) issueSession(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   "dashboard",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL())),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionKey)
}

func (s *Server) validSession(token string) bool {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return s.sessionKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		s.logger.Debug("[dashboard] Rejected session: %v", err)
		return false
	}
	return true
}

func (s *Server) authEnabled() bool {
	return s.cfg.AppPassword != ""
}

func (s *Server) authorized(r *http.Request) bool {
	if !s.authEnabled() {
		return true
	}
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return s.validSession(c.Value)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authorized(r) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if !s.authEnabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login.html", loginView{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.authEnabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	got := sha256.Sum256([]byte(r.PostFormValue("password")))
	want := sha256.Sum256([]byte(s.cfg.AppPassword))
	if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
		s.logger.Warn("[dashboard] Failed login from %s", r.RemoteAddr)
		s.render(w, http.StatusUnauthorized, "login.html", loginView{Error: "Incorrect password"})
		return
	}

	now := s.now()
	token, err := s.issueSession(now)
	if err != nil {
		s.logger.Error("[dashboard] Issue session: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.cfg.SessionTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
