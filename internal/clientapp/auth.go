package clientapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/i18n"
	"github.com/phillip-england/attendance/internal/security"
	"github.com/phillip-england/attendance/internal/session"
)

type ctxKey int

const sessionKey ctxKey = iota

func currentSession(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey).(*session.Session)
	return sess
}

// apiFor returns an API client that reads and refreshes tokens from sess.
func (s *server) apiFor(sess *session.Session) *apiclient.Client {
	return s.api.WithTokens(sess)
}

func (s *server) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.signer.Sign(sess.ID),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// loadSession resolves the signed cookie to a live session.
func (s *server) loadSession(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, session.ErrNotFound
	}
	id, err := s.signer.Verify(c.Value)
	if err != nil {
		return nil, session.ErrNotFound
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.Delete(r.Context(), sess.ID)
		return nil, session.ErrNotFound
	}
	return sess, nil
}

// requireSession loads the session into the request context, checks the CSRF
// token on unsafe methods and persists any change the handler made.
func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.loadSession(r)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				s.logger.Error("load session failed", slog.Any("error", err))
			}
			s.clearSessionCookie(w)
			if wantsJSON(r) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": i18n.FromRequest(r).Sprintf(i18n.SessionExpired)})
				return
			}
			redirectError(w, r, "/login", i18n.FromRequest(r).Sprintf(i18n.SessionExpired))
			return
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			token := r.Header.Get(csrfHeaderName)
			if token == "" {
				token = r.FormValue("csrf_token")
			}
			if !security.EqualTokens(strings.TrimSpace(token), sess.CSRFToken) {
				http.Error(w, "invalid csrf token", http.StatusForbidden)
				return
			}
		}

		before := *sess
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		if sess.ID == "" || *sess == before {
			return
		}
		sess.UpdatedAt = s.now()
		if err := s.sessions.Save(context.WithoutCancel(r.Context()), sess); err != nil {
			s.logger.Error("save session failed", slog.Any("error", err))
		}
	})
}

func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		if sess == nil || !sess.IsAdmin {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (s *server) loginPage(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.loadSession(r); err == nil {
		http.Redirect(w, r, homePath(sess), http.StatusFound)
		return
	}
	s.render(w, r, s.loginTmpl, s.newPageData(r, nil, "Sign in"))
}

func homePath(sess *session.Session) string {
	if sess.IsAdmin {
		return "/admin"
	}
	return "/"
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	p := i18n.FromRequest(r)
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, "/login", p.Sprintf(i18n.GenericFailure))
		return
	}
	employeeID := strings.TrimSpace(r.FormValue("employee_id"))
	password := r.FormValue("password")
	if employeeID == "" || password == "" {
		redirectError(w, r, "/login", p.Sprintf(i18n.CredentialsRequired))
		return
	}

	result, err := s.api.SignIn(r.Context(), employeeID, password)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			redirectError(w, r, "/login", apiclient.Message(err, p.Sprintf(i18n.InvalidCredentials)))
			return
		}
		s.logger.Error("sign-in failed", slog.Any("error", err))
		redirectError(w, r, "/login", p.Sprintf(i18n.ServiceUnavailable))
		return
	}

	sess, err := session.New(s.now(), s.sessionTTL)
	if err != nil {
		redirectError(w, r, "/login", p.Sprintf(i18n.GenericFailure))
		return
	}
	sess.BearerToken = result.Token
	sess.Refresh = result.RefreshToken
	sess.EmployeeID = result.Employee.EmployeeID
	if sess.EmployeeID == "" {
		sess.EmployeeID = employeeID
	}
	sess.FullName = result.Employee.FullName
	sess.IsAdmin = result.Employee.IsAdmin || strings.EqualFold(result.Employee.Role, "admin")

	if claims, err := security.ReadClaims(result.Token); err == nil {
		if claims.IsAdmin() {
			sess.IsAdmin = true
		}
		if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(sess.ExpiresAt) {
			sess.ExpiresAt = claims.ExpiresAt
		}
	}

	if err := s.sessions.Create(r.Context(), sess); err != nil {
		s.logger.Error("create session failed", slog.Any("error", err))
		redirectError(w, r, "/login", p.Sprintf(i18n.GenericFailure))
		return
	}
	if n, err := s.sessions.DeleteExpired(r.Context()); err == nil && n > 0 {
		s.logger.Info("purged expired sessions", slog.Int64("count", n))
	}
	s.logger.Info("signed in", slog.String("employee_id", sess.EmployeeID), slog.Bool("admin", sess.IsAdmin))
	s.setSessionCookie(w, sess)
	http.Redirect(w, r, homePath(sess), http.StatusFound)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		s.logger.Warn("delete session failed", slog.Any("error", err))
	}
	s.kiosks.drop(sess.ID)
	s.departments.Drop(sess.ID)
	s.positions.Drop(sess.ID)
	s.employees.Drop(sess.ID)
	sess.ID = ""
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}
