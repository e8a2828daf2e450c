package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "stocktake/m/internal/errors"
	"stocktake/m/internal/session"
)

// requestLogger logs the start and completion of every request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := h.log.WithFields(r.Context(), map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		h.log.Info(ctx, "request.start")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		done := h.log.WithFields(ctx, map[string]any{
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		h.log.Info(done, "request.complete")
	})
}

func sessionCookieName(portal session.Portal) string {
	return "stocktake_" + string(portal) + "_session"
}

func sessionToken(r *http.Request, portal session.Portal) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(sessionCookieName(portal)); err == nil {
		return cookie.Value
	}
	return ""
}

// requireSession rejects requests without a valid session for portal and stores the
// session on the request context.
func (h *Handler) requireSession(portal session.Portal, missing string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, portal)
			if token == "" {
				h.respondError(w, r, apperrors.New(apperrors.CodeUnauthorized, missing))
				return
			}
			sess, err := h.sessions.Parse(token, portal)
			if err != nil {
				h.respondError(w, r, apperrors.Wrap(apperrors.CodeUnauthorized, err, "session expired or invalid"))
				return
			}

			ctx := session.WithContext(r.Context(), sess)
			ctx = h.log.WithField(ctx, "department", sess.Department)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, portal session.Portal, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName(portal),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter, portal session.Portal) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName(portal),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   session.Session `json:"session"`
	Message   string          `json:"message,omitempty"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, sess session.Session, message string) {
	token, expires, err := h.sessions.Issue(sess)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.setSessionCookie(w, sess.Portal, token, expires)
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, ExpiresAt: expires, Session: sess, Message: message})
}

func (h *Handler) endSession(portal session.Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.clearSessionCookie(w, portal)
		respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}
