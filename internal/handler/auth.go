package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/model"
)

const sessionCookieName = "proctor_session"

// requireAuth guards the admin review endpoints with a cookie session.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sess, err := h.auth.GetAuthSession(cookie.Value)
		if err != nil || sess == nil {
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := h.auth.GetUserByID(sess.UserID)
		if err != nil || user == nil || !user.Active {
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.serveStatic(w, "static/login.html")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.auth.GetUserByUsername(username)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil || !user.Active ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		slog.Warn("failed login attempt", "username", username)
		http.Error(w, i18n.T(r.Context(), "LoginError"), http.StatusUnauthorized)
		return
	}

	token, err := h.auth.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.Exam.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("admin logged in", "username", user.Username)
	http.Redirect(w, r, "/admin/results", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.auth.DeleteAuthSession(cookie.Value); err != nil {
			slog.Error("failed to delete auth session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.Exam.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
