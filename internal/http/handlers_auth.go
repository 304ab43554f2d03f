package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"spendlog/internal/auth"
	"spendlog/internal/core"
	"spendlog/internal/validate"
)

type authView struct {
	Title    string
	Flash    string
	Errors   []string
	Username string
}

func (s *Server) handleSignUpForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "sign_up.html", authView{Title: "Sign Up", Flash: s.popFlash(w, r)})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "path", r.URL.Path)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	username := sanitizeInput(r.Form.Get("username"))
	password := r.Form.Get("password")

	if errs := validate.SignUpErrors(r.Context(), username, password, s.store); len(errs) > 0 {
		s.renderWithStatus(w, r, http.StatusUnprocessableEntity, "sign_up.html", authView{
			Title:    "Sign Up",
			Errors:   errs,
			Username: username,
		})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.ErrorContext(r.Context(), "Password hashing failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	userID, err := s.store.CreateUser(r.Context(), username, hash)
	if err != nil {
		slog.ErrorContext(r.Context(), "User creation failed", "error", err, "username", username)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "User signed up", "user_id", userID, "username", username)

	s.setFlash(w, "Account created. Please sign in")
	http.Redirect(w, r, "/sign_in", http.StatusSeeOther)
}

func (s *Server) handleSignInForm(w http.ResponseWriter, r *http.Request) {
	// Already signed in? Straight to the list.
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if _, err := s.store.SessionUser(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/expenses", http.StatusFound)
			return
		}
	}
	s.render(w, r, "sign_in.html", authView{Title: "Sign In", Flash: s.popFlash(w, r)})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "path", r.URL.Path)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	username := sanitizeInput(r.Form.Get("username"))
	password := r.Form.Get("password")

	// The same message for unknown user and wrong password: sign-in must
	// not reveal which usernames exist.
	invalid := func() {
		s.renderWithStatus(w, r, http.StatusUnprocessableEntity, "sign_in.html", authView{
			Title:    "Sign In",
			Errors:   []string{"Invalid username or password"},
			Username: username,
		})
	}

	if username == "" || password == "" {
		invalid()
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(r.Context(), "User lookup failed", "error", err)
		}
		invalid()
		return
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		slog.WarnContext(r.Context(), "Failed sign-in attempt", "username", username)
		invalid()
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.ErrorContext(r.Context(), "Session token generation failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Replace any prior session before issuing the new one.
	if err := s.store.DeleteUserSessions(r.Context(), user.ID); err != nil {
		slog.ErrorContext(r.Context(), "Prior session invalidation failed", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := s.store.CreateSession(r.Context(), token, user.ID, time.Now().UTC().Add(s.sessionTTL)); err != nil {
		slog.ErrorContext(r.Context(), "Session creation failed", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.setSessionCookie(w, token)

	slog.InfoContext(r.Context(), "User signed in", "user_id", user.ID, "username", user.Username)

	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := s.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			slog.ErrorContext(r.Context(), "Session deletion failed", "error", err)
		}
	}
	s.clearSessionCookie(w)
	s.setFlash(w, "You have been signed out")
	http.Redirect(w, r, "/sign_in", http.StatusFound)
}
