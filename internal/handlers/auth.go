package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/agegate/webapp/internal/mail"
	"github.com/agegate/webapp/internal/services"
	"github.com/agegate/webapp/internal/store"
	"github.com/agegate/webapp/internal/token"
	"github.com/go-chi/chi/v5"
)

// RegisterForm renders the registration page. Authenticated users are sent home.
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, http.StatusOK, "register", "Register", &RegistrationForm{Errors: map[string]string{}})
}

// Register creates a new unconfirmed account and dispatches the confirmation
// email. Validation failures re-render the form with field errors.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}

	form := parseRegistrationForm(r)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "register", "Register", form)
		return
	}

	ctx := r.Context()
	if _, err := h.users.GetByUsername(ctx, form.Username); err == nil {
		form.Errors["username"] = "Please use a different username"
		h.render(w, r, http.StatusOK, "register", "Register", form)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, "register username lookup failed", err)
		return
	}
	if _, err := h.users.GetByEmail(ctx, form.Email); err == nil {
		form.Errors["email"] = "Please use a different email address"
		h.render(w, r, http.StatusOK, "register", "Register", form)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, "register email lookup failed", err)
		return
	}

	user, err := h.users.Register(ctx, form.Username, form.Email, form.Password)
	if err != nil {
		// the unique constraint can still fire between lookup and insert
		if errors.Is(err, store.ErrDuplicate) {
			form.Errors["username"] = "Please use a different username or email address"
			h.render(w, r, http.StatusOK, "register", "Register", form)
			return
		}
		h.serverError(w, r, "register create failed", err)
		return
	}

	confirmToken, err := h.tokens.Issue(user.Email, token.PurposeConfirm)
	if err != nil {
		h.serverError(w, r, "issue confirmation token failed", err)
		return
	}
	confirmURL := h.externalURL + "/confirm/" + confirmToken
	msg, err := mail.NewConfirmationMessage(user.Email, confirmURL)
	if err != nil {
		h.serverError(w, r, "render confirmation mail failed", err)
		return
	}
	if err := h.notifier.Send(ctx, msg); err != nil {
		h.log.Error(ctx, "send confirmation mail failed", "email", user.Email, "error", err)
	}

	setFlash(w, "A confirmation email has been sent via email", flashSuccess)
	redirect(w, r, "/login")
}

// LoginForm renders the login page. Authenticated users are sent home.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	form := &LoginForm{Next: r.URL.Query().Get("next"), Errors: map[string]string{}}
	h.render(w, r, http.StatusOK, "login", "Sign In", form)
}

// Login verifies credentials and establishes a session. The failure message
// never reveals whether the username or the password was wrong.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}

	form := parseLoginForm(r)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "login", "Sign In", form)
		return
	}

	user, err := h.users.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.log.Error(r.Context(), "authenticate failed", "error", err)
		}
		setFlash(w, "Invalid username or password", flashError)
		redirect(w, r, "/login")
		return
	}

	if err := h.sessions.Establish(w, user.ID); err != nil {
		h.serverError(w, r, "establish session failed", err)
		return
	}
	setFlash(w, "You are successfully logged in", flashSuccess)
	redirect(w, r, safeNextTarget(form.Next))
}

// Logout clears the session unconditionally and redirects home.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	redirect(w, r, "/")
}

// ResetPasswordRequestForm renders the reset-request page.
func (h *Handler) ResetPasswordRequestForm(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, http.StatusOK, "reset_password_request", "Reset Password", &ResetRequestForm{Errors: map[string]string{}})
}

// ResetPasswordRequest dispatches a reset email when the address is on file.
// The response is identical whether or not an account matches, so nothing can
// be learned about registered addresses.
func (h *Handler) ResetPasswordRequest(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}

	form := parseResetRequestForm(r)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "reset_password_request", "Reset Password", form)
		return
	}

	ctx := r.Context()
	user, err := h.users.GetByEmail(ctx, form.Email)
	if err == nil {
		resetToken, err := h.tokens.Issue(user.Email, token.PurposeReset)
		if err != nil {
			h.log.Error(ctx, "issue reset token failed", "error", err)
		} else {
			resetURL := h.externalURL + "/reset_password/" + resetToken
			msg, err := mail.NewPasswordResetMessage(user.Email, resetURL)
			if err != nil {
				h.log.Error(ctx, "render reset mail failed", "error", err)
			} else if err := h.notifier.Send(ctx, msg); err != nil {
				h.log.Error(ctx, "send reset mail failed", "error", err)
			}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Error(ctx, "reset request lookup failed", "error", err)
	}

	setFlash(w, "Check your email for the instructions to reset your password", flashSuccess)
	redirect(w, r, "/login")
}

// ResetPasswordForm renders the new-password page after verifying the token.
// Invalid tokens redirect home without disclosing anything.
func (h *Handler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	if _, err := h.tokens.Verify(chi.URLParam(r, "token"), token.PurposeReset); err != nil {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, http.StatusOK, "reset_password", "Reset Password", &ResetPasswordForm{Errors: map[string]string{}})
}

// ResetPassword consumes a reset token and replaces the password hash.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}

	email, err := h.tokens.Verify(chi.URLParam(r, "token"), token.PurposeReset)
	if err != nil {
		redirect(w, r, "/")
		return
	}

	form := parseResetPasswordForm(r)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "reset_password", "Reset Password", form)
		return
	}

	if err := h.users.SetPassword(r.Context(), email, form.Password); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			redirect(w, r, "/")
			return
		}
		h.serverError(w, r, "reset password failed", err)
		return
	}

	setFlash(w, "Your password has been reset", flashSuccess)
	redirect(w, r, "/login")
}

// ConfirmEmail consumes a confirmation token for the logged-in session. A
// token that fails to decode short-circuits immediately; no lookup happens.
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	email, err := h.tokens.Verify(chi.URLParam(r, "token"), token.PurposeConfirm)
	if err != nil {
		setFlash(w, "The confirmation link is invalid or has expired", flashError)
		redirect(w, r, "/")
		return
	}

	_, err = h.users.Confirm(r.Context(), email)
	switch {
	case errors.Is(err, services.ErrAlreadyConfirmed):
		setFlash(w, "Account has already been confirmed please login", flashError)
	case errors.Is(err, store.ErrNotFound):
		setFlash(w, "The confirmation link is invalid or has expired", flashError)
	case err != nil:
		h.log.Error(r.Context(), "confirm account failed", "error", err)
		setFlash(w, "Something went wrong, please try again", flashError)
	default:
		setFlash(w, "Thank you for confirming your account", flashSuccess)
	}
	redirect(w, r, "/")
}

// serverError logs the failure and surfaces only a generic notice.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(r.Context(), msg, "error", err)
	setFlash(w, "Something went wrong, please try again", flashError)
	redirect(w, r, "/")
}

// safeNextTarget keeps post-login redirects on the same origin. Any target
// carrying a host or scheme falls back to the home page.
func safeNextTarget(next string) string {
	if next == "" {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return next
}
