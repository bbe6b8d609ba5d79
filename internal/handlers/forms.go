package handlers

import (
	"net/http"
	"net/mail"
	"strings"
)

const minPasswordLength = 8

// RegistrationForm carries the register form fields and per-field errors.
type RegistrationForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	Errors    map[string]string
}

func parseRegistrationForm(r *http.Request) *RegistrationForm {
	return &RegistrationForm{
		Username:  strings.TrimSpace(r.FormValue("username")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
		Password2: r.FormValue("password2"),
		Errors:    map[string]string{},
	}
}

// Validate runs the field constraints and records any failures.
func (f *RegistrationForm) Validate() bool {
	if f.Username == "" {
		f.Errors["username"] = "This field is required"
	}
	if f.Email == "" {
		f.Errors["email"] = "This field is required"
	} else if _, err := mail.ParseAddress(f.Email); err != nil {
		f.Errors["email"] = "Invalid email address"
	}
	validatePasswordPair(f.Password, f.Password2, f.Errors)
	return len(f.Errors) == 0
}

// LoginForm carries the login form fields.
type LoginForm struct {
	Username string
	Password string
	Next     string
	Errors   map[string]string
}

func parseLoginForm(r *http.Request) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
		Next:     r.FormValue("next"),
		Errors:   map[string]string{},
	}
}

func (f *LoginForm) Validate() bool {
	if f.Username == "" {
		f.Errors["username"] = "This field is required"
	}
	if f.Password == "" {
		f.Errors["password"] = "This field is required"
	}
	return len(f.Errors) == 0
}

// ResetRequestForm carries the reset-request form fields.
type ResetRequestForm struct {
	Email  string
	Errors map[string]string
}

func parseResetRequestForm(r *http.Request) *ResetRequestForm {
	return &ResetRequestForm{
		Email:  strings.TrimSpace(r.FormValue("email")),
		Errors: map[string]string{},
	}
}

func (f *ResetRequestForm) Validate() bool {
	if f.Email == "" {
		f.Errors["email"] = "This field is required"
	} else if _, err := mail.ParseAddress(f.Email); err != nil {
		f.Errors["email"] = "Invalid email address"
	}
	return len(f.Errors) == 0
}

// ResetPasswordForm carries the new-password form fields.
type ResetPasswordForm struct {
	Password  string
	Password2 string
	Errors    map[string]string
}

func parseResetPasswordForm(r *http.Request) *ResetPasswordForm {
	return &ResetPasswordForm{
		Password:  r.FormValue("password"),
		Password2: r.FormValue("password2"),
		Errors:    map[string]string{},
	}
}

func (f *ResetPasswordForm) Validate() bool {
	validatePasswordPair(f.Password, f.Password2, f.Errors)
	return len(f.Errors) == 0
}

func validatePasswordPair(password, password2 string, errs map[string]string) {
	if password == "" {
		errs["password"] = "This field is required"
	} else if len(password) < minPasswordLength {
		errs["password"] = "Password must be at least 8 characters long"
	}
	if password2 != password {
		errs["password2"] = "Passwords must match"
	}
}
