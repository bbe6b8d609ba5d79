package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// NewConfirmationMessage renders the account-confirmation email.
func NewConfirmationMessage(to, confirmURL string) (Message, error) {
	html, err := render("confirm_email.html", map[string]string{"ConfirmURL": confirmURL})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Please confirm your email",
		HTML:    html,
		Text:    "Please confirm your account: " + confirmURL,
	}, nil
}

// NewPasswordResetMessage renders the password-reset email.
func NewPasswordResetMessage(to, resetURL string) (Message, error) {
	html, err := render("reset_password.html", map[string]string{"ResetURL": resetURL})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Reset your password",
		HTML:    html,
		Text:    "Reset your password: " + resetURL,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render mail template %s: %w", name, err)
	}
	return buf.String(), nil
}
