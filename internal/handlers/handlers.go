// Package handlers implements the route layer: each handler validates input,
// consults the session gate, performs at most one store mutation or one
// classification call, and redirects or renders a response.
package handlers

import (
	"net/http"

	"github.com/agegate/webapp/internal/classifier"
	"github.com/agegate/webapp/internal/logging"
	"github.com/agegate/webapp/internal/mail"
	"github.com/agegate/webapp/internal/services"
	"github.com/agegate/webapp/internal/storage"
	"github.com/agegate/webapp/internal/token"
	"github.com/go-chi/chi/v5"
)

// Deps carries everything the route layer orchestrates.
type Deps struct {
	Users         *services.UserService
	Tokens        *token.Service
	Notifier      mail.Notifier
	Model         classifier.Classifier
	Uploads       storage.ObjectStorage
	Sessions      *SessionManager
	Log           logging.Logger
	ExternalURL   string
	RetainUploads bool
}

// Handler provides the HTTP handlers for the application.
type Handler struct {
	users         *services.UserService
	tokens        *token.Service
	notifier      mail.Notifier
	model         classifier.Classifier
	uploads       storage.ObjectStorage
	sessions      *SessionManager
	log           logging.Logger
	externalURL   string
	retainUploads bool
}

// New constructs a Handler with the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		users:         deps.Users,
		tokens:        deps.Tokens,
		notifier:      deps.Notifier,
		model:         deps.Model,
		uploads:       deps.Uploads,
		sessions:      deps.Sessions,
		log:           deps.Log,
		externalURL:   deps.ExternalURL,
		retainUploads: deps.RetainUploads,
	}
}

// Routes registers all application routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.withUser)

	r.Get("/", h.Index)
	r.Get("/index", h.Index)

	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)

	r.Get("/reset_password_request", h.ResetPasswordRequestForm)
	r.Post("/reset_password_request", h.ResetPasswordRequest)
	r.Get("/reset_password/{token}", h.ResetPasswordForm)
	r.Post("/reset_password/{token}", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/inference", h.InferenceForm)
		r.Post("/inference", h.Infer)
		r.Get("/confirm/{token}", h.ConfirmEmail)
		r.Post("/confirm/{token}", h.ConfirmEmail)
	})
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
