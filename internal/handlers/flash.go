package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "agegate_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// Flash is a one-shot notice shown on the next rendered page only.
type Flash struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// setFlash queues a notice for the next rendered page.
func setFlash(w http.ResponseWriter, message, kind string) {
	data, err := json.Marshal(Flash{Message: message, Kind: kind})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash consumes the pending notice, if any, clearing it so it renders
// exactly once.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash Flash
	if err := json.Unmarshal(data, &flash); err != nil {
		return nil
	}
	return &flash
}
