package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/agegate/webapp/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"index",
	"register",
	"login",
	"inference",
	"reset_password_request",
	"reset_password",
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		parsed[name] = template.Must(template.ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}
	return parsed
}

type pageData struct {
	Title string
	User  *types.User
	Flash *Flash
	Form  any
}

// render executes a page template inside the shared layout, injecting the
// current user and any pending flash notice.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, form any) {
	data := pageData{
		Title: title,
		User:  userFromContext(r.Context()),
		Flash: popFlash(w, r),
		Form:  form,
	}

	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error(r.Context(), "render page failed", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
