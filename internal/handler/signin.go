package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// SigninPageHandler serves the browser sign-in form.
//
// Templates are parsed once at construction. base.html lays out the page
// and signin.html fills its "content" block.
type SigninPageHandler struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewSigninPageHandler parses the embedded templates.
func NewSigninPageHandler(logger *slog.Logger) (*SigninPageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/signin.html")
	if err != nil {
		return nil, err
	}

	return &SigninPageHandler{
		templates: tmpl,
		logger:    logger,
	}, nil
}

// HandleSignin renders the sign-in page.
//
// HTTP: GET /signin (and GET /)
func (h *SigninPageHandler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":       "Sign in",
		"LoginURL":    "/user/login",
		"RedirectURL": "/",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
