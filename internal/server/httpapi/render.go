package httpapi

import (
	"embed"
	"html/template"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

// templateRenderer renders the embedded templates by file name.
type templateRenderer struct {
	templates *template.Template
}

func newRenderer() *templateRenderer {
	t := template.Must(template.New("").ParseFS(templateFS, "templates/*.html", "templates/partials/*.html"))
	return &templateRenderer{templates: t}
}

func (r *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// formatScore renders a spam probability with three decimals.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}
