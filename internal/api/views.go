package api

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

type views struct {
	templates *template.Template
}

func newViews() (*views, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &views{templates: tmpl}, nil
}

func (v *views) Render(w io.Writer, name string, data any) error {
	return v.templates.ExecuteTemplate(w, name+".html", data)
}
