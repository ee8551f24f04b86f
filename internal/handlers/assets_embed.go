package handlers

import (
	"embed"
	"html/template"
	"io/fs"

	"devopsquiz/internal/models"
)

// PagesFS embeds the page templates and the stylesheet
//
//go:embed templates/*.html templates/assets/*
var PagesFS embed.FS

// pageFuncs are available to every page template
var pageFuncs = template.FuncMap{
	"difficultyLabel": func(d string) string {
		label, _ := models.DifficultyLabel(d)
		return label
	},
}

// ParsePageTemplates parses the embedded page templates. Each page is looked
// up by its file name, e.g. "index.html".
func ParsePageTemplates() (*template.Template, error) {
	return template.New("pages").Funcs(pageFuncs).ParseFS(PagesFS, "templates/*.html")
}

// StaticFS returns the stylesheet directory served under /static
func StaticFS() (fs.FS, error) {
	return fs.Sub(PagesFS, "templates/assets")
}
