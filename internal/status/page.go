package status

import (
	_ "embed"
	"html/template"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("status").Parse(pageSource))
