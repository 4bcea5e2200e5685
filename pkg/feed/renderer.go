package feed

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// RenderContext is the data a title or description template is executed
// against. Named entry fields are reachable via the Field function, e.g.
// {{.Field "imdb_url"}}.
type RenderContext struct {
	Title       string
	URL         string
	Description string
	Task        string
	Published   time.Time
	Fields      map[string]string
}

// Field returns a named entry field, empty string when absent
func (c RenderContext) Field(name string) string {
	return c.Fields[name]
}

// TemplateRenderer renders titles and descriptions through text templates.
type TemplateRenderer struct{}

// NewTemplateRenderer creates a template renderer
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render executes the template source against the context. Template parse
// errors are caught earlier by config verification, execution can still fail
// at runtime and the caller falls back to a plain title.
func (r *TemplateRenderer) Render(src string, ctx RenderContext) (string, error) {
	tmpl, err := template.New("render").Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, ctx); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return sb.String(), nil
}

// ValidateTemplate reports whether the template source parses, used by the
// config verification pass so malformed templates fail before processing.
func ValidateTemplate(src string) error {
	if _, err := template.New("verify").Parse(src); err != nil {
		return fmt.Errorf("invalid template %q: %w", src, err)
	}
	return nil
}
