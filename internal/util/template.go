package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplate renders a prompt template with text/template. Missing
// placeholders are an error, not a silent empty string: prompt templates are
// contracts and a hole in one is a per-turn failure.
func RenderTemplate(text string, vars map[string]any) (string, error) {
	tmpl, err := template.New("prompt").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"default": func(defaultVal any, val any) any {
				if val == nil || val == "" {
					return defaultVal
				}
				return val
			},
		}).
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
