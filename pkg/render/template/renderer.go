package template

import (
	"io"
)

// TemplateRenderer executes named templates, or inline template text, against
// a map of values. The result is returned and also copied to every out writer.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(content string, data any, out ...io.Writer) (string, error)
}
