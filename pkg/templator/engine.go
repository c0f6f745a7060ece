package templator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// tripleTag matches the unescaped {{{ name }}} form of a placeholder.
var tripleTag = regexp.MustCompile(`\{\{\{([^{}]*)\}\}\}`)

// ErrMissingVariable is returned when a template references a variable that was not supplied.
var ErrMissingVariable = errors.New("missing template variable")

// Vars maps placeholder names to string or numeric values.
type Vars map[string]any

// Render substitutes every {{ name }} placeholder in text. Whitespace inside the braces
// is ignored. {{{ name }}} and {{& name }} are accepted as the same placeholder and
// {{! ... }} is a comment that renders as nothing. Values are never escaped.
// A placeholder without a matching entry in vars is an error.
func Render(text string, vars Vars) (string, error) {
	text = tripleTag.ReplaceAllString(text, startTag+"$1"+endTag)

	return fasttemplate.ExecuteFuncStringWithErr(text, startTag, endTag, func(w io.Writer, tag string) (int, error) {
		name := strings.TrimSpace(tag)
		if strings.HasPrefix(name, "!") {
			return 0, nil
		}
		name = strings.TrimSpace(strings.TrimPrefix(name, "&"))

		value, ok := vars[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
		return fmt.Fprint(w, value)
	})
}

type Engine struct {
	templates map[string]string
}

func NewEngine() *Engine {
	return &Engine{
		templates: make(map[string]string),
	}
}

func (e *Engine) LoadTemplate(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load template %s from %s: %w", name, path, err)
	}
	e.templates[name] = string(data)
	return nil
}

func (e *Engine) LoadTemplateText(name, text string) {
	e.templates[name] = text
}

func (e *Engine) HasTemplate(name string) bool {
	_, exists := e.templates[name]
	return exists
}

func (e *Engine) RenderToFile(name, outputPath string, vars Vars) error {
	data, err := e.RenderToBytes(name, vars)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	return nil
}

func (e *Engine) RenderToBytes(name string, vars Vars) ([]byte, error) {
	text, exists := e.templates[name]
	if !exists {
		return nil, fmt.Errorf("template %s not found", name)
	}

	rendered, err := Render(text, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}

	return []byte(rendered), nil
}
