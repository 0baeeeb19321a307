package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	PageSignIn  = "signin.html"
	PageSignUp  = "signup.html"
	PageConfirm = "confirm.html"
	PageNotes   = "notes.html"
	PageError   = "error.html"
)

var pages = []string{PageSignIn, PageSignUp, PageConfirm, PageNotes, PageError}

// Page is the data every template is executed with.
type Page struct {
	Title    string
	CSRF     string
	Username string
	Notes    []*contract.NoteResponse

	// Values echoes submitted form fields back, Problems holds the first
	// validation problem per field.
	Values   map[string]string
	Problems map[string]string

	Error  string
	Info   string
	Status int
}

// WithError fills Error and Problems from a service error.
func (p *Page) WithError(err apierror.ErrorResponse) *Page {
	p.Status = err.Code()
	if structured, ok := err.(*apierror.StructuredError); ok {
		if p.Problems == nil {
			p.Problems = make(map[string]string, len(structured.Errors))
		}
		for field := range structured.Errors {
			p.Problems[field] = structured.First(field)
		}
		return p
	}
	p.Error = apierror.Message(err)
	return p
}

// Renderer executes the embedded page templates for echo.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("").ParseFS(templatesFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
