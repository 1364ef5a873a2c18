// Package views renders the server-side HTML pages. Every page is parsed once
// at start-up together with the shared layout and includes.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Render.
const (
	PageListingsIndex = "listings/index"
	PageListingsNew   = "listings/new"
	PageListingsShow  = "listings/show"
	PageListingsEdit  = "listings/edit"
	PageSignup        = "users/signup"
	PageLogin         = "users/login"
	PageError         = "error"
)

// Locals is the per-request data every page can show.
type Locals struct {
	Success  []string
	Error    []string
	CurrUser *models.User
}

// Page is the value handed to a template.
type Page struct {
	Locals
	Title string
	Data  any
}

// ErrorData is the Data of the error page.
type ErrorData struct {
	Status  int
	Message string
}

// Renderer executes pre-parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"price": formatPrice,
	"stars": func(rating int) string {
		if rating < 0 {
			rating = 0
		}
		return strings.Repeat("★", rating) + strings.Repeat("☆", max(0, 5-rating))
	},
}

// New parses the layout, includes and every page.
func New() (*Renderer, error) {
	shared := []string{"templates/layouts/*.html", "templates/includes/*.html"}

	pageFiles, err := fs.Glob(templatesFS, "templates/*/*.html")
	if err != nil {
		return nil, err
	}
	pageFiles = append(pageFiles, "templates/error.html")

	renderer := &Renderer{pages: map[string]*template.Template{}}
	for _, pageFile := range pageFiles {
		dir := path.Base(path.Dir(pageFile))
		if dir == "layouts" || dir == "includes" {
			continue
		}

		name := strings.TrimSuffix(strings.TrimPrefix(pageFile, "templates/"), ".html")
		patterns := append([]string{pageFile}, shared...)
		page, err := template.New(path.Base(pageFile)).Funcs(funcs).ParseFS(templatesFS, patterns...)
		if err != nil {
			return nil, fmt.Errorf("in internal/views/views.go/New(): error while parsing %q: %w", pageFile, err)
		}
		renderer.pages[name] = page
	}

	return renderer, nil
}

// Render writes page with the given status. Nothing is written when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("the page %q does not exist", name)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "layout", page); err != nil {
		return fmt.Errorf("in internal/views/views.go/Render(): error while executing %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)

	return err
}

// StaticHandler serves the embedded assets under prefix.
func StaticHandler(prefix string) http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}

// formatPrice renders 12345.5 as "12,346".
func formatPrice(value float64) string {
	digits := strconv.FormatFloat(value, 'f', 0, 64)
	negative := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var out strings.Builder
	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(digit)
	}

	if negative {
		return "-" + out.String()
	}
	return out.String()
}
