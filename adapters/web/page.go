package web

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData fills the chat page template.
type PageData struct {
	Title        string
	Heading      string
	Subtitle     string
	Placeholder  string
	VoiceEnabled bool
}

func DefaultPageData() PageData {
	return PageData{
		Title:       "CDU AI",
		Heading:     "Help for CDU Students",
		Subtitle:    "Powered by Falcon RAG AI",
		Placeholder: "Type your question about CDU...",
	}
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// Page serves the chat page. The page talks to the JSON API and the
// websocket on the same origin.
type Page struct {
	data PageData
}

func NewPage(data PageData) *Page {
	return &Page{data: data}
}

func (p *Page) Handler(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Render(http.StatusOK, "index.html", p.data)
}
