package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, data PageData) *httptest.ResponseRecorder {
	t.Helper()

	renderer, err := NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	e.GET("/", NewPage(data).Handler)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestPage_RendersChatCopy(t *testing.T) {
	rec := serve(t, DefaultPageData())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))

	body := rec.Body.String()
	assert.Contains(t, body, "<title>CDU AI</title>")
	assert.Contains(t, body, "Help for CDU Students")
	assert.Contains(t, body, "Powered by Falcon RAG AI")
	assert.Contains(t, body, `placeholder="Type your question about CDU..."`)
	assert.Regexp(t, `const voice =\s*false\s*;`, body)
	assert.NotContains(t, body, `id="mic"`)
}

func TestPage_VoiceControls(t *testing.T) {
	data := DefaultPageData()
	data.VoiceEnabled = true

	body := serve(t, data).Body.String()
	assert.Regexp(t, `const voice =\s*true\s*;`, body)
	assert.Contains(t, body, `id="mic"`)
}

func TestPage_EscapesCopy(t *testing.T) {
	data := DefaultPageData()
	data.Heading = "<script>alert(1)</script>"

	body := serve(t, data).Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestPage_AnimatesOnlyNewMessages(t *testing.T) {
	body := serve(t, DefaultPageData()).Body.String()

	// Rows already shown once opt out of the enter animation, and new
	// messages are inserted instead of rebuilding the list.
	assert.Contains(t, body, ".row.settled { animation: none; }")
	assert.Contains(t, body, `el.classList.add("settled")`)
	assert.Contains(t, body, "list.insertBefore(row(msg)")
	assert.NotContains(t, body, "function render()")
}
