// Package testutil serves a small storefront fixture that mirrors the DOM
// contract the live scenarios rely on, for browser integration tests.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Markup selects which DOM the fixture renders
type Markup int

const (
	// MarkupCurrent uses the selectors the suite is configured with
	MarkupCurrent Markup = iota
	// MarkupChanged renames every selector, as a storefront redesign would
	MarkupChanged
)

// Fixture selectors, identical to the suite defaults
const (
	Brand           = "Mercado Livre"
	InputSelector   = ".nav-search-input"
	TriggerSelector = ".nav-icon-search"
	ResultsSelector = ".ui-search-search-result__quantity-results"
)

// NewStorefront starts an httptest server for the given markup and closes it with the test
func NewStorefront(t testing.TB, markup Markup) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(StorefrontHandler(markup))
	t.Cleanup(server.Close)
	return server
}

// StorefrontHandler serves "/" (landing with search box) and "/search" (results)
func StorefrontHandler(markup Markup) http.Handler {
	prefix := "nav"
	results := "ui-search-search-result__quantity-results"
	if markup == MarkupChanged {
		prefix = "hdr"
		results = "srp-total-count"
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <title>%[1]s | Frete Grátis</title>
  <style>
    .%[2]s-icon-search { display: inline-block; width: 24px; height: 24px; background: #333; }
  </style>
</head>
<body>
  <header>
    <a class="%[2]s-logo" href="/">%[1]s</a>
    <form class="%[2]s-search" action="/search" method="get">
      <input class="%[2]s-search-input" type="text" name="q" placeholder="Buscar produtos">
      <button class="%[2]s-search-btn" type="submit"><div class="%[2]s-icon-search"></div></button>
    </form>
  </header>
  <main><h1>Ofertas do dia</h1></main>
</body>
</html>`, Brand, prefix)
	})

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if query == "" {
			fmt.Fprint(w, `<!DOCTYPE html><html><body><p>Escreva o que você procura</p></body></html>`)
			return
		}

		// Results count is rendered client side after a short delay, like the live listing page
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>%[1]s | %[2]s</title></head>
<body>
  <aside id="filters"></aside>
  <script>
    setTimeout(function () {
      var span = document.createElement("span");
      span.className = "%[3]s";
      span.textContent = "1.234 resultados";
      document.getElementById("filters").appendChild(span);
    }, 300);
  </script>
</body>
</html>`, html.EscapeString(query), Brand, results)
	})

	return mux
}
