package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/notectx/core"
	"github.com/poiesic/notectx/providers"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>  Eiffel Tower —
  History </title><style>p { color: red }</style></head>
<body>
<nav><p>Home News About Contact and plenty of other navigation text</p></nav>
<header><p>A large sticky header banner with a promotional message inside</p></header>
<article>
  <h1>History of the Eiffel Tower</h1>
  <p>The Eiffel Tower was completed in March 1889 as the entrance arch to the World's Fair.</p>
  <p>Short.</p>
  <p>Gustave Eiffel's company designed and built
     the tower over the course of two years.</p>
  <script>trackPageView();</script>
</article>
<footer><p>Copyright notice and a long list of legal disclaimers down here</p></footer>
</body>
</html>`

func newTestFetcher(t *testing.T, opts ...Option) providers.ContentFetcher {
	t.Helper()
	f, err := NewFetcher(opts...)
	require.NoError(t, err)
	return f
}

func TestFetchExtractsArticleContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)

	doc, err := fetcher.Fetch(context.Background(), server.URL+"/eiffel")
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, core.FetchOk, doc.Status)
	assert.Equal(t, "Eiffel Tower — History", doc.Title, "title whitespace collapsed")
	assert.False(t, doc.FetchedAt.IsZero())

	// Only the article's substantial paragraphs survive.
	assert.Contains(t, doc.Text, "completed in March 1889")
	assert.Contains(t, doc.Text, "Gustave Eiffel's company designed and built the tower")
	assert.NotContains(t, doc.Text, "Short.")
	assert.NotContains(t, doc.Text, "navigation text")
	assert.NotContains(t, doc.Text, "sticky header")
	assert.NotContains(t, doc.Text, "legal disclaimers")
	assert.NotContains(t, doc.Text, "trackPageView")
}

func TestFetchFallsBackToBodyText(t *testing.T) {
	page := `<html><head><title>Plain</title></head>
<body><div><span>No paragraph tags here, just a div with enough words to matter.</span></div></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, WithoutRobots())

	doc, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "just a div with enough words")
}

func TestFetchHonorsRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/private/page")
	require.ErrorIs(t, err, ErrRobotsDisallowed)

	doc, err := fetcher.Fetch(context.Background(), server.URL+"/public/page")
	require.NoError(t, err)
	assert.Equal(t, core.FetchOk, doc.Status)
}

func TestFetchPermissiveOnRobotsErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t)

	doc, err := fetcher.Fetch(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.Equal(t, core.FetchOk, doc.Status)
}

func TestFetchTruncatesOversizedBodies(t *testing.T) {
	huge := "<html><body><article><p>" +
		strings.Repeat("The tower is three hundred meters tall. ", 200) +
		"</p></article></body></html>"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(huge))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, WithoutRobots(), WithMaxBodyBytes(2048))

	doc, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Text)
	assert.LessOrEqual(t, len(doc.Text), 2048)
}

func TestFetchRejections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", http.NotFound)
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><nav>only navigation</nav></body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, WithoutRobots())

	t.Run("bad scheme", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), "ftp://example.com/file")
		require.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("http error status", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/missing")
		require.ErrorIs(t, err, ErrFetchFailed)
	})

	t.Run("non-text content", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/image")
		require.ErrorIs(t, err, ErrUnsupportedContent)
	})

	t.Run("no readable text", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), server.URL+"/empty")
		require.ErrorIs(t, err, ErrNoContent)
	})
}

func TestParseRobots(t *testing.T) {
	t.Run("wildcard group", func(t *testing.T) {
		rules := parseRobots(strings.NewReader(
			"User-agent: *\nDisallow: /admin\nDisallow: /tmp\n"), DefaultUserAgent)
		require.NotNil(t, rules)
		assert.Equal(t, []string{"/admin", "/tmp"}, rules.disallow)
	})

	t.Run("specific group wins", func(t *testing.T) {
		rules := parseRobots(strings.NewReader(
			"User-agent: *\nDisallow: /everything\n\nUser-agent: notectx\nDisallow: /only-this\n"), DefaultUserAgent)
		require.NotNil(t, rules)
		assert.Equal(t, []string{"/only-this"}, rules.disallow)
	})

	t.Run("empty disallow allows all", func(t *testing.T) {
		rules := parseRobots(strings.NewReader("User-agent: *\nDisallow:\n"), DefaultUserAgent)
		require.NotNil(t, rules)
		assert.Empty(t, rules.disallow)
	})

	t.Run("comments ignored", func(t *testing.T) {
		rules := parseRobots(strings.NewReader(
			"# a comment\nUser-agent: * # trailing\nDisallow: /x # also trailing\n"), DefaultUserAgent)
		require.NotNil(t, rules)
		assert.Equal(t, []string{"/x"}, rules.disallow)
	})
}
