package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStripHTML(t *testing.T) {
	t.Run("Removes scripts and styles", func(t *testing.T) {
		html := `<html><head><style>body { color: red; }</style></head>
<body><script>alert("hi")</script><p>Visible text</p></body></html>`

		text := StripHTML(html)
		if strings.Contains(text, "alert") {
			t.Error("Expected script content to be removed")
		}
		if strings.Contains(text, "color: red") {
			t.Error("Expected style content to be removed")
		}
		if !strings.Contains(text, "Visible text") {
			t.Error("Expected visible text to survive")
		}
	})

	t.Run("Removes chrome elements", func(t *testing.T) {
		html := `<nav>Menu</nav><header>Banner</header><main>Article body</main><footer>Legal</footer>`

		text := StripHTML(html)
		for _, gone := range []string{"Menu", "Banner", "Legal"} {
			if strings.Contains(text, gone) {
				t.Errorf("Expected %q to be removed", gone)
			}
		}
		if !strings.Contains(text, "Article body") {
			t.Error("Expected article body to survive")
		}
	})

	t.Run("Decodes entities and collapses whitespace", func(t *testing.T) {
		html := "<p>Fish &amp;    Chips</p>\n\n\n\n<p>Second&nbsp;line</p>"

		text := StripHTML(html)
		if !strings.Contains(text, "Fish & Chips") {
			t.Errorf("Expected decoded, collapsed text, got %q", text)
		}
	})
}

func TestFetch(t *testing.T) {
	t.Run("Strips and returns page text", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html><body><h1>Title</h1><p>Paragraph text.</p></body></html>"))
		}))
		defer ts.Close()

		f := New(5, 0)
		text, err := f.Fetch(context.Background(), ts.URL)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if !strings.Contains(text, "Paragraph text.") {
			t.Errorf("Expected page text, got %q", text)
		}
		if strings.Contains(text, "<p>") {
			t.Error("Expected markup to be stripped")
		}
	})

	t.Run("Truncates to character budget", func(t *testing.T) {
		long := strings.Repeat("word ", 1000)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<body>" + long + "</body>"))
		}))
		defer ts.Close()

		f := New(5, 100)
		text, err := f.Fetch(context.Background(), ts.URL)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if len(text) > 103 { // budget plus "..."
			t.Errorf("Expected truncation to 100 chars, got %d", len(text))
		}
		if !strings.HasSuffix(text, "...") {
			t.Error("Expected truncation marker")
		}
	})

	t.Run("Non-200 status is an error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		f := New(5, 0)
		if _, err := f.Fetch(context.Background(), ts.URL); err == nil {
			t.Error("Expected error for 404 response")
		}
	})

	t.Run("Empty URL is an error", func(t *testing.T) {
		f := New(5, 0)
		if _, err := f.Fetch(context.Background(), "   "); err == nil {
			t.Error("Expected error for empty URL")
		}
	})

	t.Run("Unreachable host is an error", func(t *testing.T) {
		f := New(1, 0)
		if _, err := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable"); err == nil {
			t.Error("Expected error for unreachable host")
		}
	})
}
