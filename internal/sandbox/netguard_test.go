// ABOUTME: Tests for guarded fetch: body limits and HTML text extraction
// ABOUTME: Uses httptest loopback servers, which the guard always permits

package sandbox

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch_HTMLResponseGetsTextField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><script>var x=1;</script><style>p{}</style></head>` +
			`<body><nav>menu</nav><p>Hello <b>world</b></p></body></html>`))
	}))
	defer srv.Close()

	g := newHostGuard(nil)
	out, err := g.fetch(srv.URL, "", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	text, _ := out["text"].(string)
	if text != "Hello world" {
		t.Errorf("text = %q, want %q", text, "Hello world")
	}
	if strings.Contains(text, "var x") || strings.Contains(text, "menu") {
		t.Errorf("script/nav content leaked into text: %q", text)
	}
}

func TestFetch_PlainResponseHasNoTextField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	g := newHostGuard(nil)
	out, err := g.fetch(srv.URL, "", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, present := out["text"]; present {
		t.Error("text field should only appear for HTML responses")
	}
	if body, _ := out["body"].(string); body != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}
}

func TestFetch_RedirectOffAllowlistRejected(t *testing.T) {
	t.Parallel()

	// A loopback service is always allowed, but its redirect target must
	// pass the same check before any connection is attempted.
	bouncer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://attacker.example.com/collect", http.StatusFound)
	}))
	defer bouncer.Close()

	g := newHostGuard(nil)
	_, err := g.fetch(bouncer.URL, "", "")
	if err == nil {
		t.Fatal("redirect to a non-allowlisted host must fail")
	}
	if !strings.Contains(err.Error(), "not in fetch allowlist") {
		t.Errorf("err = %v, want allowlist rejection", err)
	}
}

func TestFetch_LoopbackRedirectFollowed(t *testing.T) {
	t.Parallel()

	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("landed"))
	}))
	defer final.Close()

	bouncer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusFound)
	}))
	defer bouncer.Close()

	g := newHostGuard(nil)
	out, err := g.fetch(bouncer.URL, "", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body, _ := out["body"].(string); body != "landed" {
		t.Errorf("body = %q, want landed", body)
	}
}

func TestHTMLText_MalformedInputFallsBack(t *testing.T) {
	t.Parallel()

	// html.Parse tolerates almost anything; just verify no panic and
	// the visible words survive.
	got := htmlText("<p>alpha <em>beta")
	if !strings.Contains(got, "alpha") || !strings.Contains(got, "beta") {
		t.Errorf("htmlText = %q", got)
	}
}
