// ABOUTME: Restricted outbound HTTP for hook source: loopback plus named local hosts
// ABOUTME: Rejects disallowed destinations before any network call is attempted

package sandbox

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/agentdeck/agentdeck/internal/httpx"
)

// fetchBodyLimit caps response bodies handed to hook source.
const fetchBodyLimit = 1 << 20 // 1MB

// fetchTimeout bounds a single helper HTTP call. Kept under the hook
// timeout so a slow endpoint surfaces as a fetch error, not a hook
// timeout.
const fetchTimeout = 10 * time.Second

// hostGuard validates fetch destinations against the allowlist.
type hostGuard struct {
	allowed map[string]bool
}

func newHostGuard(allowHosts []string) *hostGuard {
	m := make(map[string]bool, len(allowHosts))
	for _, h := range allowHosts {
		m[strings.ToLower(h)] = true
	}
	return &hostGuard{allowed: m}
}

// check returns an error when rawURL points outside the allowlist.
// Loopback addresses and "localhost" are always permitted.
func (g *hostGuard) check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q not allowed", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	if g.allowed[host] {
		return nil
	}
	return fmt.Errorf("host %q not in fetch allowlist", host)
}

// client returns an HTTP client that re-validates the allowlist on every
// redirect hop. Checking the initial URL alone is not enough: an allowed
// host can answer with a redirect to anywhere.
func (g *hostGuard) client(timeout time.Duration) *http.Client {
	c := httpx.SecureClient(timeout)
	c.CheckRedirect = func(req *http.Request, _ []*http.Request) error {
		return g.check(req.URL.String())
	}
	return c
}

// fetch performs a guarded HTTP request and returns status plus a bounded
// body. method defaults to GET.
func (g *hostGuard) fetch(rawURL, method, body string) (map[string]any, error) {
	if err := g.check(rawURL); err != nil {
		return nil, err
	}
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(strings.ToUpper(method), rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client(fetchTimeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	out := map[string]any{
		"status": resp.StatusCode,
		"ok":     resp.StatusCode >= 200 && resp.StatusCode < 300,
		"body":   string(data),
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		out["text"] = htmlText(string(data))
	}
	return out, nil
}

// htmlText strips markup and returns the readable text of an HTML page,
// so hook source does not have to parse tag soup itself.
func htmlText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	var b strings.Builder
	collectText(doc, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "iframe", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
