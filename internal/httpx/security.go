// ABOUTME: Hardened HTTP client and server constructors with conservative timeouts
// ABOUTME: Used by the sandbox fetch/llmQuery helpers and the ingress server

package httpx

import (
	"net/http"
	"time"
)

// SecureClient creates an HTTP client with bounded connection behavior.
func SecureClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
		},
	}
}

// SecureServer creates an HTTP server hardened against slow clients.
func SecureServer(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}
