package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/htmlner"
	nerhttp "github.com/fwojciec/htmlner/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return server.URL
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body and sends user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.UserAgent()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>Acme Corp</p>"))
		})

		body, err := nerhttp.NewFetcher(nerhttp.WithUserAgent("test-agent")).Fetch(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, "<p>Acme Corp</p>", body)
		assert.Equal(t, "test-agent", gotUA)
	})

	t.Run("decodes declared charsets to UTF-8", func(t *testing.T) {
		t.Parallel()

		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<p>Montr\xe9al</p>"))
		})

		body, err := nerhttp.NewFetcher().Fetch(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, "<p>Montréal</p>", body)
	})

	t.Run("maps missing pages to not found", func(t *testing.T) {
		t.Parallel()

		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})

		_, err := nerhttp.NewFetcher().Fetch(context.Background(), url)

		require.Error(t, err)
		assert.Equal(t, htmlner.ENOTFOUND, htmlner.ErrorCode(err))
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("fails on server errors", func(t *testing.T) {
		t.Parallel()

		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := nerhttp.NewFetcher().Fetch(context.Background(), url)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("rejects non-HTML content", func(t *testing.T) {
		t.Parallel()

		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		})

		_, err := nerhttp.NewFetcher().Fetch(context.Background(), url)

		require.Error(t, err)
		assert.Equal(t, htmlner.EINVALID, htmlner.ErrorCode(err))
	})

	t.Run("rejects oversized pages", func(t *testing.T) {
		t.Parallel()

		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<p>" + strings.Repeat("x", 100) + "</p>"))
		})

		_, err := nerhttp.NewFetcher(nerhttp.WithMaxBytes(50)).Fetch(context.Background(), url)

		require.Error(t, err)
		assert.Equal(t, htmlner.EINVALID, htmlner.ErrorCode(err))
	})

	t.Run("respects timeout option", func(t *testing.T) {
		t.Parallel()

		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		})

		_, err := nerhttp.NewFetcher(nerhttp.WithTimeout(10*time.Millisecond)).Fetch(context.Background(), url)

		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<p>x</p>"))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := nerhttp.NewFetcher().Fetch(ctx, url)

		require.Error(t, err)
	})
}
