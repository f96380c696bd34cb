package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pricewatch/hardgamers-watcher/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This is a simple test HTML that mimics a HardGamers listing page
const testHTML = `
<!DOCTYPE html>
<html>
<head>
    <title>HardGamers</title>
</head>
<body>
    <section class="products">
        <article>
            <a href="/product/1"><h3 class="product-title">Placa de video RTX 4060</h3></a>
            <h2 class="product-price">$459.999</h2>
        </article>
        <article>
            <a href="/product/2"><h3 class="product-title">Placa de video RTX 4060 Ti</h3></a>
            <h2 class="product-price">$549.999,90</h2>
        </article>
        <article>
            <h3 class="product-title">Sin precio</h3>
        </article>
    </section>
</body>
</html>
`

type testSite struct {
	server   *httptest.Server
	searches atomic.Int32
	failing  atomic.Bool
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()

	site := &testSite{}
	site.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if site.failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path == "/search" {
			site.searches.Add(1)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(testHTML))
	}))
	t.Cleanup(site.server.Close)
	return site
}

func newTestApp(t *testing.T, site *testSite) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{
		FeaturedURL:     site.server.URL + "/deals?page=1",
		SearchURL:       site.server.URL + "/search?text={query}",
		SiteOrigin:      site.server.URL,
		FetchMaxRetries: 2,
		FetchBaseDelay:  time.Millisecond,
		FetchTimeout:    time.Second,
		CheckInterval:   time.Minute,
		DatabasePath:    filepath.Join(t.TempDir(), "pricewatcher.db"),
	}
	require.NoError(t, cfg.Validate())

	var out bytes.Buffer
	app, err := newApp(context.Background(), cfg, &out)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	return app, &out
}

func TestIntegration_SearchAndAlerts(t *testing.T) {
	site := newTestSite(t)
	app, out := newTestApp(t, site)
	ctx := context.Background()

	require.NoError(t, app.Run(ctx, []string{"search", "rtx", "4060"}))
	assert.Contains(t, out.String(), "Placa de video RTX 4060")
	assert.Contains(t, out.String(), "$459,999.00")
	assert.Contains(t, out.String(), site.server.URL+"/product/2")
	assert.NotContains(t, out.String(), "Sin precio")
	assert.Contains(t, out.String(), "Suggested alert target: $413,999.10")

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"history", "ti"}))
	assert.Contains(t, out.String(), "RTX 4060 Ti")

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"alert-add", "500.000", "rtx", "4060"}))
	assert.Contains(t, out.String(), "Alert 1 created")

	require.NoError(t, app.Run(ctx, []string{"alert-add", "auto", "rtx", "4060", "ti"}))
	require.NoError(t, app.Run(ctx, []string{"alert-toggle", "2"}))

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"check"}))
	assert.Contains(t, out.String(), "Alert 1: 2 products, 1 at or below target")
	assert.Contains(t, out.String(), "Checked 1 alerts, 1 products at or below target.")

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"summary"}))
	assert.Contains(t, out.String(), "Total: 2  Active: 1  Inactive: 1")

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"alert-delete", "2"}))
	assert.Contains(t, out.String(), "Alert 2 deleted")

	out.Reset()
	require.NoError(t, app.Run(ctx, []string{"alert-delete", "2"}))
	assert.Contains(t, out.String(), "Alert 2 not found.")
}

func TestIntegration_FetchFailureDegradesToNoResults(t *testing.T) {
	site := newTestSite(t)
	app, out := newTestApp(t, site)
	site.failing.Store(true)

	require.NoError(t, app.Run(context.Background(), []string{"featured"}))
	assert.Contains(t, out.String(), "No featured products found.")
}

func TestIntegration_UsageErrors(t *testing.T) {
	site := newTestSite(t)
	app, _ := newTestApp(t, site)
	ctx := context.Background()

	for _, args := range [][]string{
		{},
		{"unknown"},
		{"search", "   "},
		{"alert-add", "100"},
		{"alert-toggle", "abc"},
		{"recent", "0"},
	} {
		t.Run(strings.Join(args, "_"), func(t *testing.T) {
			assert.ErrorIs(t, app.Run(ctx, args), errUsage)
		})
	}
	assert.Equal(t, int32(0), site.searches.Load())
}

func TestIntegration_InvalidTarget(t *testing.T) {
	site := newTestSite(t)
	app, _ := newTestApp(t, site)

	err := app.Run(context.Background(), []string{"alert-add", "0", "gpu"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
}
