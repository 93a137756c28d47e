package marketplace

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/models"
)

func TestSearchURL(t *testing.T) {
	tests := []struct {
		niche    string
		expected string
	}{
		{"zapatillas", "https://www.facebook.com/marketplace/search/?query=zapatillas"},
		{"mesa de café", "https://www.facebook.com/marketplace/search/?query=mesa+de+caf%C3%A9"},
		{"a&b", "https://www.facebook.com/marketplace/search/?query=a%26b"},
	}

	for _, tt := range tests {
		t.Run(tt.niche, func(t *testing.T) {
			assert.Equal(t, tt.expected, SearchURL("https://www.facebook.com/", tt.niche))
		})
	}
}

func TestNewBasicRecord(t *testing.T) {
	html := strings.Repeat("<p>x</p>", 1000)
	images := []models.ProductImage{{URL: "https://scontent.xx/1.jpg"}}

	rec := NewBasicRecord("https://www.facebook.com/marketplace/item/1/", html, images, 5000)

	assert.Equal(t, "https://www.facebook.com/marketplace/item/1/", rec.URL)
	assert.Len(t, rec.HTMLContent, 5000)
	assert.Equal(t, html[:5000], rec.HTMLContent)
	assert.Equal(t, images, rec.Images)

	rec = NewBasicRecord("u", "<p>short</p>", nil, 5000)
	assert.Equal(t, "<p>short</p>", rec.HTMLContent)
	assert.NotNil(t, rec.Images)
	assert.Empty(t, rec.Images)
}

func TestStrategyOrder(t *testing.T) {
	names := func(s []browser.Strategy) []string {
		out := make([]string, 0, len(s))
		for _, st := range s {
			out = append(out, st.Name)
		}
		return out
	}

	assert.Equal(t, []string{
		`placeholder="Email or phone number"`,
		`placeholder="Correo electrónico o número de teléfono"`,
		`input[name="email"]`,
	}, names(EmailStrategies))

	assert.Equal(t, []string{
		`placeholder="Password"`,
		`placeholder="Contraseña"`,
		`input[name="pass"]`,
	}, names(PasswordStrategies))

	assert.Equal(t, []string{
		`role=button[name="Log In"]`,
		`role=button[name="Iniciar sesión"]`,
		`button[name="login"]`,
	}, names(SubmitStrategies))
}

func TestClosedClient(t *testing.T) {
	c := &Client{}
	ctx := context.Background()

	assert.ErrorIs(t, c.Login(ctx, "a", "b"), ErrNoPage)
	assert.ErrorIs(t, c.OpenSearch(ctx, "x"), ErrNoPage)
	_, err := c.DiscoverLinks(ctx, 5)
	assert.ErrorIs(t, err, ErrNoPage)
	_, _, err = c.CaptureProduct(ctx, "u")
	assert.ErrorIs(t, err, ErrNoPage)
	assert.NoError(t, c.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Marketplace.BaseURL = "https://www.facebook.com"
	cfg.Browser.LandmarkTimeout = 30 * time.Second
	cfg.Pipeline.ScrollCycles = 3
	cfg.Pipeline.BasicHTMLLimit = 5000

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "https://www.facebook.com", opts.BaseURL)
	assert.Equal(t, 30*time.Second, opts.LandmarkTimeout)
	assert.Equal(t, 3, opts.ScrollCycles)
	assert.Equal(t, 5000, opts.BasicHTMLLimit)
}

func TestOpenSearchAgainstLocalPage(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping browser test. Set INTEGRATION_TEST=true to run")
	}

	bopts := browser.DefaultOptions()
	bopts.Headless = true
	bopts.SlowMo = 0

	opts := Options{
		BaseURL:           "data:text/html,",
		NavigationTimeout: 10 * time.Second,
		LandmarkTimeout:   5 * time.Second,
		ImageScanLimit:    5,
		BasicHTMLLimit:    5000,
	}

	c, err := Open(bopts, opts, nil)
	require.NoError(t, err)
	defer c.Close()

	html, rec, err := c.CaptureProduct(context.Background(),
		`data:text/html,<div role="main"><img src="https://scontent.xx/a.jpg" alt="a"></div>`)
	require.NoError(t, err)
	assert.Contains(t, html, `role="main"`)
	require.Len(t, rec.Images, 1)
	assert.Equal(t, "https://scontent.xx/a.jpg", rec.Images[0].URL)
}
