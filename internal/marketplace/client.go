package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/marketplace-scraper/internal/browser"
	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/parser"
	"github.com/maltedev/marketplace-scraper/pkg/stringutil"
)

const MainLandmark = `div[role="main"]`

var (
	ErrNoPage = errors.New("browser page is not open")

	EmailStrategies = []browser.Strategy{
		browser.ByPlaceholder("Email or phone number"),
		browser.ByPlaceholder("Correo electrónico o número de teléfono"),
		browser.BySelector(`input[name="email"]`),
	}

	PasswordStrategies = []browser.Strategy{
		browser.ByPlaceholder("Password"),
		browser.ByPlaceholder("Contraseña"),
		browser.BySelector(`input[name="pass"]`),
	}

	SubmitStrategies = []browser.Strategy{
		browser.ByRole("button", "Log In"),
		browser.ByRole("button", "Iniciar sesión"),
		browser.BySelector(`button[name="login"]`),
	}
)

type Options struct {
	BaseURL           string
	NavigationTimeout time.Duration
	LandmarkTimeout   time.Duration
	NetworkIdle       time.Duration
	ActionTimeout     time.Duration
	ScrollCycles      int
	ScrollDelay       time.Duration
	SettleDelay       time.Duration
	ImageScanLimit    int
	BasicHTMLLimit    int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:           cfg.Marketplace.BaseURL,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		LandmarkTimeout:   cfg.Browser.LandmarkTimeout,
		NetworkIdle:       cfg.Browser.NetworkIdle,
		ActionTimeout:     cfg.Browser.ActionTimeout,
		ScrollCycles:      cfg.Pipeline.ScrollCycles,
		ScrollDelay:       cfg.Pipeline.ScrollDelay,
		SettleDelay:       cfg.Pipeline.SettleDelay,
		ImageScanLimit:    cfg.Pipeline.ImageScanLimit,
		BasicHTMLLimit:    cfg.Pipeline.BasicHTMLLimit,
	}
}

// Client is one logged-in browser session against the marketplace.
type Client struct {
	browser *browser.Browser
	page    playwright.Page
	parser  parser.Parser
	opts    Options
	logger  *slog.Logger
}

// Open launches the browser and a single page that the whole run shares.
func Open(browserOpts *browser.Options, opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b, err := browser.New(browserOpts)
	if err != nil {
		return nil, err
	}

	page, err := b.NewPage()
	if err != nil {
		b.Close()
		return nil, err
	}

	return &Client{
		browser: b,
		page:    page,
		parser:  parser.NewMarketplaceParser(opts.BaseURL, opts.ImageScanLimit),
		opts:    opts,
		logger:  logger.With("component", "marketplace"),
	}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	if c.page == nil {
		return ErrNoPage
	}

	if err := browser.Goto(c.page, c.opts.BaseURL+"/", c.opts.NavigationTimeout); err != nil {
		return err
	}
	if err := browser.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return err
	}

	used, err := browser.FillFirst(c.page, EmailStrategies, email, c.opts.ActionTimeout)
	if err != nil {
		return fmt.Errorf("email field: %w", err)
	}
	c.logger.Debug("filled email field", "strategy", used)

	used, err = browser.FillFirst(c.page, PasswordStrategies, password, c.opts.ActionTimeout)
	if err != nil {
		return fmt.Errorf("password field: %w", err)
	}
	c.logger.Debug("filled password field", "strategy", used)

	used, err = browser.ClickFirst(c.page, SubmitStrategies, c.opts.ActionTimeout)
	if err != nil {
		return fmt.Errorf("login button: %w", err)
	}
	c.logger.Debug("submitted login form", "strategy", used)

	if err := browser.WaitForNetworkIdle(c.page, c.opts.NetworkIdle); err != nil {
		return err
	}
	if err := browser.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return err
	}

	c.logger.Info("login successful")
	return nil
}

func (c *Client) OpenSearch(ctx context.Context, niche string) error {
	if c.page == nil {
		return ErrNoPage
	}

	searchURL := SearchURL(c.opts.BaseURL, niche)
	c.logger.Info("navigating to marketplace search", "niche", niche, "url", searchURL)

	if err := browser.Goto(c.page, searchURL, c.opts.NavigationTimeout); err != nil {
		return err
	}
	if err := browser.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return err
	}
	if err := browser.WaitForLandmark(c.page, MainLandmark, c.opts.LandmarkTimeout); err != nil {
		return err
	}
	return browser.Sleep(ctx, c.opts.SettleDelay)
}

// DiscoverLinks scrolls the result grid and returns up to max item links. A
// scroll failure still returns whatever is already rendered.
func (c *Client) DiscoverLinks(ctx context.Context, max int) ([]string, error) {
	if c.page == nil {
		return nil, ErrNoPage
	}

	scrollErr := browser.ScrollCycles(ctx, c.page, c.opts.ScrollCycles, c.opts.ScrollDelay)
	if scrollErr != nil {
		c.logger.Warn("scrolling stopped early", "error", scrollErr)
	}

	html, err := c.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	links, err := c.parser.ExtractItemLinks(html, max)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		c.logger.Debug("found product", "url", link)
	}
	return links, scrollErr
}

func (c *Client) CaptureProduct(ctx context.Context, productURL string) (string, *models.BasicRecord, error) {
	if c.page == nil {
		return "", nil, ErrNoPage
	}

	if err := browser.Goto(c.page, productURL, c.opts.NavigationTimeout); err != nil {
		return "", nil, err
	}
	if err := browser.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return "", nil, err
	}
	if err := browser.WaitForLandmark(c.page, MainLandmark, c.opts.LandmarkTimeout); err != nil {
		return "", nil, err
	}
	if err := browser.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return "", nil, err
	}

	html, err := c.page.Content()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read product page: %w", err)
	}

	return html, c.basicRecord(productURL, html), nil
}

func (c *Client) basicRecord(productURL, html string) *models.BasicRecord {
	images, err := c.parser.ExtractImages(html)
	if err != nil {
		c.logger.Warn("failed to extract images", "url", productURL, "error", err)
		images = nil
	}
	return NewBasicRecord(productURL, html, images, c.opts.BasicHTMLLimit)
}

func (c *Client) Close() error {
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	c.page = nil
	return err
}

// SearchURL builds the marketplace search address for a niche.
func SearchURL(baseURL, niche string) string {
	return strings.TrimRight(baseURL, "/") + "/marketplace/search/?query=" + url.QueryEscape(niche)
}

func NewBasicRecord(productURL, html string, images []models.ProductImage, htmlLimit int) *models.BasicRecord {
	if images == nil {
		images = make([]models.ProductImage, 0)
	}
	return &models.BasicRecord{
		URL:         productURL,
		Images:      images,
		HTMLContent: stringutil.Truncate(html, htmlLimit),
	}
}
