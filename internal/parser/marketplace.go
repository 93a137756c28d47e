package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/marketplace-scraper/internal/models"
)

const (
	ItemPathPattern  = "/marketplace/item/"
	DefaultScanLimit = 5
)

var DefaultImageHosts = []string{"scontent", "fbcdn"}

var _ Parser = (*MarketplaceParser)(nil)

type MarketplaceParser struct {
	baseURL    string
	pattern    string
	scanLimit  int
	imageHosts []string
}

func NewMarketplaceParser(baseURL string, scanLimit int) *MarketplaceParser {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &MarketplaceParser{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pattern:    ItemPathPattern,
		scanLimit:  scanLimit,
		imageHosts: DefaultImageHosts,
	}
}

func (p *MarketplaceParser) ExtractItemLinks(html string, max int) ([]string, error) {
	return ExtractItemLinks(html, p.baseURL, p.pattern, max)
}

func (p *MarketplaceParser) ExtractImages(html string) ([]models.ProductImage, error) {
	return ExtractImages(html, p.scanLimit, p.imageHosts)
}

// ExtractItemLinks returns the absolute hrefs of anchors containing pattern,
// in document order, without duplicates and at most max of them.
func ExtractItemLinks(html, baseURL, pattern string, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		link := NormalizeHref(href, baseURL)
		if !strings.Contains(link, pattern) {
			return
		}
		hrefs = append(hrefs, link)
	})

	links := DedupeLinks(hrefs)
	if max >= 0 && len(links) > max {
		links = links[:max]
	}
	return links, nil
}

// NormalizeHref resolves href against baseURL. Hrefs that do not parse are
// returned trimmed but otherwise untouched.
func NormalizeHref(href, baseURL string) string {
	href = strings.TrimSpace(href)

	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// DedupeLinks drops exact repeats and keeps first-seen order.
func DedupeLinks(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

// ExtractImages looks at the first scanLimit img elements and keeps those whose
// src mentions one of hostMarkers.
func ExtractImages(html string, scanLimit int, hostMarkers []string) ([]models.ProductImage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	images := make([]models.ProductImage, 0, scanLimit)
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= scanLimit {
			return false
		}
		src, _ := s.Attr("src")
		if src == "" || !containsAny(src, hostMarkers) {
			return true
		}
		alt, _ := s.Attr("alt")
		images = append(images, models.ProductImage{
			URL:     src,
			AltText: models.StringPtr(alt),
		})
		return true
	})

	return images, nil
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
