package models

import (
	"net/url"
	"strings"
	"time"
)

// TimestampLayout is the format of RunResult.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// UnknownProductID is used when a product URL has no usable path segment.
const UnknownProductID = "unknown"

type ProductImage struct {
	URL     string  `json:"url"`
	AltText *string `json:"alt_text"`
}

// Product is one structured marketplace listing. Optional fields are pointers
// so that absent values are written as null.
type Product struct {
	Title       string         `json:"title"`
	Price       string         `json:"price"`
	Location    *string        `json:"location"`
	Description *string        `json:"description"`
	Condition   *string        `json:"condition"`
	Images      []ProductImage `json:"images"`
	URL         string         `json:"url"`
	SellerInfo  *string        `json:"seller_info"`
	HTMLContent *string        `json:"html_content"`
}

// BasicRecord is the data captured for a product without any model help.
type BasicRecord struct {
	URL         string         `json:"url"`
	Images      []ProductImage `json:"images"`
	HTMLContent string         `json:"html_content"`
}

// RunResult is the unit persisted by one collection run.
type RunResult struct {
	Niche         string     `json:"niche"`
	TotalProducts int        `json:"total_products"`
	Timestamp     string     `json:"timestamp"`
	Products      []*Product `json:"products"`
}

func NewRunResult(niche string, products []*Product, now time.Time) *RunResult {
	if products == nil {
		products = make([]*Product, 0)
	}
	for _, p := range products {
		p.Normalize()
	}
	return &RunResult{
		Niche:         niche,
		TotalProducts: len(products),
		Timestamp:     now.Format(TimestampLayout),
		Products:      products,
	}
}

// Normalize makes sure Images is never encoded as null.
func (p *Product) Normalize() {
	if p.Images == nil {
		p.Images = make([]ProductImage, 0)
	}
}

// ID returns the trailing path segment of the product URL, or
// UnknownProductID when there is none. Distinct URLs can share an ID.
func (p *Product) ID() string {
	return ProductIDFromURL(p.URL)
}

func ProductIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownProductID
	}

	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}

	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	if path == "" {
		return UnknownProductID
	}
	return path
}

// ImageURLs returns the image URLs in order.
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

func StringPtr(s string) *string {
	return &s
}

// Deref returns *s, or def when s is nil or empty.
func Deref(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// CloneImages copies images so a product never shares a backing array with a
// basic record.
func CloneImages(images []ProductImage) []ProductImage {
	out := make([]ProductImage, len(images))
	copy(out, images)
	return out
}
