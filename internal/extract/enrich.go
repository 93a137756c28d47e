package extract

import (
	"context"
	"log/slog"

	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/pkg/stringutil"
)

const (
	FallbackTitle = "Product information extracted"
	FallbackPrice = "See listing"
)

// Fallback builds the product used when the model cannot help.
func Fallback(basic *models.BasicRecord) *models.Product {
	return &models.Product{
		Title:       FallbackTitle,
		Price:       FallbackPrice,
		URL:         basic.URL,
		Images:      models.CloneImages(basic.Images),
		HTMLContent: models.StringPtr(basic.HTMLContent),
	}
}

// Backfill copies images, url and html_content from basic only where the
// model left them empty.
func Backfill(p *models.Product, basic *models.BasicRecord) *models.Product {
	if len(p.Images) == 0 && len(basic.Images) > 0 {
		p.Images = models.CloneImages(basic.Images)
	}
	if p.URL == "" {
		p.URL = basic.URL
	}
	if p.HTMLContent == nil || *p.HTMLContent == "" {
		p.HTMLContent = models.StringPtr(basic.HTMLContent)
	}
	p.Normalize()
	return p
}

// Enrich asks ex for a structured product and never fails: any extraction
// error yields Fallback(basic).
func Enrich(ctx context.Context, ex Extractor, markup string, basic *models.BasicRecord, limit int, logger *slog.Logger) *models.Product {
	if logger == nil {
		logger = slog.Default()
	}

	product, err := ex.Extract(ctx, stringutil.Truncate(markup, limit))
	if err != nil {
		logger.Warn("model extraction failed, using basic info", "url", basic.URL, "error", err)
		return Fallback(basic)
	}
	if product == nil {
		logger.Warn("model returned no product, using basic info", "url", basic.URL)
		return Fallback(basic)
	}

	return Backfill(product, basic)
}
