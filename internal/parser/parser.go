package parser

import (
	"github.com/maltedev/marketplace-scraper/internal/models"
)

// Parser pulls the pieces the collector needs out of rendered marketplace
// markup.
type Parser interface {
	ExtractItemLinks(html string, max int) ([]string, error)
	ExtractImages(html string) ([]models.ProductImage, error)
}
