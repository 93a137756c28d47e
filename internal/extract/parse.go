package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/maltedev/marketplace-scraper/internal/models"
)

var (
	ErrEmptyResponse = errors.New("model returned no content")
	ErrMissingField  = errors.New("required field missing")
)

type rawImage struct {
	URL     *string `json:"url"`
	AltText *string `json:"alt_text"`
}

type rawProduct struct {
	Title       *string    `json:"title"`
	Price       *string    `json:"price"`
	Location    *string    `json:"location"`
	Description *string    `json:"description"`
	Condition   *string    `json:"condition"`
	Images      []rawImage `json:"images"`
	URL         *string    `json:"url"`
	SellerInfo  *string    `json:"seller_info"`
	HTMLContent *string    `json:"html_content"`
}

// ParseProduct decodes a model answer. Markdown code fences around the JSON
// are tolerated. Title and price are mandatory, every image needs a url.
func ParseProduct(raw string) (*models.Product, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, newError(ReasonEmpty, ErrEmptyResponse)
	}

	var rp rawProduct
	if err := json.Unmarshal([]byte(body), &rp); err != nil {
		return nil, newError(ReasonParse, err)
	}

	if rp.Title == nil {
		return nil, newError(ReasonSchema, fmt.Errorf("%w: title", ErrMissingField))
	}
	if rp.Price == nil {
		return nil, newError(ReasonSchema, fmt.Errorf("%w: price", ErrMissingField))
	}

	p := &models.Product{
		Title:       *rp.Title,
		Price:       *rp.Price,
		Location:    rp.Location,
		Description: rp.Description,
		Condition:   rp.Condition,
		SellerInfo:  rp.SellerInfo,
		HTMLContent: rp.HTMLContent,
		Images:      make([]models.ProductImage, 0, len(rp.Images)),
	}
	if rp.URL != nil {
		p.URL = *rp.URL
	}

	for i, img := range rp.Images {
		if img.URL == nil {
			return nil, newError(ReasonSchema, fmt.Errorf("%w: images[%d].url", ErrMissingField, i))
		}
		p.Images = append(p.Images, models.ProductImage{URL: *img.URL, AltText: img.AltText})
	}

	return p, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
