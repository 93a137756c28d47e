package webformat

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/pkg/stringutil"
)

const (
	DescriptionLimit = 150
	Ellipsis         = "..."

	defaultTitle       = "Product"
	defaultPrice       = "Price not available"
	defaultDescription = "No description available"
	defaultURL         = "#"
	defaultCondition   = "Usado"
)

var cardTemplate = template.Must(template.New("card").Parse(`
<article class="card marketplace-product" data-id="{{.ID}}" data-name="{{.Title}}">
    <div class="row">
        <h3>{{.Title}}</h3>
        <span class="space"></span>
        <span class="pill {{.StatusClass}}">{{.StatusText}}</span>
    </div>
    <p class="amount">{{.Price}}</p>
    <p class="meta">{{.Description}}</p>
    {{- if .Location}}
    <p class="meta" style="font-size: 0.9em; color: var(--text-muted);">📍 {{.Location}}</p>
    {{- end}}

    <div class="row" style="margin-top:16px;">
        <button class="btn btn-primary" onclick="window.open('{{.URL}}', '_blank')">
            <svg class="icon" width="16" height="16"><use href="#icon-eye"></use></svg>
            <span>Ver en Marketplace</span>
        </button>
        <button class="btn btn-secondary view-product-detail-btn" data-product-id="{{.ID}}">
            <svg class="icon" width="16" height="16"><use href="#icon-eye"></use></svg>
            <span>Ver Detalle</span>
        </button>
    </div>
</article>
`))

type cardView struct {
	ID          string
	Title       string
	Price       string
	Description string
	Location    string
	StatusClass string
	StatusText  string
	URL         string
}

// RenderCard renders the grid card for one product.
func RenderCard(p *models.Product) (string, error) {
	condition := models.Deref(p.Condition, "")

	view := cardView{
		ID:          p.ID(),
		Title:       stringutil.FirstNonEmpty(p.Title, defaultTitle),
		Price:       stringutil.FirstNonEmpty(p.Price, defaultPrice),
		Description: TruncateDescription(models.Deref(p.Description, defaultDescription)),
		Location:    models.Deref(p.Location, ""),
		StatusClass: StatusClass(condition),
		StatusText:  stringutil.FirstNonEmpty(condition, defaultCondition),
		URL:         stringutil.FirstNonEmpty(p.URL, defaultURL),
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render card for %s: %w", view.ID, err)
	}
	return buf.String(), nil
}

// TruncateDescription keeps the first 150 characters and adds an ellipsis
// only when text was removed.
func TruncateDescription(desc string) string {
	return stringutil.TruncateWithEllipsis(desc, DescriptionLimit, Ellipsis)
}

// StatusClass is "ok" for new items and "warn" for everything else.
func StatusClass(condition string) string {
	if strings.Contains(strings.ToLower(condition), "new") {
		return "ok"
	}
	return "warn"
}
