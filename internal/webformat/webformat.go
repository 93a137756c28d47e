// Package webformat turns a saved collection run into HTML cards and a
// detail lookup table for a static webpage.
package webformat

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/storage"
)

const (
	DefaultInput  = "marketplace_products.json"
	DefaultOutput = "marketplace_products_web.json"

	unknownNiche = "unknown"
	notAvailable = "N/A"
)

type Metadata struct {
	Niche         string `json:"niche"`
	TotalProducts int    `json:"total_products"`
	Timestamp     string `json:"timestamp"`
}

// ProductDetail is the record the page shows in its detail modal.
type ProductDetail struct {
	Nombre      string   `json:"nombre"`
	Descripcion string   `json:"descripcion"`
	Screenshot  *string  `json:"screenshot"`
	FacturaPDF  *string  `json:"factura_pdf"`
	ProductURL  string   `json:"product_url"`
	Price       string   `json:"price"`
	Condition   string   `json:"condition"`
	Location    string   `json:"location"`
	SellerInfo  string   `json:"seller_info"`
	Images      []string `json:"images"`
}

type FragmentSet struct {
	Metadata       Metadata                 `json:"metadata"`
	HTMLCards      []string                 `json:"html_cards"`
	ProductDetails map[string]ProductDetail `json:"product_details"`

	firstID string
}

// FirstDetail returns the detail record of the first product, if any.
func (f *FragmentSet) FirstDetail() (string, ProductDetail, bool) {
	if f.firstID == "" {
		return "", ProductDetail{}, false
	}
	d, ok := f.ProductDetails[f.firstID]
	return f.firstID, d, ok
}

// LoadRun reads a run result. A missing or malformed file yields an empty run
// and a logged diagnostic.
func LoadRun(path string, logger *slog.Logger) *models.RunResult {
	if logger == nil {
		logger = slog.Default()
	}

	run, err := storage.NewRunStore(path).Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("input file not found, run collect first", "file", path)
		} else {
			logger.Error("invalid JSON in input file", "file", path, "error", err)
		}
		return &models.RunResult{Products: make([]*models.Product, 0)}
	}
	return run
}

func Detail(p *models.Product) ProductDetail {
	images := p.ImageURLs()

	var screenshot *string
	if len(images) > 0 {
		screenshot = models.StringPtr(images[0])
	}

	return ProductDetail{
		Nombre: firstOr(p.Title, defaultTitle),
		Descripcion: fmt.Sprintf("%s | Condición: %s | Ubicación: %s",
			models.Deref(p.Description, "No description"),
			models.Deref(p.Condition, notAvailable),
			models.Deref(p.Location, notAvailable),
		),
		Screenshot: screenshot,
		FacturaPDF: nil,
		ProductURL: firstOr(p.URL, defaultURL),
		Price:      firstOr(p.Price, notAvailable),
		Condition:  models.Deref(p.Condition, notAvailable),
		Location:   models.Deref(p.Location, notAvailable),
		SellerInfo: models.Deref(p.SellerInfo, notAvailable),
		Images:     images,
	}
}

// Build renders every product of run. Products sharing an identifier collapse
// into one detail entry, the later one wins.
func Build(run *models.RunResult) (*FragmentSet, error) {
	set := &FragmentSet{
		Metadata: Metadata{
			Niche:         firstOr(run.Niche, unknownNiche),
			TotalProducts: len(run.Products),
			Timestamp:     run.Timestamp,
		},
		HTMLCards:      make([]string, 0, len(run.Products)),
		ProductDetails: make(map[string]ProductDetail, len(run.Products)),
	}

	for _, p := range run.Products {
		card, err := RenderCard(p)
		if err != nil {
			return nil, err
		}
		set.HTMLCards = append(set.HTMLCards, card)

		id := p.ID()
		if set.firstID == "" {
			set.firstID = id
		}
		set.ProductDetails[id] = Detail(p)
	}

	return set, nil
}

// Convert reads the run at in, writes the fragment set to out and prints a
// sample to w. Unreadable input is treated as empty. Nothing is written when
// there are no products.
func Convert(in, out string, w io.Writer, logger *slog.Logger) (*FragmentSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "webformat")

	run := LoadRun(in, logger)
	if len(run.Products) == 0 {
		fmt.Fprintln(w, "No products found to convert.")
		return nil, nil
	}

	set, err := Build(run)
	if err != nil {
		return nil, err
	}

	data, err := storage.Encode(set)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fragment set: %w", err)
	}
	if err := storage.WriteAtomic(out, data); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", out, err)
	}

	logger.Info("fragment set written", "file", out, "products", len(run.Products))
	fmt.Fprintf(w, "✓ Converted %d products\n", len(run.Products))
	fmt.Fprintf(w, "✓ Output saved to: %s\n", out)

	PrintSample(w, set)
	return set, nil
}

func PrintSample(w io.Writer, set *FragmentSet) {
	rule := "============================================================"

	fmt.Fprintf(w, "\n%s\nSAMPLE HTML (add to index.html in the grid section):\n%s\n", rule, rule)
	if len(set.HTMLCards) > 0 {
		fmt.Fprintln(w, set.HTMLCards[0])
	}

	fmt.Fprintf(w, "\n%s\nSAMPLE DETAIL JSON (add to detalles_facturas object):\n%s\n", rule, rule)
	if id, detail, ok := set.FirstDetail(); ok {
		data, err := storage.Encode(map[string]ProductDetail{id: detail})
		if err == nil {
			w.Write(data)
		}
	}
}

func PrintInstructions(w io.Writer, input, output string) {
	fmt.Fprintf(w, `
INTEGRATION INSTRUCTIONS

Steps to integrate marketplace products with your webpage:

1. Run the collector
   marketplace collect

2. Convert to web format
   marketplace webformat --in %s --out %s

3. Integrate HTML cards
   Copy the html_cards entries from %s into the
   <section class="grid"> section of index.html.

4. Add product details
   Merge product_details into the "detalles_facturas" object in index.html.

5. Update JavaScript (optional)

   document.querySelectorAll('.view-product-detail-btn').forEach(btn => {
       btn.addEventListener('click', function() {
           const productId = this.dataset.productId;
           // show the product modal like the invoice detail modal
       });
   });

Example section for index.html:

<h2 class="section-title" style="margin-top: 40px;">🛒 Productos de Marketplace</h2>
<section class="grid">
    <!-- paste HTML cards here -->
</section>

Alternatively run "marketplace serve" and fetch /api/v1/products.
`, input, output, output)
}

func firstOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
