package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/marketplace-scraper/internal/extract"
	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/ratelimit"
)

const DefaultPromptLimit = 8000

// Session is a logged-in view of the marketplace. One session serves one run.
type Session interface {
	Login(ctx context.Context, email, password string) error
	OpenSearch(ctx context.Context, niche string) error
	DiscoverLinks(ctx context.Context, max int) ([]string, error)
	CaptureProduct(ctx context.Context, url string) (string, *models.BasicRecord, error)
	Close() error
}

type SessionFactory func(ctx context.Context) (Session, error)

type Store interface {
	Save(run *models.RunResult) error
}

// Sink receives every persisted run. Sink failures never fail the run.
type Sink interface {
	Name() string
	Archive(ctx context.Context, runID string, run *models.RunResult) error
}

// ProductSink is implemented by sinks that also want products as they are
// collected.
type ProductSink interface {
	ProductCollected(ctx context.Context, runID string, p *models.Product) error
}

type Request struct {
	Niche       string
	MaxProducts int
	Email       string
	Password    string
}

type Pipeline struct {
	open        SessionFactory
	extractor   extract.Extractor
	store       Store
	limiter     ratelimit.RateLimiter
	sinks       []Sink
	promptLimit int
	llmTimeout  time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Pipeline)

func WithSinks(sinks ...Sink) Option {
	return func(p *Pipeline) {
		p.sinks = append(p.sinks, sinks...)
	}
}

func WithLimiter(l ratelimit.RateLimiter) Option {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

func WithPromptLimit(n int) Option {
	return func(p *Pipeline) {
		p.promptLimit = n
	}
}

// WithExtractTimeout bounds each model call. Zero leaves only the run's
// context in charge.
func WithExtractTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.llmTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func New(open SessionFactory, ex extract.Extractor, store Store, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		open:        open,
		extractor:   ex,
		store:       store,
		limiter:     ratelimit.NewDelay(3 * time.Second),
		promptLimit: DefaultPromptLimit,
		now:         time.Now,
		logger:      logger.With("component", "collector"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one collection run. Fatal failures return a *StepError and
// leave the output file untouched. Otherwise the run is persisted even when
// no product survived.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.RunResult, error) {
	runID := uuid.New().String()
	log := p.logger.With("run_id", runID, "niche", req.Niche)
	log.Info("starting collection run", "max_products", req.MaxProducts)

	products, err := p.collect(ctx, req, runID, log)
	if err != nil {
		log.Error("collection run failed", "error", err)
		return nil, err
	}

	run := models.NewRunResult(req.Niche, products, p.now())
	if err := p.store.Save(run); err != nil {
		log.Error("failed to save run", "error", err)
		return run, fatal(StepPersist, err)
	}
	log.Info("run saved", "total_products", run.TotalProducts)

	for _, sink := range p.sinks {
		if err := sink.Archive(ctx, runID, run); err != nil {
			log.Warn("sink failed", "sink", sink.Name(), "error", degraded(StepSink, "", err))
		}
	}

	return run, nil
}

func (p *Pipeline) collect(ctx context.Context, req Request, runID string, log *slog.Logger) ([]*models.Product, error) {
	session, err := p.open(ctx)
	if err != nil {
		return nil, fatal(StepLaunch, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("failed to close browser session", "error", cerr)
		}
	}()

	if err := session.Login(ctx, req.Email, req.Password); err != nil {
		return nil, fatal(StepLogin, err)
	}

	if err := session.OpenSearch(ctx, req.Niche); err != nil {
		return nil, fatal(StepNavigate, err)
	}

	links, err := session.DiscoverLinks(ctx, req.MaxProducts)
	if err != nil {
		log.Warn("link discovery degraded", "error", degraded(StepDiscover, "", err), "found", len(links))
	}
	if len(links) > req.MaxProducts {
		links = links[:req.MaxProducts]
	}
	log.Info("product links found", "count", len(links))

	products := make([]*models.Product, 0, len(links))
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, fatal(StepCapture, err)
		}
		if i > 0 {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, fatal(StepCapture, err)
			}
		}

		itemLog := log.With("item", i+1, "of", len(links), "url", link)

		markup, basic, err := session.CaptureProduct(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fatal(StepCapture, ctx.Err())
			}
			itemLog.Warn("skipping product", "error", degraded(StepCapture, link, err))
			continue
		}
		if basic == nil {
			itemLog.Warn("skipping product without captured data")
			continue
		}

		product := p.enrich(ctx, markup, basic, itemLog)
		products = append(products, product)
		itemLog.Info("product scraped", "title", product.Title)

		p.notifyProduct(ctx, runID, product, itemLog)
	}

	return products, nil
}

func (p *Pipeline) enrich(ctx context.Context, markup string, basic *models.BasicRecord, log *slog.Logger) *models.Product {
	if p.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.llmTimeout)
		defer cancel()
	}
	return extract.Enrich(ctx, p.extractor, markup, basic, p.promptLimit, log)
}

func (p *Pipeline) notifyProduct(ctx context.Context, runID string, product *models.Product, log *slog.Logger) {
	for _, sink := range p.sinks {
		ps, ok := sink.(ProductSink)
		if !ok {
			continue
		}
		if err := ps.ProductCollected(ctx, runID, product); err != nil {
			log.Warn("sink failed", "sink", sink.Name(), "error", degraded(StepSink, product.URL, err))
		}
	}
}
