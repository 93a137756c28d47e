// Package extract turns raw listing markup into structured products with the
// help of a language model.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/models"
)

const (
	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

type Reason string

const (
	ReasonRequest Reason = "request"
	ReasonEmpty   Reason = "empty_response"
	ReasonParse   Reason = "parse"
	ReasonSchema  Reason = "schema"
)

var ErrUnknownProvider = errors.New("unknown LLM provider")

type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(reason Reason, err error) *Error {
	return &Error{Reason: reason, Err: err}
}

// Extractor converts a markup snippet into a product.
type Extractor interface {
	Extract(ctx context.Context, markup string) (*models.Product, error)
}

// Pinger performs a trivial round trip against the model service.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
}

type Client interface {
	Extractor
	Pinger
	Close() error
}

// New builds the client for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		model := cfg.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		ex, err := NewGeminiExtractor(ctx, cfg.GoogleAPIKey, model, float32(cfg.Temperature))
		if err != nil {
			return nil, err
		}
		return ex, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		ex, err := NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIBase, model, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		return ex, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
