package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/maltedev/marketplace-scraper/internal/models"
)

var ErrMissingAPIKey = errors.New("API key is not set")

type GeminiExtractor struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	pingModel *genai.GenerativeModel
	modelName string
}

func NewGeminiExtractor(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY: %w", ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt())},
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = productSchema()

	ping := client.GenerativeModel(modelName)
	ping.SetTemperature(temperature)

	return &GeminiExtractor{
		client:    client,
		model:     model,
		pingModel: ping,
		modelName: modelName,
	}, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, markup string) (*models.Product, error) {
	text, err := generateText(ctx, g.model, UserPrompt(markup))
	if err != nil {
		return nil, err
	}
	return ParseProduct(text)
}

func (g *GeminiExtractor) Ping(ctx context.Context) (string, error) {
	return generateText(ctx, g.pingModel, PingPrompt)
}

func (g *GeminiExtractor) Close() error {
	return g.client.Close()
}

func generateText(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", newError(ReasonRequest, fmt.Errorf("failed to generate content: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", newError(ReasonEmpty, ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", newError(ReasonEmpty, ErrEmptyResponse)
	}
	return sb.String(), nil
}

func productSchema() *genai.Schema {
	nullableString := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc, Nullable: true}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString, Description: "Product title/name"},
			"price":       {Type: genai.TypeString, Description: "Product price with currency"},
			"location":    nullableString("Seller location"),
			"description": nullableString("Product description"),
			"condition":   nullableString("Product condition (new, used, etc)"),
			"images": {
				Type:        genai.TypeArray,
				Description: "List of product images",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"url":      {Type: genai.TypeString, Description: "Image URL"},
						"alt_text": nullableString("Alternative text for image"),
					},
					Required: []string{"url"},
				},
			},
			"url":          {Type: genai.TypeString, Description: "Product URL"},
			"seller_info":  nullableString("Seller information"),
			"html_content": nullableString("Leave null"),
		},
		Required: []string{"title", "price"},
	}
}
