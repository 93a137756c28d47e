package extract

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/maltedev/marketplace-scraper/internal/models"
)

type OpenAIExtractor struct {
	api         openai.Client
	model       string
	temperature float64
}

func NewOpenAIExtractor(apiKey, baseURL, model string, temperature float64) (*OpenAIExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY: %w", ErrMissingAPIKey)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIExtractor{
		api:         openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}, nil
}

func (o *OpenAIExtractor) Extract(ctx context.Context, markup string) (*models.Product, error) {
	req := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt()),
			openai.UserMessage(UserPrompt(markup)),
		},
		Temperature: openai.Float(o.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	text, err := o.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return ParseProduct(text)
}

func (o *OpenAIExtractor) Ping(ctx context.Context) (string, error) {
	return o.complete(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(PingPrompt),
		},
		Temperature: openai.Float(o.temperature),
	})
}

func (o *OpenAIExtractor) Close() error {
	return nil
}

func (o *OpenAIExtractor) complete(ctx context.Context, req openai.ChatCompletionNewParams) (string, error) {
	resp, err := o.api.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", newError(ReasonRequest, fmt.Errorf("chat completion failed: %w", err))
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", newError(ReasonEmpty, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
