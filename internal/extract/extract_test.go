package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/marketplace-scraper/internal/config"
	"github.com/maltedev/marketplace-scraper/internal/models"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, markup string) (*models.Product, error) {
	args := m.Called(ctx, markup)
	if p := args.Get(0); p != nil {
		return p.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func basicRecord() *models.BasicRecord {
	return &models.BasicRecord{
		URL: "https://www.facebook.com/marketplace/item/123/",
		Images: []models.ProductImage{
			{URL: "http://fbcdn/x.jpg", AltText: models.StringPtr("shoe")},
		},
		HTMLContent: "<div role=\"main\">basic</div>",
	}
}

func TestParseProduct(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		reason  Reason
		check   func(t *testing.T, p *models.Product)
		wantErr bool
	}{
		{
			name: "full object",
			raw: `{"title":"Nike Air","price":"50 €","location":"Madrid","description":"Como nuevas",
				"condition":"Used - like new","images":[{"url":"https://scontent/1.jpg","alt_text":null}],
				"url":"https://www.facebook.com/marketplace/item/9/","seller_info":null,"html_content":null}`,
			check: func(t *testing.T, p *models.Product) {
				assert.Equal(t, "Nike Air", p.Title)
				assert.Equal(t, "50 €", p.Price)
				assert.Equal(t, "Madrid", *p.Location)
				assert.Nil(t, p.SellerInfo)
				require.Len(t, p.Images, 1)
				assert.Nil(t, p.Images[0].AltText)
				assert.Equal(t, "https://www.facebook.com/marketplace/item/9/", p.URL)
			},
		},
		{
			name: "fenced json with omitted url and images",
			raw:  "```json\n{\"title\":\"Adidas\",\"price\":\"30 €\"}\n```",
			check: func(t *testing.T, p *models.Product) {
				assert.Equal(t, "Adidas", p.Title)
				assert.Equal(t, "", p.URL)
				assert.NotNil(t, p.Images)
				assert.Empty(t, p.Images)
			},
		},
		{name: "empty", raw: "   ", wantErr: true, reason: ReasonEmpty},
		{name: "not json", raw: "The product is a shoe.", wantErr: true, reason: ReasonParse},
		{name: "missing title", raw: `{"price":"1 €"}`, wantErr: true, reason: ReasonSchema},
		{name: "null price", raw: `{"title":"x","price":null}`, wantErr: true, reason: ReasonSchema},
		{name: "image without url", raw: `{"title":"x","price":"1","images":[{"alt_text":"a"}]}`, wantErr: true, reason: ReasonSchema},
		{name: "wrong type", raw: `{"title":5,"price":"1"}`, wantErr: true, reason: ReasonParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProduct(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var exErr *Error
				require.True(t, errors.As(err, &exErr))
				assert.Equal(t, tt.reason, exErr.Reason)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestFallback(t *testing.T) {
	basic := basicRecord()
	p := Fallback(basic)

	assert.Equal(t, FallbackTitle, p.Title)
	assert.Equal(t, FallbackPrice, p.Price)
	assert.Equal(t, basic.URL, p.URL)
	assert.Equal(t, basic.Images, p.Images)
	require.NotNil(t, p.HTMLContent)
	assert.Equal(t, basic.HTMLContent, *p.HTMLContent)
	assert.Nil(t, p.Location)
	assert.Nil(t, p.Description)
	assert.Nil(t, p.Condition)
	assert.Nil(t, p.SellerInfo)

	p.Images[0].URL = "changed"
	assert.Equal(t, "http://fbcdn/x.jpg", basic.Images[0].URL)
}

func TestBackfillNeverOverwrites(t *testing.T) {
	basic := basicRecord()
	modelImages := []models.ProductImage{{URL: "https://scontent/model.jpg"}}

	p := &models.Product{
		Title:       "Nike",
		Price:       "50 €",
		URL:         "https://model/url",
		Images:      modelImages,
		HTMLContent: models.StringPtr("<model/>"),
	}
	Backfill(p, basic)

	assert.Equal(t, "https://model/url", p.URL)
	assert.Equal(t, modelImages, p.Images)
	assert.Equal(t, "<model/>", *p.HTMLContent)
}

func TestBackfillFillsGaps(t *testing.T) {
	basic := basicRecord()

	p := &models.Product{Title: "Nike", Price: "50 €", HTMLContent: models.StringPtr("")}
	Backfill(p, basic)

	assert.Equal(t, basic.URL, p.URL)
	assert.Equal(t, basic.Images, p.Images)
	assert.Equal(t, basic.HTMLContent, *p.HTMLContent)

	empty := &models.BasicRecord{URL: "u"}
	q := Backfill(&models.Product{Title: "t", Price: "p"}, empty)
	assert.NotNil(t, q.Images)
	assert.Empty(t, q.Images)
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()
	markup := strings.Repeat("a", 9000)
	snippet := markup[:8000]

	t.Run("success is backfilled", func(t *testing.T) {
		ex := new(MockExtractor)
		ex.On("Extract", ctx, snippet).Return(&models.Product{Title: "Nike", Price: "50 €"}, nil)

		p := Enrich(ctx, ex, markup, basicRecord(), 8000, nil)

		assert.Equal(t, "Nike", p.Title)
		assert.Equal(t, basicRecord().URL, p.URL)
		assert.Len(t, p.Images, 1)
		ex.AssertExpectations(t)
	})

	t.Run("request failure falls back", func(t *testing.T) {
		ex := new(MockExtractor)
		ex.On("Extract", ctx, snippet).Return(nil, newError(ReasonRequest, errors.New("quota")))

		p := Enrich(ctx, ex, markup, basicRecord(), 8000, nil)

		assert.Equal(t, FallbackTitle, p.Title)
		assert.Equal(t, FallbackPrice, p.Price)
		ex.AssertExpectations(t)
	})

	t.Run("nil product falls back", func(t *testing.T) {
		ex := new(MockExtractor)
		ex.On("Extract", ctx, mock.Anything).Return(nil, nil)

		p := Enrich(ctx, ex, "<p/>", basicRecord(), 8000, nil)
		assert.Equal(t, FallbackTitle, p.Title)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, config.LLMConfig{Provider: "claude"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = New(ctx, config.LLMConfig{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, config.LLMConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c, err := New(ctx, config.LLMConfig{Provider: "openai", OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

func chatServer(t *testing.T, content string, requests *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*requests = append(*requests, body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestOpenAIExtractor(t *testing.T) {
	var requests []map[string]any
	server := chatServer(t, `{"title":"Nike Air","price":"50 €"}`, &requests)
	defer server.Close()

	ex, err := NewOpenAIExtractor("sk-test", server.URL+"/", "gpt-4o-mini", 0.3)
	require.NoError(t, err)

	p, err := ex.Extract(context.Background(), "<div>Nike Air 50 €</div>")
	require.NoError(t, err)
	assert.Equal(t, "Nike Air", p.Title)
	assert.Equal(t, "50 €", p.Price)

	require.Len(t, requests, 1)
	assert.Equal(t, "gpt-4o-mini", requests[0]["model"])
	assert.InDelta(t, 0.3, requests[0]["temperature"], 1e-9)
	format, ok := requests[0]["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIExtractorPing(t *testing.T) {
	var requests []map[string]any
	server := chatServer(t, "test", &requests)
	defer server.Close()

	ex, err := NewOpenAIExtractor("sk-test", server.URL+"/", "gpt-4o-mini", 0.3)
	require.NoError(t, err)

	answer, err := ex.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", answer)
}

func TestOpenAIExtractorEmptyAnswer(t *testing.T) {
	var requests []map[string]any
	server := chatServer(t, "", &requests)
	defer server.Close()

	ex, err := NewOpenAIExtractor("sk-test", server.URL+"/", "gpt-4o-mini", 0.3)
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), "<p/>")
	var exErr *Error
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, ReasonEmpty, exErr.Reason)
}
