package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/marketplace-scraper/internal/models"
)

type EventType string

const (
	EventTypeProductCollected EventType = "PRODUCT_COLLECTED"
	EventTypeRunCompleted     EventType = "RUN_COMPLETED"

	DefaultStream = "stream:marketplace_products"
	source        = "marketplace-scraper"
)

// RedisClient is the subset of the redis client the publisher needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

type ProductCollectedPayload struct {
	RunID     string                `json:"run_id"`
	ProductID string                `json:"product_id"`
	Title     string                `json:"title"`
	Price     string                `json:"price"`
	Location  *string               `json:"location,omitempty"`
	Condition *string               `json:"condition,omitempty"`
	URL       string                `json:"url"`
	Images    []models.ProductImage `json:"images,omitempty"`
}

type RunCompletedPayload struct {
	RunID         string   `json:"run_id"`
	Niche         string   `json:"niche"`
	TotalProducts int      `json:"total_products"`
	Timestamp     string   `json:"timestamp"`
	ProductIDs    []string `json:"product_ids"`
}

// Publisher writes collection events to a Redis stream.
type Publisher struct {
	redis  RedisClient
	stream string
	now    func() time.Time
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		now:    time.Now,
		logger: logger.With("component", "event_publisher"),
	}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (p *Publisher) Name() string {
	return "redis"
}

func (p *Publisher) ProductCollected(ctx context.Context, runID string, product *models.Product) error {
	payload := &ProductCollectedPayload{
		RunID:     runID,
		ProductID: product.ID(),
		Title:     product.Title,
		Price:     product.Price,
		Location:  product.Location,
		Condition: product.Condition,
		URL:       product.URL,
		Images:    product.Images,
	}
	return p.publish(ctx, EventTypeProductCollected, payload.ProductID, payload)
}

func (p *Publisher) Archive(ctx context.Context, runID string, run *models.RunResult) error {
	ids := make([]string, 0, len(run.Products))
	for _, product := range run.Products {
		ids = append(ids, product.ID())
	}

	payload := &RunCompletedPayload{
		RunID:         runID,
		Niche:         run.Niche,
		TotalProducts: run.TotalProducts,
		Timestamp:     run.Timestamp,
		ProductIDs:    ids,
	}
	return p.publish(ctx, EventTypeRunCompleted, runID, payload)
}

func (p *Publisher) publish(ctx context.Context, eventType EventType, aggregateID string, payload any) error {
	eventID := uuid.New().String()
	now := p.now()

	streamData := map[string]interface{}{
		"id":           eventID,
		"type":         eventType,
		"aggregate_id": aggregateID,
		"timestamp":    now.Format(time.RFC3339),
		"payload":      payload,
		"metadata": map[string]interface{}{
			"source": source,
		},
	}

	dataJSON, err := json.Marshal(streamData)
	if err != nil {
		return fmt.Errorf("failed to marshal stream data: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":         string(dataJSON),
			"type":         string(eventType),
			"timestamp":    fmt.Sprintf("%d", now.UnixNano()),
			"event_id":     eventID,
			"aggregate_id": aggregateID,
		},
	}

	if _, err := p.redis.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("event published",
		"type", eventType,
		"event_id", eventID,
		"aggregate_id", aggregateID,
		"stream", p.stream,
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}
