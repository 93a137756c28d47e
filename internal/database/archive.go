package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maltedev/marketplace-scraper/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS collection_runs (
	run_id         UUID PRIMARY KEY,
	niche          TEXT NOT NULL,
	total_products INTEGER NOT NULL,
	run_timestamp  TEXT NOT NULL,
	archived_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS collected_products (
	run_id      UUID NOT NULL REFERENCES collection_runs(run_id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	product_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	price       TEXT NOT NULL,
	location    TEXT,
	description TEXT,
	condition   TEXT,
	url         TEXT NOT NULL,
	seller_info TEXT,
	images      JSONB NOT NULL DEFAULT '[]'::jsonb,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_collected_products_product_id ON collected_products(product_id);
`

// Archive keeps a history of collection runs in Postgres. The JSON output
// file only ever holds the latest run.
type Archive struct {
	db     *DB
	logger *slog.Logger
}

func NewArchive(db *DB, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		db:     db,
		logger: logger.With("component", "archive"),
	}
}

func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}
	return nil
}

func (a *Archive) Name() string {
	return "postgres"
}

func (a *Archive) Archive(ctx context.Context, runID string, run *models.RunResult) error {
	return a.ArchiveRun(ctx, runID, run)
}

func (a *Archive) ArchiveRun(ctx context.Context, runID string, run *models.RunResult) error {
	start := time.Now()

	err := a.db.Transaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO collection_runs (run_id, niche, total_products, run_timestamp)
			VALUES ($1, $2, $3, $4)`,
			runID, run.Niche, run.TotalProducts, run.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for i, p := range run.Products {
			images, err := json.Marshal(p.Images)
			if err != nil {
				return fmt.Errorf("failed to encode images: %w", err)
			}
			batch.Queue(`
				INSERT INTO collected_products
					(run_id, position, product_id, title, price, location, description, condition, url, seller_info, images)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				runID, i, p.ID(), p.Title, p.Price, p.Location, p.Description, p.Condition, p.URL, p.SellerInfo, images,
			)
		}

		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert products: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.logger.Info("run archived",
		"run_id", runID,
		"products", len(run.Products),
		"duration", time.Since(start),
	)
	return nil
}
