package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	intconfig "storefront/internal/config"
	intdb "storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

const itemsTable = "bookable_items"

// ItemRepository reads the catalog's bookable items from MySQL. Prices and
// special prices are stored as JSON documents.
type ItemRepository struct {
	DB *sql.DB
}

func (r ItemRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// EnsureTable creates bookable_items when it does not exist yet, and adds
// special_prices to tables created before overrides existed.
func (r ItemRepository) EnsureTable(ctx context.Context) error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db not available")
	}
	if intdb.HasTable(ctx, db, itemsTable) {
		if intdb.HasColumn(ctx, db, itemsTable, "special_prices") {
			return nil
		}
		_, err := db.ExecContext(ctx, "ALTER TABLE "+itemsTable+" ADD COLUMN special_prices JSON NULL AFTER prices")
		return err
	}
	ddl := `
CREATE TABLE IF NOT EXISTS bookable_items (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	prices JSON NULL,
	special_prices JSON NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

// GetByID loads one item.
func (r ItemRepository) GetByID(ctx context.Context, id string) (models.BookableItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.BookableItem{}, domain.ValidationError{Field: "id", Msg: "item id is required"}
	}
	db := r.db()
	if db == nil {
		return models.BookableItem{}, domain.InternalError{Msg: "db not available"}
	}

	var (
		item            models.BookableItem
		prices, special string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id,
		       COALESCE(name,''),
		       COALESCE(prices,'{}'),
		       COALESCE(special_prices,'{}')
		FROM `+itemsTable+`
		WHERE id=? LIMIT 1`, id).Scan(&item.ID, &item.Name, &prices, &special)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BookableItem{}, domain.NotFoundError{Resource: "item", Err: err}
	}
	if err != nil {
		return models.BookableItem{}, domain.InternalError{Msg: "failed to load item", Err: err}
	}

	if item.Prices, err = decodePrices(prices); err != nil {
		return models.BookableItem{}, domain.InternalError{Msg: "corrupt prices", Err: err}
	}
	if item.SpecialPrices, err = decodeSpecialPrices(special); err != nil {
		return models.BookableItem{}, domain.InternalError{Msg: "corrupt special prices", Err: err}
	}
	return item, nil
}

// UpdateSpecialPrices applies fn to the item's override table inside a
// transaction holding the row lock.
func (r ItemRepository) UpdateSpecialPrices(ctx context.Context, id string, fn func(map[string]models.PriceFields) error) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ValidationError{Field: "id", Msg: "item id is required"}
	}
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "db not available"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Msg: "failed to begin transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(special_prices,'{}') FROM `+itemsTable+` WHERE id=? FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: "item", Err: err}
	}
	if err != nil {
		return domain.InternalError{Msg: "failed to lock item", Err: err}
	}

	special, err := decodeSpecialPrices(raw)
	if err != nil {
		return domain.InternalError{Msg: "corrupt special prices", Err: err}
	}
	if err := fn(special); err != nil {
		return err
	}

	out, err := json.Marshal(special)
	if err != nil {
		return domain.InternalError{Msg: "failed to encode special prices", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE `+itemsTable+` SET special_prices=? WHERE id=?`, string(out), id); err != nil {
		return domain.InternalError{Msg: "failed to update special prices", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Msg: "failed to commit", Err: err}
	}
	return nil
}

func decodePrices(raw string) (models.PriceFields, error) {
	out := models.PriceFields{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeSpecialPrices(raw string) (map[string]models.PriceFields, error) {
	out := map[string]models.PriceFields{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	for k, v := range out {
		if v == nil {
			out[k] = models.PriceFields{}
		}
	}
	return out, nil
}
