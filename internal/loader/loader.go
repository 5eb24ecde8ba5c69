// Package loader bulk-loads the catalog from a Postgres products table at
// startup. The table is the caller-side serialized form of the catalog; the
// in-memory indexes are rebuilt from it on every boot.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/megastore/catalog-search/internal/catalog"
	apperrors "github.com/megastore/catalog-search/pkg/errors"
	"github.com/megastore/catalog-search/pkg/postgres"
	"github.com/megastore/catalog-search/pkg/resilience"
)

type row struct {
	name        string
	brand       string
	category    string
	description string
}

// Loader reads product rows from Postgres and feeds them to the catalog.
type Loader struct {
	db     *postgres.Client
	cat    *catalog.Catalog
	table  string
	logger *slog.Logger
}

// New creates a Loader reading from the given table.
func New(db *postgres.Client, cat *catalog.Catalog, table string) *Loader {
	return &Loader{
		db:     db,
		cat:    cat,
		table:  table,
		logger: slog.Default().With("component", "bulk-loader"),
	}
}

// Load fetches all product rows in id order and adds them to the catalog,
// returning the number loaded. The fetch is retried with backoff; rows are
// buffered before any Add so a retried query never double-inserts. Rows
// failing validation are logged and skipped.
func (l *Loader) Load(ctx context.Context) (int, error) {
	start := time.Now()

	var rows []row
	err := resilience.Retry(ctx, "catalog-bulk-load", resilience.RetryConfig{}, func() error {
		fetched, err := l.fetch(ctx)
		if err != nil {
			return err
		}
		rows = fetched
		return nil
	})
	if err != nil {
		return 0, err
	}

	loaded := 0
	skipped := 0
	for _, r := range rows {
		if _, err := l.cat.Add(r.name, r.brand, r.category, r.description); err != nil {
			if errors.Is(err, apperrors.ErrValidation) {
				l.logger.Warn("skipping invalid product row", "name", r.name, "error", err)
				skipped++
				continue
			}
			return loaded, fmt.Errorf("adding product %q: %w", r.name, err)
		}
		loaded++
	}

	l.logger.Info("bulk load complete",
		"table", l.table,
		"loaded", loaded,
		"skipped", skipped,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return loaded, nil
}

func (l *Loader) fetch(ctx context.Context) ([]row, error) {
	query := fmt.Sprintf(
		"SELECT name, COALESCE(brand, ''), COALESCE(category, ''), COALESCE(description, '') FROM %s ORDER BY id",
		l.table,
	)
	result, err := l.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", l.table, err)
	}
	defer result.Close()

	var rows []row
	for result.Next() {
		var r row
		if err := result.Scan(&r.name, &r.brand, &r.category, &r.description); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		rows = append(rows, r)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}
	return rows, nil
}
