// Package store implements the catalog source-of-truth provider on
// PostgreSQL. All query failures are wrapped with catalog.ErrDatabase so
// the cache layer can distinguish them from cache misses and propagate
// them to callers unchanged.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-cache/internal/catalog"
)

// PostgresProvider serves catalog reads from a pgx connection pool.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

var _ catalog.Provider = (*PostgresProvider)(nil)

// NewPostgresProvider connects to the database and verifies the connection.
func NewPostgresProvider(ctx context.Context, databaseURL string) (*PostgresProvider, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresProvider{pool: pool}, nil
}

// FetchCategoryAddons loads a category's active addon groups with their
// addons and the total addon count.
func (p *PostgresProvider) FetchCategoryAddons(ctx context.Context, categoryID int64) (*catalog.CategoryAddons, error) {
	groups, err := p.queryGroups(ctx,
		`SELECT id, category_id, name, COALESCE(description, ''), required, max_select, active
		 FROM addon_groups
		 WHERE category_id = $1 AND active
		 ORDER BY id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch category addons: %v", catalog.ErrDatabase, err)
	}

	total, err := p.attachAddons(ctx, groups)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch category addons: %v", catalog.ErrDatabase, err)
	}

	return &catalog.CategoryAddons{Groups: groups, TotalAddons: total}, nil
}

// FetchAddonGroups loads addon groups matching the optional filters.
func (p *PostgresProvider) FetchAddonGroups(ctx context.Context, filters *catalog.GroupFilters) ([]catalog.AddonGroup, error) {
	query := `SELECT id, category_id, name, COALESCE(description, ''), required, max_select, active
	          FROM addon_groups`
	var conditions []string
	var args []interface{}

	if filters != nil {
		if filters.CategoryID != nil {
			args = append(args, *filters.CategoryID)
			conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
		}
		if filters.Active != nil {
			args = append(args, *filters.Active)
			conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
		}
		if filters.Search != "" {
			args = append(args, "%"+filters.Search+"%")
			conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	groups, err := p.queryGroups(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch addon groups: %v", catalog.ErrDatabase, err)
	}

	if _, err := p.attachAddons(ctx, groups); err != nil {
		return nil, fmt.Errorf("%w: fetch addon groups: %v", catalog.ErrDatabase, err)
	}

	return groups, nil
}

func (p *PostgresProvider) queryGroups(ctx context.Context, query string, args ...interface{}) ([]catalog.AddonGroup, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []catalog.AddonGroup
	for rows.Next() {
		var g catalog.AddonGroup
		if err := rows.Scan(&g.ID, &g.CategoryID, &g.Name, &g.Description, &g.Required, &g.MaxSelect, &g.Active); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// attachAddons loads the active addons for every group in place and returns
// the total addon count.
func (p *PostgresProvider) attachAddons(ctx context.Context, groups []catalog.AddonGroup) (int, error) {
	if len(groups) == 0 {
		return 0, nil
	}

	groupIDs := make([]int64, len(groups))
	index := make(map[int64]*catalog.AddonGroup, len(groups))
	for i := range groups {
		groupIDs[i] = groups[i].ID
		index[groups[i].ID] = &groups[i]
	}

	rows, err := p.pool.Query(ctx,
		`SELECT id, group_id, name, price, active
		 FROM addons
		 WHERE group_id = ANY($1) AND active
		 ORDER BY group_id, id`, groupIDs)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var a catalog.Addon
		if err := rows.Scan(&a.ID, &a.GroupID, &a.Name, &a.Price, &a.Active); err != nil {
			return 0, err
		}
		if group, ok := index[a.GroupID]; ok {
			group.Addons = append(group.Addons, a)
			total++
		}
	}
	return total, rows.Err()
}

// Health verifies database connectivity.
func (p *PostgresProvider) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *PostgresProvider) Close() {
	p.pool.Close()
}
