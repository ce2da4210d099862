// Package catalog defines the catalog domain model and the cache-aside
// façade that serves it from the tiered cache, falling back to the source
// of truth on a miss.
package catalog

import "context"

// Addon is a single purchasable option within an addon group.
type Addon struct {
	ID      int64   `json:"id"`
	GroupID int64   `json:"group_id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Active  bool    `json:"active"`
}

// AddonGroup is a named collection of addons attached to a category.
type AddonGroup struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required"`
	MaxSelect   int     `json:"max_select"`
	Active      bool    `json:"active"`
	Addons      []Addon `json:"addons,omitempty"`
}

// CategoryAddons is the full addon view of one category.
type CategoryAddons struct {
	Groups      []AddonGroup `json:"groups"`
	TotalAddons int          `json:"total_addons"`
}

// GroupFilters narrows an addon group listing. The zero value means no
// filtering. Field order is part of the cache key encoding, so new filters
// are appended, never reordered.
type GroupFilters struct {
	CategoryID *int64 `json:"category_id,omitempty"`
	Active     *bool  `json:"active,omitempty"`
	Search     string `json:"search,omitempty"`
}

// Empty reports whether no filter is set.
func (f *GroupFilters) Empty() bool {
	return f == nil || (f.CategoryID == nil && f.Active == nil && f.Search == "")
}

// Provider is the source-of-truth lookup contract. Implementations return
// typed errors (wrapping ErrDatabase) so the façade can propagate genuine
// data-fetch failures unchanged.
type Provider interface {
	FetchCategoryAddons(ctx context.Context, categoryID int64) (*CategoryAddons, error)
	FetchAddonGroups(ctx context.Context, filters *GroupFilters) ([]AddonGroup, error)
}
