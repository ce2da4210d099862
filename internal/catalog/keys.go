package catalog

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Key namespaces. A namespace fixes the TTL family of a key and the scope
// of pattern invalidation.
const (
	NamespaceCategory    = "category"
	NamespaceAddonGroups = "addon-groups"
	NamespaceAddons      = "addons"
)

// CategoryAddonsKey derives the cache key for one category's addon view,
// e.g. "category:42:addons".
func CategoryAddonsKey(categoryID int64) string {
	return fmt.Sprintf("%s:%d:%s", NamespaceCategory, categoryID, NamespaceAddons)
}

// AddonGroupsKey derives the cache key for an addon group listing. The
// unfiltered listing gets a fixed key; filtered listings embed a stable
// encoding of the filters so distinct filter combinations never collide and
// the key alphabet stays safe for the remote keyspace.
func AddonGroupsKey(filters *GroupFilters) string {
	if filters.Empty() {
		return NamespaceAddonGroups + ":all"
	}
	return NamespaceAddonGroups + ":f:" + encodeFilters(filters)
}

// CategoryPattern matches every key derived from one category.
func CategoryPattern(categoryID int64) string {
	return fmt.Sprintf("%s:%d:*", NamespaceCategory, categoryID)
}

// AddonGroupsPattern matches every addon group listing key.
func AddonGroupsPattern() string {
	return NamespaceAddonGroups + ":*"
}

// encodeFilters produces a deterministic, URL- and redis-safe encoding of
// the filter set. Struct marshaling emits fields in declaration order, so
// identical filters always encode identically.
func encodeFilters(filters *GroupFilters) string {
	data, err := json.Marshal(filters)
	if err != nil {
		// GroupFilters contains only marshalable fields; this cannot
		// happen with the current shape.
		return "invalid"
	}
	return base64.RawURLEncoding.EncodeToString(data)
}
