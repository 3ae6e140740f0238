package treeview

import (
	"sort"
	"strings"
)

// SortTasksByDepth orders task names for listing/rendering: shallower names
// (fewer ":"-separated segments) sort first, ties broken alphabetically.
// Does not mutate the input.
func SortTasksByDepth(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)

	sort.SliceStable(sorted, func(i, j int) bool {
		return compareByDepthThenName(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// countDepth returns the number of ":"-separated segments below the root,
// e.g. "test" is depth 0, "test:run" is depth 1.
func countDepth(name string) int {
	return strings.Count(name, ":")
}

// compareByDepthThenName orders by depth first, then lexically.
func compareByDepthThenName(a, b string) int {
	da, db := countDepth(a), countDepth(b)
	if da != db {
		if da < db {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
