package main

import (
	"sort"
	"strings"

	"github.com/titpetric/atkins-core/dig/config"
)

// suggestTasks finds task names in doc whose name contains pattern
// (case-insensitive substring match), for the "unknown task, did you mean"
// error message built by runTask in run.go. Adapted from the teacher's fuzzy_match.go
// findFuzzyMatches, retargeted from skill:job pipeline resolution to a
// single document's flat task-name table.
func suggestTasks(doc *config.Document, pattern string) []string {
	lowerPattern := strings.ToLower(pattern)

	var matches []string
	for name := range doc.Tasks {
		if strings.Contains(strings.ToLower(name), lowerPattern) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}
