package timezones

import (
	"sort"
	"strings"
)

// Search filters zones case-insensitively. Prefix matches sort before other
// matches; the empty query follows opts.EmptySearchMode.
func Search(zones []string, query string, limit int, opts Options) []string {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode == EmptySearchTop {
			if len(zones) <= limit {
				return append([]string{}, zones...)
			}
			return append([]string{}, zones[:limit]...)
		}
		return nil
	}

	q := strings.ToLower(strings.ReplaceAll(query, " ", "_"))
	matches := make([]matchedZone, 0, 32)
	for _, zone := range zones {
		lowerZone := strings.ToLower(zone)
		if !strings.Contains(lowerZone, q) {
			continue
		}
		matches = append(matches, matchedZone{
			name:     zone,
			isPrefix: strings.HasPrefix(lowerZone, q),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.name)
	}
	return out
}

// SearchItems wraps Search results as autocomplete items keyed by ValueKey
// and LabelKey. The label drops underscores so "New_York" reads "New York".
func SearchItems(zones []string, query string, limit int, opts Options) []any {
	results := Search(zones, query, limit, opts)
	if len(results) == 0 {
		return nil
	}

	out := make([]any, 0, len(results))
	for _, zone := range results {
		out = append(out, Item(zone))
	}
	return out
}

// Item builds the autocomplete item for zone.
func Item(zone string) map[string]any {
	return map[string]any{ValueKey: zone, LabelKey: strings.ReplaceAll(zone, "_", " ")}
}

type matchedZone struct {
	name     string
	isPrefix bool
}
