package channel

import (
	"regexp"
	"strings"

	"microsubd/internal/domain/entity"
)

// PassesTypeFilter rejects item if its interaction kind (spec.md §4.8's
// precedence order, via entity.Item.InteractionType) is in excludeTypes.
func PassesTypeFilter(item *entity.Item, excludeTypes []string) bool {
	if len(excludeTypes) == 0 {
		return true
	}
	kind := item.InteractionType()
	for _, t := range excludeTypes {
		if t == kind {
			return false
		}
	}
	return true
}

// PassesRegexFilter rejects item if excludeRegex matches (case-insensitive)
// against its joined name + summary + content text + content HTML. An empty
// or invalid pattern fails open (spec.md §4.4): the item always passes.
func PassesRegexFilter(item *entity.Item, excludeRegex string) bool {
	if excludeRegex == "" {
		return true
	}
	re, err := regexp.Compile("(?i)" + excludeRegex)
	if err != nil {
		return true
	}
	haystack := strings.Join([]string{item.Name, item.Summary, item.Content.Text, item.Content.HTML}, "\n")
	return !re.MatchString(haystack)
}

// Passes applies both filter predicates in spec.md §4.4's Processor-boundary
// filter check.
func Passes(item *entity.Item, filter entity.FilterSettings) bool {
	return PassesTypeFilter(item, filter.ExcludeTypes) && PassesRegexFilter(item, filter.ExcludeRegex)
}
