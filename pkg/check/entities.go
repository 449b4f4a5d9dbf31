package check

import "sort"

// OrderEntities builds the evaluation order for a check run. The input
// names are deduplicated, filtered through the ignore predicate and
// sorted. Important names come first, in their configured order, and are
// injected even when absent from the input so that they get reported as
// "no snapshots found" instead of being silently skipped. The ignore
// predicate does not apply to important names.
func OrderEntities(all []string, ignore func(string) bool, important []string) []string {
	importantSet := make(map[string]bool, len(important))
	ordered := make([]string, 0, len(all)+len(important))
	for _, name := range important {
		if name == "" || importantSet[name] {
			continue
		}
		importantSet[name] = true
		ordered = append(ordered, name)
	}

	seen := make(map[string]bool, len(all))
	rest := make([]string, 0, len(all))
	for _, name := range all {
		if name == "" || seen[name] || importantSet[name] {
			continue
		}
		seen[name] = true
		if ignore != nil && ignore(name) {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)

	return append(ordered, rest...)
}
