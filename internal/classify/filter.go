// Package classify holds the pure per-entry decisions of the pipeline:
// keyword filtering and company-name extraction.
package classify

import "strings"

// KeywordFilter accepts or rejects an entry by literal substring matches
// against its title and summary. Matching is case-sensitive and untokenized;
// keyword lists are domain phrases where plain containment is the policy.
type KeywordFilter struct {
	exclude []string
	include []string
}

// NewKeywordFilter builds a filter. Empty keywords are dropped since they
// would match every entry.
func NewKeywordFilter(exclude, include []string) *KeywordFilter {
	return &KeywordFilter{
		exclude: compact(exclude),
		include: compact(include),
	}
}

// Accept reports whether an entry passes: no exclusion keyword may appear in
// title or summary, and when an inclusion set is configured at least one of
// its keywords must appear.
func (f *KeywordFilter) Accept(title, summary string) bool {
	if _, hit := f.Excluded(title, summary); hit {
		return false
	}
	return f.Included(title, summary)
}

// Included reports whether the inclusion set is empty or one of its keywords
// appears in title or summary. Exclusions are not consulted.
func (f *KeywordFilter) Included(title, summary string) bool {
	if len(f.include) == 0 {
		return true
	}
	return containsAny(title, summary, f.include) != ""
}

// Excluded returns the first exclusion keyword found, for logging.
func (f *KeywordFilter) Excluded(title, summary string) (string, bool) {
	kw := containsAny(title, summary, f.exclude)
	return kw, kw != ""
}

func containsAny(title, summary string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(title, kw) || strings.Contains(summary, kw) {
			return kw
		}
	}
	return ""
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
