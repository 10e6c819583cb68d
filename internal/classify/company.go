package classify

import "regexp"

// FallbackLength is the number of characters kept from a title when no
// legal-entity pattern is found.
const FallbackLength = 10

// CompanyExtractor derives a company identifier from an article title.
type CompanyExtractor interface {
	Extract(title string) string
}

// boundary characters end a company name: whitespace (incl. U+3000),
// hiragana particles such as が/の, and brackets or punctuation.
const boundary = `\s\p{Zs}\p{Hiragana}` +
	`「」『』（）()【】［］\[\]〈〉《》` +
	`、。，．,.・:：!！?？"'“”|｜/／`

var legalEntityPattern = regexp.MustCompile(
	`[^` + boundary + `]*(?:株式会社|合同会社|有限会社)[^` + boundary + `]*`,
)

// PatternExtractor finds the first run of name characters that contains a
// Japanese legal-entity marker (株式会社, 合同会社, 有限会社), extended in both
// directions to the nearest boundary. It is pure and deterministic.
type PatternExtractor struct{}

// Extract returns the first legal-entity match, or the first FallbackLength
// characters of title. The result is empty only for an empty title.
func (PatternExtractor) Extract(title string) string {
	if m := legalEntityPattern.FindString(title); m != "" {
		return m
	}
	return Prefix(title, FallbackLength)
}

// Prefix returns the first n runes of s, or s when it is shorter.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
