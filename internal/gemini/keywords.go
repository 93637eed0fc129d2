package gemini

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultTopKeywords is how many terms generation works from.
const DefaultTopKeywords = 16

var wordRe = regexp.MustCompile(`[a-zA-Z]{4,}`)

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {}, "because": {},
	"being": {}, "between": {}, "could": {}, "first": {}, "from": {},
	"into": {}, "other": {}, "should": {}, "their": {}, "there": {},
	"these": {}, "those": {}, "through": {}, "under": {}, "which": {},
	"while": {}, "with": {}, "that": {}, "this": {}, "where": {},
	"when": {}, "what": {}, "have": {}, "were": {}, "they": {},
	"your": {}, "them": {}, "than": {}, "then": {}, "such": {},
	"more": {},
}

// ExtractKeywords returns the topN most frequent alphabetic terms (length
// 4+, stop words removed) in descending frequency, ties kept in first-seen
// order. Deterministic for identical input.
func ExtractKeywords(text string, topN int) []string {
	if topN <= 0 {
		topN = DefaultTopKeywords
	}
	counts := map[string]int{}
	var order []string
	for _, w := range wordRe.FindAllString(text, -1) {
		w = strings.ToLower(w)
		if _, skip := stopwords[w]; skip {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}
	return order
}
