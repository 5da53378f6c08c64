// Package keyword derives a ranked keyword list from free text through
// morphological analysis: nouns are retained, adjacent nouns are joined
// into compound candidates, and candidates are ranked by frequency.
package keyword

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultTopN is the number of keywords kept after ranking.
const DefaultTopN = 15

// nounTags are the part-of-speech categories retained as keyword
// candidates.
var nounTags = map[string]bool{
	PosCommonNoun: true,
	PosProperNoun: true,
	PosVerbalNoun: true,
	PosNoun:       true,
}

// Extractor extracts keywords from text. It analyzes with Primary and
// falls back to Secondary when Primary fails; only failure of both is
// surfaced to the caller.
type Extractor struct {
	Primary   Analyzer
	Secondary Analyzer
	TopN      int
}

// NewExtractor creates an extractor with the default keyword count.
func NewExtractor(primary, secondary Analyzer) *Extractor {
	return &Extractor{Primary: primary, Secondary: secondary, TopN: DefaultTopN}
}

// Extract returns at most TopN keywords, most frequent first, ties broken
// by first occurrence in the text. Empty text, or text without nouns,
// yields an empty list rather than an error.
//
// Compound candidates are built from every adjacent noun pair in text
// order, with no regard for sentence or clause boundaries. Unrelated
// neighbors therefore produce spurious compounds now and then; the
// trade-off favors recall of multi-word domain terms over precision.
func (e *Extractor) Extract(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	tokens, err := e.analyze(text)
	if err != nil {
		return nil, err
	}

	nouns := retainNouns(tokens)
	candidates := append(nouns, compoundNouns(nouns)...)

	return rankByFrequency(candidates, e.TopN), nil
}

func (e *Extractor) analyze(text string) ([]Token, error) {
	var err error
	if e.Primary != nil {
		var tokens []Token
		tokens, err = e.Primary.Analyze(text)
		if err == nil {
			return tokens, nil
		}
	} else {
		err = fmt.Errorf("no primary analyzer")
	}

	tokens, ferr := e.Secondary.Analyze(text)
	if ferr != nil {
		return nil, fmt.Errorf("analyze text: primary: %v, secondary: %w", err, ferr)
	}
	return tokens, nil
}

// retainNouns keeps noun-tagged tokens longer than one character;
// single-character nouns carry too little signal.
func retainNouns(tokens []Token) []string {
	var nouns []string
	for _, t := range tokens {
		if nounTags[t.POS] && utf8.RuneCountInString(t.Surface) > 1 {
			nouns = append(nouns, t.Surface)
		}
	}
	return nouns
}

// compoundNouns concatenates every adjacent noun pair. Fewer than two
// nouns means no compounds.
func compoundNouns(nouns []string) []string {
	var compounds []string
	for i := 0; i+1 < len(nouns); i++ {
		compounds = append(compounds, nouns[i]+nouns[i+1])
	}
	return compounds
}

// rankByFrequency counts candidates, sorts descending by count with a
// stable first-seen tie-break, and keeps the top n.
func rankByFrequency(candidates []string, n int) []string {
	counts := make(map[string]int, len(candidates))
	var order []string
	for _, c := range candidates {
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}

	// order is already first-seen ordered, so a stable sort on count
	// alone gives the tie-break for free.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}
