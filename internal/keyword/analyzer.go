package keyword

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// POS tags emitted by the analyzers. The vocabulary depends on which
// analyzer produced the tokens: the morphological analyzer distinguishes
// noun subclasses, the stemming fallback only knows a generic noun.
const (
	PosCommonNoun = "名詞,一般"
	PosProperNoun = "名詞,固有名詞"
	PosVerbalNoun = "名詞,サ変接続"
	PosNoun       = "noun"
)

// Token is one analyzed token with its part-of-speech tag.
type Token struct {
	Surface string
	POS     string
}

// Analyzer splits text into tokens and tags each with a part-of-speech
// category.
type Analyzer interface {
	Analyze(text string) ([]Token, error)
}

// KagomeAnalyzer is the primary morphological analyzer, backed by the
// kagome tokenizer with the IPA dictionary.
type KagomeAnalyzer struct {
	tokenizer *tokenizer.Tokenizer
}

// NewKagomeAnalyzer builds the morphological analyzer. Dictionary setup
// can fail, in which case the caller should fall back to the stemming
// analyzer.
func NewKagomeAnalyzer() (*KagomeAnalyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("init kagome tokenizer: %w", err)
	}
	return &KagomeAnalyzer{tokenizer: t}, nil
}

// Analyze tags every token with its leading two dictionary features
// joined, e.g. "名詞,一般" for a common noun.
func (a *KagomeAnalyzer) Analyze(text string) ([]Token, error) {
	morphemes := a.tokenizer.Tokenize(text)

	tokens := make([]Token, 0, len(morphemes))
	for _, m := range morphemes {
		features := m.Features()
		pos := ""
		switch {
		case len(features) >= 2:
			pos = features[0] + "," + features[1]
		case len(features) == 1:
			pos = features[0]
		}
		tokens = append(tokens, Token{Surface: m.Surface, POS: pos})
	}
	return tokens, nil
}

// StemAnalyzer is the secondary analyzer: a bleve analysis chain of
// unicode tokenization, lowercasing, and porter stemming. It has no
// part-of-speech model, so every token comes back tagged as a generic
// noun.
type StemAnalyzer struct {
	analyzer *analysis.DefaultAnalyzer
}

// NewStemAnalyzer builds the stemming fallback analyzer.
func NewStemAnalyzer() *StemAnalyzer {
	return &StemAnalyzer{
		analyzer: &analysis.DefaultAnalyzer{
			Tokenizer: unicode.NewUnicodeTokenizer(),
			TokenFilters: []analysis.TokenFilter{
				lowercase.NewLowerCaseFilter(),
				porter.NewPorterStemmer(),
			},
		},
	}
}

// Analyze normalizes and stems the text's tokens.
func (a *StemAnalyzer) Analyze(text string) ([]Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	stream := a.analyzer.Analyze([]byte(text))
	tokens := make([]Token, 0, len(stream))
	for _, t := range stream {
		tokens = append(tokens, Token{Surface: string(t.Term), POS: PosNoun})
	}
	return tokens, nil
}
