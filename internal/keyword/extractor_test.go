package keyword

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer returns canned tokens, or an error when failing is set.
type stubAnalyzer struct {
	tokens  []Token
	failing bool
}

func (a *stubAnalyzer) Analyze(text string) ([]Token, error) {
	if a.failing {
		return nil, errors.New("analyzer down")
	}
	return a.tokens, nil
}

func nounTokens(words ...string) []Token {
	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, Token{Surface: w, POS: PosCommonNoun})
	}
	return tokens
}

func TestExtractEmptyText(t *testing.T) {
	e := NewExtractor(&stubAnalyzer{}, &stubAnalyzer{})

	keywords, err := e.Extract("")
	require.NoError(t, err)
	assert.Empty(t, keywords)

	keywords, err = e.Extract("   \n\t")
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestExtractNoNouns(t *testing.T) {
	primary := &stubAnalyzer{tokens: []Token{
		{Surface: "quickly", POS: "adverb"},
		{Surface: "走る", POS: "動詞,自立"},
	}}
	e := NewExtractor(primary, &stubAnalyzer{})

	keywords, err := e.Extract("some text")
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestExtractSingleNounNoCompounds(t *testing.T) {
	primary := &stubAnalyzer{tokens: nounTokens("커피")}
	e := NewExtractor(primary, &stubAnalyzer{})

	keywords, err := e.Extract("커피")
	require.NoError(t, err)
	assert.Equal(t, []string{"커피"}, keywords)
}

func TestExtractCompoundsFromAdjacentNouns(t *testing.T) {
	primary := &stubAnalyzer{tokens: nounTokens("커피", "영수증")}
	e := NewExtractor(primary, &stubAnalyzer{})

	keywords, err := e.Extract("커피 영수증")
	require.NoError(t, err)
	assert.Equal(t, []string{"커피", "영수증", "커피영수증"}, keywords)
}

func TestExtractDiscardsSingleCharacterNouns(t *testing.T) {
	primary := &stubAnalyzer{tokens: []Token{
		{Surface: "차", POS: PosCommonNoun},
		{Surface: "자동차", POS: PosCommonNoun},
	}}
	e := NewExtractor(primary, &stubAnalyzer{})

	keywords, err := e.Extract("차 자동차")
	require.NoError(t, err)
	assert.Equal(t, []string{"자동차"}, keywords)
}

func TestExtractFrequencyRankingWithStableTies(t *testing.T) {
	// beta appears twice, the rest once; equal-frequency candidates keep
	// first-seen order.
	primary := &stubAnalyzer{tokens: nounTokens("alpha", "beta", "gamma", "beta")}
	e := NewExtractor(primary, &stubAnalyzer{})

	keywords, err := e.Extract("text")
	require.NoError(t, err)

	assert.Equal(t, "beta", keywords[0])
	rest := keywords[1:]
	assert.Equal(t, []string{"alpha", "gamma", "alphabeta", "betagamma", "gammabeta"}, rest)
}

func TestExtractCapsAtTopN(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = "word" + strings.Repeat("x", i+1)
	}
	primary := &stubAnalyzer{tokens: nounTokens(words...)}
	e := NewExtractor(primary, &stubAnalyzer{})

	keywords, err := e.Extract("text")
	require.NoError(t, err)
	assert.Len(t, keywords, DefaultTopN)
}

func TestExtractNoDuplicates(t *testing.T) {
	primary := &stubAnalyzer{tokens: nounTokens("커피", "커피", "커피", "영수증")}
	e := NewExtractor(primary, &stubAnalyzer{})

	keywords, err := e.Extract("text")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, k := range keywords {
		assert.False(t, seen[k], "duplicate keyword %q", k)
		seen[k] = true
	}
}

func TestExtractDeterministic(t *testing.T) {
	primary := &stubAnalyzer{tokens: nounTokens("alpha", "beta", "alpha", "gamma")}
	e := NewExtractor(primary, &stubAnalyzer{})

	first, err := e.Extract("text")
	require.NoError(t, err)
	second, err := e.Extract("text")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractFallsBackToSecondary(t *testing.T) {
	secondary := &stubAnalyzer{tokens: []Token{
		{Surface: "fallback", POS: PosNoun},
	}}
	e := NewExtractor(&stubAnalyzer{failing: true}, secondary)

	keywords, err := e.Extract("text")
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, keywords)
}

func TestExtractBothAnalyzersFail(t *testing.T) {
	e := NewExtractor(&stubAnalyzer{failing: true}, &stubAnalyzer{failing: true})

	_, err := e.Extract("text")
	assert.Error(t, err)
}

func TestKagomeAnalyzerTagsNouns(t *testing.T) {
	a, err := NewKagomeAnalyzer()
	require.NoError(t, err)

	tokens, err := a.Analyze("東京タワーに行く")
	require.NoError(t, err)
	require.NotEmpty(t, tokens)

	var nouns []string
	for _, tok := range tokens {
		if nounTags[tok.POS] {
			nouns = append(nouns, tok.Surface)
		}
	}
	assert.Contains(t, nouns, "東京")
}

func TestStemAnalyzerNormalizesAndStems(t *testing.T) {
	a := NewStemAnalyzer()

	tokens, err := a.Analyze("Running dogs keep running")
	require.NoError(t, err)

	surfaces := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		assert.Equal(t, PosNoun, tok.POS)
		surfaces = append(surfaces, tok.Surface)
	}
	assert.Equal(t, []string{"run", "dog", "keep", "run"}, surfaces)
}

func TestExtractorWithStemFallbackRanksStems(t *testing.T) {
	e := NewExtractor(&stubAnalyzer{failing: true}, NewStemAnalyzer())

	keywords, err := e.Extract("running dogs love running")
	require.NoError(t, err)
	require.NotEmpty(t, keywords)
	assert.Equal(t, "run", keywords[0])
}
