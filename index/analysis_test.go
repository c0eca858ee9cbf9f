package index_test

import (
	"testing"

	"github.com/CraftOldWang/information-retrieval/index"
	"github.com/stretchr/testify/assert"
)

func tokenize(input string) []string {
	tokenizer := index.NewStandardTokenizer()
	tokenizer.Reset([]byte(input))

	var tokens []string

	for {
		token, ok := tokenizer.NextToken()
		if !ok {
			break
		}

		tokens = append(tokens, string(token))
	}

	return tokens
}

func TestStandardTokenizerLowercasesAndSplits(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, tokenize("Hello, World!"))
	assert.Equal(t, []string{"a1", "b2"}, tokenize("a1\tb2\n"))
}

func TestStandardTokenizerNormalizesFullWidth(t *testing.T) {
	// NFKC folds full-width forms to their ASCII equivalents.
	assert.Equal(t, []string{"hello", "123"}, tokenize("Ｈｅｌｌｏ　１２３"))
}

func TestStandardTokenizerEmitsHanRunesAsTokens(t *testing.T) {
	assert.Equal(t, []string{"南", "开", "大", "学"}, tokenize("南开大学"))
	assert.Equal(t, []string{"nku", "南", "开", "news"}, tokenize("nku南开 news"))
}

func TestStandardTokenizerIsTotal(t *testing.T) {
	assert.Empty(t, tokenize(""))
	assert.Empty(t, tokenize("!!! ...\x00"))
	// Invalid UTF-8 never panics, it just does not tokenize.
	assert.Equal(t, []string{"ok"}, tokenize("ok \xff\xfe"))
}
