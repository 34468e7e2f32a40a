package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchText(t *testing.T) {
	t.Run("should lowercase and strip punctuation", func(t *testing.T) {
		assert.Equal(t, "acme corp ltd", SearchText("  ACME, Corp. (Ltd)  "))
	})

	t.Run("should keep non latin letters and digits", func(t *testing.T) {
		assert.Equal(t, "владимир путин 2", SearchText("Владимир-Путин #2"))
	})

	t.Run("should keep underscores", func(t *testing.T) {
		assert.Equal(t, "snake_case name", SearchText("snake_case/name"))
	})

	t.Run("should return empty for punctuation only", func(t *testing.T) {
		assert.Equal(t, "", SearchText("..,;!"))
		assert.Equal(t, "", SearchText(""))
	})
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"john", "smith"}, Words("john smith john"))
	assert.Empty(t, Words("   "))
}

func TestNameWords(t *testing.T) {
	t.Run("should split on commas and drop short words", func(t *testing.T) {
		assert.Equal(t, []string{"smith", "john"}, NameWords("Smith,John A", 2))
	})

	t.Run("should dedupe case insensitively", func(t *testing.T) {
		assert.Equal(t, []string{"bank"}, NameWords("Bank BANK of", 2))
	})

	t.Run("should fold full width forms", func(t *testing.T) {
		assert.Equal(t, []string{"melli", "bank"}, NameWords("ＭＥＬＬＩ　Bank", 2))
	})
}

func TestFold(t *testing.T) {
	assert.Equal(t, "acme trading llc", Fold("  ＡＣＭＥ\tTrading   LLC "))
	chain, err := Compile(DefaultFold...)
	assert.NoError(t, err)
	assert.Equal(t, Fold("ﬁne  Ｎａｍｅ"), chain.Apply("ﬁne  Ｎａｍｅ"))
}

func TestRegistry(t *testing.T) {
	t.Run("should compile a chain applied in order", func(t *testing.T) {
		chain, err := Compile("nfkc", "remove_punctuation", "collapse_whitespace", "lowercase")
		assert.NoError(t, err)
		assert.Len(t, chain, 4)
		assert.Equal(t, "acme corp", chain.Apply("  ＡＣＭＥ   Corp. "))
	})

	t.Run("should reject an unknown normalizer", func(t *testing.T) {
		_, err := Compile("trim", "reverse")
		assert.ErrorContains(t, err, "unknown normalizer \"reverse\"")
		assert.ErrorContains(t, err, "collapse_whitespace")
	})

	t.Run("should pass the input through an empty chain", func(t *testing.T) {
		assert.Equal(t, " As Is ", Chain(nil).Apply(" As Is "))
	})

	t.Run("should list registered names sorted", func(t *testing.T) {
		Register("custom_upper_test", Uppercase)
		names := List()
		assert.Contains(t, names, "custom_upper_test")
		assert.IsNonDecreasing(t, names)
	})
}
