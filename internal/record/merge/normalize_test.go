package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"attest/internal/record/models"
)

func TestDefaultNormalizer_Strings(t *testing.T) {
	t.Run("case and whitespace fold together", func(t *testing.T) {
		a := DefaultNormalizer(models.FieldCompanyName, "Acme Corp")
		b := DefaultNormalizer(models.FieldCompanyName, "  acme corp ")
		assert.Equal(t, a, b)
	})

	t.Run("distinct names stay distinct", func(t *testing.T) {
		a := DefaultNormalizer(models.FieldCompanyName, "Acme Corp")
		b := DefaultNormalizer(models.FieldCompanyName, "Acme Corporation")
		assert.NotEqual(t, a, b)
	})

	t.Run("singaporean vs singapore is a real difference", func(t *testing.T) {
		a := DefaultNormalizer(models.FieldNationalities, "Singaporean")
		b := DefaultNormalizer(models.FieldNationalities, "Singapore")
		assert.NotEqual(t, a, b)
	})
}

func TestDefaultNormalizer_Numeric(t *testing.T) {
	t.Run("formatting variants compare equal", func(t *testing.T) {
		variants := []string{"1000.50", "1,000.50", "1 000,50", "1000,50", "1000.5"}
		want := DefaultNormalizer(models.FieldSharesOwned, "1000.5")
		for _, v := range variants {
			assert.Equal(t, want, DefaultNormalizer(models.FieldSharesOwned, v), "variant %q", v)
		}
	})

	t.Run("grouping commas are not decimals", func(t *testing.T) {
		a := DefaultNormalizer(models.FieldSharesIssued, "1,000,000")
		b := DefaultNormalizer(models.FieldSharesIssued, "1000000")
		assert.Equal(t, a, b)
	})

	t.Run("different quantities stay distinct", func(t *testing.T) {
		a := DefaultNormalizer(models.FieldSharesOwned, "1000")
		b := DefaultNormalizer(models.FieldSharesOwned, "1001")
		assert.NotEqual(t, a, b)
	})

	t.Run("non-numeric values on numeric fields fall back to string compare", func(t *testing.T) {
		a := DefaultNormalizer(models.FieldSharesOwned, "TBD")
		assert.Equal(t, "tbd", a)
	})

	t.Run("numeric rules only apply to numeric fields", func(t *testing.T) {
		// An ID number is not a quantity; "1,000" and "1000" differ.
		a := DefaultNormalizer(models.FieldIDNumbers, "1,000")
		b := DefaultNormalizer(models.FieldIDNumbers, "1000")
		assert.NotEqual(t, a, b)
	})
}
