package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/pkg/domain"
)

func src(t *testing.T, docID, name, docType string) SourceRef {
	t.Helper()
	ref, err := NewSourceRef(domain.DocumentID(docID), name, docType)
	require.NoError(t, err)
	return ref
}

func collect(p *FieldProvenance[string]) []string {
	var values []string
	for entry := range p.Values() {
		values = append(values, entry.Value)
	}
	return values
}

func TestFieldProvenance_Upsert(t *testing.T) {
	t.Run("distinct documents accumulate", func(t *testing.T) {
		var p FieldProvenance[string]
		p.Upsert("Singaporean", src(t, "doc-1", "passport.pdf", "passport"))
		p.Upsert("Singapore", src(t, "doc-2", "profile.pdf", "acra_profile"))

		assert.Equal(t, 2, p.Len())
		assert.Equal(t, []string{"Singaporean", "Singapore"}, collect(&p))
	})

	t.Run("same document replaces in place", func(t *testing.T) {
		var p FieldProvenance[string]
		p.Upsert("Jon Doe", src(t, "doc-1", "passport.pdf", "passport"))
		p.Upsert("John Doe", src(t, "doc-1", "passport.pdf", "passport"))

		assert.Equal(t, 1, p.Len())
		entry, ok := p.Get("doc-1")
		require.True(t, ok)
		assert.Equal(t, "John Doe", entry.Value)
	})

	t.Run("replacement keeps first-insertion order", func(t *testing.T) {
		var p FieldProvenance[string]
		p.Upsert("a", src(t, "doc-1", "", ""))
		p.Upsert("b", src(t, "doc-2", "", ""))
		p.Upsert("a2", src(t, "doc-1", "", ""))

		assert.Equal(t, []string{"a2", "b"}, collect(&p))
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var p FieldProvenance[string]
		assert.True(t, p.IsEmpty())
		assert.Empty(t, collect(&p))
	})
}

func TestFieldProvenance_Clone(t *testing.T) {
	var p FieldProvenance[string]
	p.Upsert("one", src(t, "doc-1", "", ""))

	clone := p.Clone()
	clone.Upsert("two", src(t, "doc-2", "", ""))
	clone.Upsert("changed", src(t, "doc-1", "", ""))

	assert.Equal(t, 1, p.Len())
	entry, _ := p.Get("doc-1")
	assert.Equal(t, "one", entry.Value)
	assert.Equal(t, 2, clone.Len())
}

func TestFieldProvenance_JSONRoundTrip(t *testing.T) {
	var p FieldProvenance[string]
	p.Upsert("Singaporean", src(t, "doc-1", "passport.pdf", "passport"))
	p.Upsert("Singapore", src(t, "doc-2", "profile.pdf", "acra_profile"))

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back FieldProvenance[string]
	require.NoError(t, json.Unmarshal(data, &back))

	// Insertion order survives the round-trip; discrepancy reporting
	// depends on it.
	assert.Equal(t, []string{"Singaporean", "Singapore"}, collect(&back))
	entry, ok := back.Get("doc-2")
	require.True(t, ok)
	assert.Equal(t, "profile.pdf", entry.Source.DocumentName)
}

func TestSourceRefDescribe(t *testing.T) {
	assert.Equal(t, "passport.pdf (passport)", src(t, "d", "passport.pdf", "passport").Describe())
	assert.Equal(t, "passport.pdf", src(t, "d", "passport.pdf", "").Describe())
	assert.Equal(t, "passport", src(t, "d", "", "passport").Describe())
	assert.Equal(t, "d", src(t, "d", "", "").Describe())
}
