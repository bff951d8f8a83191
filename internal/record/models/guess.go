package models

import (
	"strings"

	"attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// FieldGuess is one raw per-document extraction result: "document D says
// field F of entity E has value V". The extraction adapter produces them; the
// merge engine consumes them. The engine validates shape only, never content.
type FieldGuess struct {
	Key    domain.EntityKey
	Field  Field
	Value  string
	Source SourceRef
}

// Validate checks the guess is well formed.
//
// Errors: CodeMalformedGuess when the entity key, field, value, or source
// document id is missing. A malformed guess fails its own entity's merge but
// never the rest of the batch.
func (g FieldGuess) Validate() error {
	if g.Key.IsZero() {
		return dErrors.New(dErrors.CodeMalformedGuess, "guess is missing its entity key")
	}
	if g.Field == "" {
		return dErrors.New(dErrors.CodeMalformedGuess, "guess is missing a field name")
	}
	if strings.TrimSpace(g.Value) == "" {
		return dErrors.Newf(dErrors.CodeMalformedGuess, "guess for field %q has no value", g.Field)
	}
	if g.Source.DocumentID == "" {
		return dErrors.Newf(dErrors.CodeMalformedGuess, "guess for field %q has no source document id", g.Field)
	}
	return nil
}
