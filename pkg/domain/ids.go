// Package domain holds shared identifier and key types for the reconciliation
// engine. Typed IDs prevent cross-type assignment at compile time; Parse*
// constructors enforce validity at trust boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "attest/pkg/domain-errors"
)

// ClientID identifies the customer whose documents are being reconciled. All
// entity keys are scoped by client.
type ClientID uuid.UUID

// ParseClientID constructs a ClientID from external input.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s, "client id")
	if err != nil {
		return ClientID{}, err
	}
	return ClientID(u), nil
}

func (id ClientID) String() string { return uuid.UUID(id).String() }

func (id ClientID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// DocumentID identifies one submitted document. The extraction layer assigns
// it; the engine only requires it to be non-empty and stable within a client.
type DocumentID string

// ParseDocumentID constructs a DocumentID from external input.
//
// Errors: CodeInvalidInput when the value is empty after trimming.
func ParseDocumentID(s string) (DocumentID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document id cannot be empty")
	}
	return DocumentID(s), nil
}

func (id DocumentID) String() string { return string(id) }

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", what)
	}
	return u, nil
}
