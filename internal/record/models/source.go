package models

import (
	"fmt"
	"strings"

	"attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// SourceRef identifies one document contribution to a field value.
// Immutable once created.
type SourceRef struct {
	DocumentID   domain.DocumentID `json:"document_id"`
	DocumentName string            `json:"document_name"`
	DocumentType string            `json:"document_type"`
}

// NewSourceRef validates and constructs a source reference.
//
// Errors: CodeMalformedGuess when the document id is empty.
func NewSourceRef(documentID domain.DocumentID, name, docType string) (SourceRef, error) {
	if strings.TrimSpace(documentID.String()) == "" {
		return SourceRef{}, dErrors.New(dErrors.CodeMalformedGuess, "source requires a document id")
	}
	return SourceRef{
		DocumentID:   documentID,
		DocumentName: strings.TrimSpace(name),
		DocumentType: strings.TrimSpace(docType),
	}, nil
}

// Describe renders the human-readable provenance description recorded on
// scalar officer fields, e.g. "passport-scan.pdf (passport)".
func (s SourceRef) Describe() string {
	switch {
	case s.DocumentName != "" && s.DocumentType != "":
		return fmt.Sprintf("%s (%s)", s.DocumentName, s.DocumentType)
	case s.DocumentName != "":
		return s.DocumentName
	case s.DocumentType != "":
		return s.DocumentType
	default:
		return s.DocumentID.String()
	}
}
