package handler

import (
	"fmt"
	"strings"

	"attest/internal/record/models"
	"attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// guessPayload is one extracted field guess on the wire.
type guessPayload struct {
	Role        string `json:"role"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name,omitempty"`
	Field       string `json:"field"`
	Value       string `json:"value"`
	Document    struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
		Type string `json:"type,omitempty"`
	} `json:"document"`
}

type ingestRequest struct {
	Guesses []guessPayload `json:"guesses"`
}

type ingestResponse struct {
	Merged   []string          `json:"merged"`
	Failures map[string]string `json:"failures,omitempty"`
}

type statusUpdateRequest struct {
	Role        string  `json:"role"`
	Name        string  `json:"name"`
	CompanyName string  `json:"company_name,omitempty"`
	Status      string  `json:"verification_status"`
	KYCStatus   *string `json:"kyc_status,omitempty"`
}

// failureKey mirrors EntityKey.Canonical for payloads that never parsed into
// a valid key, so both ingest failure stages report under one key format.
func (p guessPayload) failureKey(clientID domain.ClientID) string {
	name := strings.TrimSpace(p.Name)
	if company := strings.TrimSpace(p.CompanyName); company != "" {
		return fmt.Sprintf("%s/%s/%s/%s", clientID, p.Role, company, name)
	}
	return fmt.Sprintf("%s/%s/%s", clientID, p.Role, name)
}

// toFieldGuess validates one payload into a domain guess. Shape errors carry
// CodeMalformedGuess so one bad guess fails only its own entity downstream.
func (p guessPayload) toFieldGuess(clientID domain.ClientID) (models.FieldGuess, error) {
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return models.FieldGuess{}, dErrors.Wrap(err, dErrors.CodeMalformedGuess, "invalid guess role")
	}
	key, err := domain.NewEntityKey(clientID, role, p.Name, p.CompanyName)
	if err != nil {
		return models.FieldGuess{}, dErrors.Wrap(err, dErrors.CodeMalformedGuess, "invalid guess entity key")
	}
	docID, err := domain.ParseDocumentID(p.Document.ID)
	if err != nil {
		return models.FieldGuess{}, dErrors.Wrap(err, dErrors.CodeMalformedGuess, "invalid guess document id")
	}
	source, err := models.NewSourceRef(docID, p.Document.Name, p.Document.Type)
	if err != nil {
		return models.FieldGuess{}, err
	}
	return models.FieldGuess{
		Key:    key,
		Field:  models.Field(p.Field),
		Value:  p.Value,
		Source: source,
	}, nil
}
