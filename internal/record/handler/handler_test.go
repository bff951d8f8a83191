package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attest/internal/record/service"
	"attest/internal/record/store"
	"attest/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	router   chi.Router
	records  *store.InMemoryRecordStore
	officers *store.InMemoryOfficerStore
	clientID string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.records = store.NewInMemoryRecordStore()
	s.officers = store.NewInMemoryOfficerStore()
	s.clientID = uuid.NewString()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(s.records, s.officers, logger)

	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) ingestBody(guesses ...map[string]any) map[string]any {
	return map[string]any{"guesses": guesses}
}

func guessJSON(role, name, company, field, value, docID string) map[string]any {
	return map[string]any{
		"role":         role,
		"name":         name,
		"company_name": company,
		"field":        field,
		"value":        value,
		"document": map[string]any{
			"id":   docID,
			"name": docID + ".pdf",
			"type": "kyc_form",
		},
	}
}

func (s *HandlerSuite) TestIngest() {
	s.Run("merges a valid batch", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/extractions", s.ingestBody(
			guessJSON("individual", "John Doe", "", "full_name", "John Doe", "doc-1"),
			guessJSON("individual", "John Doe", "", "emails", "john@example.com", "doc-1"),
		))
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Merged   []string          `json:"merged"`
			Failures map[string]string `json:"failures"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Len(resp.Merged, 1)
		s.Empty(resp.Failures)

		key, err := domain.NewEntityKey(s.mustClientID(), domain.RoleIndividual, "John Doe", "")
		s.Require().NoError(err)
		stored, err := s.records.Load(context.Background(), key)
		s.Require().NoError(err)
		s.Equal(1, stored.Individual.Emails.Len())
	})

	s.Run("reports per-entity failures alongside merges", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/extractions", s.ingestBody(
			guessJSON("individual", "Jane Roe", "", "full_name", "Jane Roe", "doc-1"),
			guessJSON("company", "Acme Pte Ltd", "", "nationalities", "Singaporean", "doc-1"),
		))
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Merged   []string          `json:"merged"`
			Failures map[string]string `json:"failures"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Len(resp.Merged, 1)
		s.Len(resp.Failures, 1)
	})

	s.Run("collects shape failures without dropping the batch", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/extractions", s.ingestBody(
			guessJSON("individual", "John Doe", "", "full_name", "John Doe", "doc-1"),
			guessJSON("trustee", "Who Knows", "", "full_name", "x", "doc-1"),
		))
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Merged   []string          `json:"merged"`
			Failures map[string]string `json:"failures"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Len(resp.Merged, 1)
		// Shape failures use the same canonical key form as merge failures.
		s.Contains(resp.Failures, s.clientID+"/trustee/Who Knows")
	})

	s.Run("rejects malformed bodies", func() {
		req := httptest.NewRequest(http.MethodPost,
			"/clients/"+s.clientID+"/extractions", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects empty batches", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/extractions", s.ingestBody())
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects invalid client ids", func() {
		rec := s.do(http.MethodPost, "/clients/not-a-uuid/extractions", s.ingestBody(
			guessJSON("individual", "John Doe", "", "full_name", "John Doe", "doc-1"),
		))
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestUpdateStatus() {
	s.seedDirector("Jane Lim", "Acme Pte Ltd")

	s.Run("updates a known officer", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/entities/status", map[string]any{
			"role":                "director",
			"name":                "Jane Lim",
			"company_name":        "Acme Pte Ltd",
			"verification_status": "not_verified",
			"kyc_status":          "identity mismatch",
		})
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("locked officer then rejects merges with 423 semantics", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/extractions", s.ingestBody(
			guessJSON("director", "Jane Lim", "Acme Pte Ltd", "nationality", "Malaysian", "doc-9"),
		))
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Failures map[string]string `json:"failures"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Len(resp.Failures, 1)
	})

	s.Run("unknown entity is 404", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/entities/status", map[string]any{
			"role":                "individual",
			"name":                "Nobody",
			"verification_status": "verified",
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("unknown status is 400", func() {
		rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/entities/status", map[string]any{
			"role":                "director",
			"name":                "Jane Lim",
			"company_name":        "Acme Pte Ltd",
			"verification_status": "approved",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestCompliance() {
	s.seedDirector("Jane Lim", "Acme Pte Ltd")

	s.Run("returns missing fields for a director", func() {
		path := fmt.Sprintf("/clients/%s/entities/compliance?role=director&name=%s&company=%s",
			s.clientID, url.QueryEscape("Jane Lim"), url.QueryEscape("Acme Pte Ltd"))
		rec := s.do(http.MethodGet, path, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			MissingFields []string `json:"missing_fields"`
			AdvisoryText  string   `json:"advisory_text"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Contains(resp.MissingFields, "phone")
		s.NotContains(resp.MissingFields, "nationality")
		s.NotEmpty(resp.AdvisoryText)
	})

	s.Run("missing role parameter is 400", func() {
		rec := s.do(http.MethodGet, "/clients/"+s.clientID+"/entities/compliance?name=Jane", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown entity is 404", func() {
		path := "/clients/" + s.clientID + "/entities/compliance?role=individual&name=Ghost"
		rec := s.do(http.MethodGet, path, nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestSummary() {
	s.seedDirector("Jane Lim", "Acme Pte Ltd")

	rec := s.do(http.MethodGet, "/clients/"+s.clientID+"/summary", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		TotalEntities             int `json:"total_entities"`
		EntitiesWithDiscrepancies int `json:"entities_with_discrepancies"`
		TotalDocuments            int `json:"total_documents"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	// The director plus the auto-created pending company.
	s.Equal(2, resp.TotalEntities)
	s.Equal(0, resp.EntitiesWithDiscrepancies)
}

// seedDirector ingests one nationality guess so a director row and its
// owning company exist.
func (s *HandlerSuite) seedDirector(name, company string) {
	rec := s.do(http.MethodPost, "/clients/"+s.clientID+"/extractions", s.ingestBody(
		guessJSON("director", name, company, "nationality", "Singaporean", "doc-1"),
	))
	s.Require().Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) mustClientID() domain.ClientID {
	id, err := domain.ParseClientID(s.clientID)
	s.Require().NoError(err)
	return id
}
