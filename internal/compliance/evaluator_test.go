package compliance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attest/internal/record/models"
	"attest/pkg/domain"
)

var evalNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func evalKey(t *testing.T, role domain.Role, name, company string) domain.EntityKey {
	t.Helper()
	key, err := domain.NewEntityKey(domain.ClientID(uuid.New()), role, name, company)
	require.NoError(t, err)
	return key
}

func evalSource(t *testing.T, docID string) models.SourceRef {
	t.Helper()
	ref, err := models.NewSourceRef(domain.DocumentID(docID), "doc.pdf", "kyc_form")
	require.NoError(t, err)
	return ref
}

func TestEvaluateRecord_Individual(t *testing.T) {
	ev := NewEvaluator()

	t.Run("empty record misses everything required", func(t *testing.T) {
		record := models.NewEntityRecord(evalKey(t, domain.RoleIndividual, "John Doe", ""), evalNow)
		result := ev.EvaluateRecord(record)

		assert.False(t, result.Complete())
		assert.ElementsMatch(t, []string{
			"id_numbers", "id_types", "nationalities", "addresses", "phones", "emails",
		}, result.MissingFields)
		assert.Contains(t, result.AdvisoryText, `individual "John Doe"`)
		assert.Contains(t, result.AdvisoryText, "missing ")
	})

	t.Run("one source per field satisfies the requirement", func(t *testing.T) {
		record := models.NewEntityRecord(evalKey(t, domain.RoleIndividual, "John Doe", ""), evalNow)
		src := evalSource(t, "doc-1")
		record.Individual.IDNumbers.Upsert("S1234567A", src)
		record.Individual.IDTypes.Upsert("nric", src)
		record.Individual.Nationalities.Upsert("Singaporean", src)
		record.Individual.Addresses.Upsert("1 Main St", src)
		record.Individual.Phones.Upsert("+65 8123 4567", src)
		record.Individual.Emails.Upsert("john@example.com", src)

		result := ev.EvaluateRecord(record)
		assert.True(t, result.Complete())
		assert.Contains(t, result.AdvisoryText, "all required fields present")
	})

	t.Run("conflicting field still counts as present", func(t *testing.T) {
		record := models.NewEntityRecord(evalKey(t, domain.RoleIndividual, "John Doe", ""), evalNow)
		record.Individual.Nationalities.Upsert("Singaporean", evalSource(t, "doc-1"))
		record.Individual.Nationalities.Upsert("Singapore", evalSource(t, "doc-2"))
		record.Discrepancies = []models.Discrepancy{{
			Field:  models.FieldNationalities,
			Values: []string{"Singaporean", "Singapore"},
		}}

		result := ev.EvaluateRecord(record)
		assert.NotContains(t, result.MissingFields, "nationalities")
		assert.Contains(t, result.AdvisoryText, "conflicting sources for nationalities")
	})
}

func TestEvaluateRecord_Company(t *testing.T) {
	ev := NewEvaluator()

	t.Run("reference sets are required", func(t *testing.T) {
		record := models.NewEntityRecord(evalKey(t, domain.RoleCompany, "Acme Pte Ltd", ""), evalNow)
		src := evalSource(t, "doc-1")
		record.Company.RegistrationNumber.Upsert("201912345K", src)
		record.Company.Jurisdiction.Upsert("Singapore", src)
		record.Company.Address.Upsert("1 Raffles Pl", src)

		result := ev.EvaluateRecord(record)
		assert.ElementsMatch(t, []string{"directors", "shareholders"}, result.MissingFields)

		record.Company.AddReference(models.FieldDirectors, "Jane Lim")
		record.Company.AddReference(models.FieldShareholders, "Jane Lim")
		assert.True(t, ev.EvaluateRecord(record).Complete())
	})
}

func TestEvaluateOfficer(t *testing.T) {
	ev := NewEvaluator()

	t.Run("director requires the six scalar fields", func(t *testing.T) {
		officer := models.NewOfficer(evalKey(t, domain.RoleDirector, "Jane Lim", "Acme Pte Ltd"), evalNow)
		officer.IDNumber = models.ScalarField{Value: "S1234567A", Source: "passport.pdf (passport)"}
		officer.IDType = models.ScalarField{Value: "nric", Source: "passport.pdf (passport)"}
		officer.Nationality = models.ScalarField{Value: "Singaporean", Source: "passport.pdf (passport)"}
		officer.Address = models.ScalarField{Value: "1 Main St", Source: "bill.pdf (utility_bill)"}

		result := ev.EvaluateOfficer(officer)
		assert.ElementsMatch(t, []string{"phone", "email"}, result.MissingFields)
		assert.Contains(t, result.AdvisoryText, `director "Jane Lim"`)
	})

	t.Run("shareholder additionally requires share quantities", func(t *testing.T) {
		officer := models.NewOfficer(evalKey(t, domain.RoleShareholder, "Jane Lim", "Acme Pte Ltd"), evalNow)
		result := ev.EvaluateOfficer(officer)
		assert.Contains(t, result.MissingFields, "shares_owned")
		assert.Contains(t, result.MissingFields, "price_per_share")
	})
}

func TestEvaluator_CustomPolicy(t *testing.T) {
	ev := NewEvaluator(WithPolicy(Policy{
		domain.RoleIndividual: {models.FieldFullName},
	}))
	record := models.NewEntityRecord(evalKey(t, domain.RoleIndividual, "John Doe", ""), evalNow)

	result := ev.EvaluateRecord(record)
	assert.Equal(t, []string{"full_name"}, result.MissingFields)

	record.Individual.FullName.Upsert("John Doe", evalSource(t, "doc-1"))
	assert.True(t, ev.EvaluateRecord(record).Complete())
}

func TestAdvisoryDeterminism(t *testing.T) {
	ev := NewEvaluator()
	record := models.NewEntityRecord(evalKey(t, domain.RoleIndividual, "John Doe", ""), evalNow)

	first := ev.EvaluateRecord(record)
	second := ev.EvaluateRecord(record)
	assert.Equal(t, first.AdvisoryText, second.AdvisoryText)
}
