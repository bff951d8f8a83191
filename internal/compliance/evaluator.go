// Package compliance computes what is still required for an entity to pass
// KYC review: missing required fields per role plus a deterministic advisory
// summary. It reads finished records only and never mutates them.
package compliance

import (
	"fmt"
	"strings"

	"attest/internal/record/models"
	"attest/pkg/domain"
)

// Policy lists the required fields per role. The defaults follow the review
// checklist; deployments may extend them through configuration.
type Policy map[domain.Role][]models.Field

// DefaultPolicy returns the standard requirement table.
func DefaultPolicy() Policy {
	return Policy{
		domain.RoleIndividual: {
			models.FieldIDNumbers, models.FieldIDTypes, models.FieldNationalities,
			models.FieldAddresses, models.FieldPhones, models.FieldEmails,
		},
		domain.RoleDirector: {
			models.FieldIDNumber, models.FieldIDType, models.FieldNationality,
			models.FieldAddress, models.FieldPhone, models.FieldEmail,
		},
		domain.RoleShareholder: {
			models.FieldIDNumber, models.FieldIDType, models.FieldNationality,
			models.FieldAddress, models.FieldPhone, models.FieldEmail,
			models.FieldSharesOwned, models.FieldPricePerShare,
		},
		domain.RoleCompany: {
			models.FieldRegistrationNumber, models.FieldJurisdiction, models.FieldAddress,
			models.FieldDirectors, models.FieldShareholders,
		},
	}
}

// Result is the outcome of a compliance evaluation.
type Result struct {
	MissingFields []string `json:"missing_fields"`
	AdvisoryText  string   `json:"advisory_text"`
}

// Complete reports whether nothing is missing.
func (r Result) Complete() bool {
	return len(r.MissingFields) == 0
}

// Evaluator checks records against the role policy table.
type Evaluator struct {
	policy Policy
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithPolicy replaces the default requirement table.
func WithPolicy(policy Policy) Option {
	return func(ev *Evaluator) { ev.policy = policy }
}

func NewEvaluator(opts ...Option) *Evaluator {
	ev := &Evaluator{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// EvaluateRecord computes missing required fields for a multi-source
// individual or company record. A field counts as present when any source
// recorded a value for it; discrepancies are reported in the advisory text
// but never make a field count as missing.
func (ev *Evaluator) EvaluateRecord(record *models.EntityRecord) Result {
	var missing []string
	for _, field := range ev.policy[record.Key.Role] {
		if field.IsReference() {
			if record.Company != nil && referenceEmpty(record.Company, field) {
				missing = append(missing, field.String())
			}
			continue
		}
		prov, ok := record.Provenance(field)
		if !ok || prov.IsEmpty() {
			missing = append(missing, field.String())
		}
	}
	var conflicts []string
	for _, d := range record.Discrepancies {
		conflicts = append(conflicts, d.Field.String())
	}
	return Result{
		MissingFields: missing,
		AdvisoryText:  advisory(record.Key, missing, conflicts),
	}
}

// EvaluateOfficer computes missing required fields for a scalar
// director or shareholder row.
func (ev *Evaluator) EvaluateOfficer(officer *models.Officer) Result {
	var missing []string
	for _, field := range ev.policy[officer.Key.Role] {
		scalar, ok := officer.Field(field)
		if !ok || scalar.IsEmpty() {
			missing = append(missing, field.String())
		}
	}
	return Result{
		MissingFields: missing,
		AdvisoryText:  advisory(officer.Key, missing, nil),
	}
}

func referenceEmpty(company *models.CompanyAttrs, field models.Field) bool {
	switch field {
	case models.FieldDirectors:
		return len(company.Directors) == 0
	case models.FieldShareholders:
		return len(company.Shareholders) == 0
	}
	return false
}

// advisory renders the fixed status template. It is deterministic on purpose:
// the same record always produces the same text, so the summary can be
// compared and cached.
func advisory(key domain.EntityKey, missing, conflicts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q: ", key.Role, key.Name)
	if len(missing) == 0 {
		b.WriteString("all required fields present")
	} else {
		fmt.Fprintf(&b, "missing %s", strings.Join(missing, ", "))
	}
	if len(conflicts) > 0 {
		fmt.Fprintf(&b, "; conflicting sources for %s", strings.Join(conflicts, ", "))
	}
	return b.String()
}
