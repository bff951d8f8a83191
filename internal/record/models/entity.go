package models

import (
	"time"

	"attest/pkg/domain"
)

// EntityRecord is the canonical multi-source record for one individual or
// company. Director/shareholder rows use the scalar Officer shape instead.
//
// Exactly one of Individual or Company is set, matching Key.Role. The record
// is exclusively owned by one merge invocation at a time; the orchestration
// layer serializes writers per key and the Version field backs the store's
// optimistic concurrency check.
type EntityRecord struct {
	Key           domain.EntityKey
	Individual    *IndividualAttrs
	Company       *CompanyAttrs
	Discrepancies []Discrepancy
	Status        VerificationStatus
	KYCStatus     string // free-text advisory; no effect on transitions
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// IndividualAttrs holds the tracked attributes of one individual, each a
// multi-source provenance map.
type IndividualAttrs struct {
	FullName         FieldProvenance[string] `json:"full_name"`
	AlternativeNames FieldProvenance[string] `json:"alternative_names"`
	IDNumbers        FieldProvenance[string] `json:"id_numbers"`
	IDTypes          FieldProvenance[string] `json:"id_types"`
	Nationalities    FieldProvenance[string] `json:"nationalities"`
	Addresses        FieldProvenance[string] `json:"addresses"`
	Emails           FieldProvenance[string] `json:"emails"`
	Phones           FieldProvenance[string] `json:"phones"`
	Roles            FieldProvenance[string] `json:"roles"`
	SharesOwned      FieldProvenance[string] `json:"shares_owned"`
	PricePerShare    FieldProvenance[string] `json:"price_per_share"`
}

// CompanyAttrs holds the tracked attributes of one company. Directors and
// Shareholders are weak name references to officer records owned elsewhere;
// deleting a company never cascades to them.
type CompanyAttrs struct {
	CompanyName        FieldProvenance[string] `json:"company_name"`
	RegistrationNumber FieldProvenance[string] `json:"registration_number"`
	Jurisdiction       FieldProvenance[string] `json:"jurisdiction"`
	Address            FieldProvenance[string] `json:"address"`
	CompanyActivities  FieldProvenance[string] `json:"company_activities"`
	SharesIssued       FieldProvenance[string] `json:"shares_issued"`
	PricePerShare      FieldProvenance[string] `json:"price_per_share"`
	Directors          []string                `json:"directors"`
	Shareholders       []string                `json:"shareholders"`
}

// NewEntityRecord creates an empty pending record for a first-seen entity.
func NewEntityRecord(key domain.EntityKey, now time.Time) *EntityRecord {
	r := &EntityRecord{
		Key:       key,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch key.Role {
	case domain.RoleIndividual:
		r.Individual = &IndividualAttrs{}
	case domain.RoleCompany:
		r.Company = &CompanyAttrs{}
	}
	return r
}

// Provenance returns the provenance map backing a field, or false when the
// field does not belong to this record's role or is a reference set.
func (r *EntityRecord) Provenance(f Field) (*FieldProvenance[string], bool) {
	switch {
	case r.Individual != nil:
		return r.Individual.provenance(f)
	case r.Company != nil:
		return r.Company.provenance(f)
	default:
		return nil, false
	}
}

func (a *IndividualAttrs) provenance(f Field) (*FieldProvenance[string], bool) {
	switch f {
	case FieldFullName:
		return &a.FullName, true
	case FieldAlternativeNames:
		return &a.AlternativeNames, true
	case FieldIDNumbers:
		return &a.IDNumbers, true
	case FieldIDTypes:
		return &a.IDTypes, true
	case FieldNationalities:
		return &a.Nationalities, true
	case FieldAddresses:
		return &a.Addresses, true
	case FieldEmails:
		return &a.Emails, true
	case FieldPhones:
		return &a.Phones, true
	case FieldRoles:
		return &a.Roles, true
	case FieldSharesOwned:
		return &a.SharesOwned, true
	case FieldPricePerShare:
		return &a.PricePerShare, true
	}
	return nil, false
}

func (a *CompanyAttrs) provenance(f Field) (*FieldProvenance[string], bool) {
	switch f {
	case FieldCompanyName:
		return &a.CompanyName, true
	case FieldRegistrationNumber:
		return &a.RegistrationNumber, true
	case FieldJurisdiction:
		return &a.Jurisdiction, true
	case FieldAddress:
		return &a.Address, true
	case FieldCompanyActivities:
		return &a.CompanyActivities, true
	case FieldSharesIssued:
		return &a.SharesIssued, true
	case FieldPricePerShare:
		return &a.PricePerShare, true
	}
	return nil, false
}

// AddReference appends a director or shareholder name reference, preserving
// arrival order and ignoring duplicates.
func (a *CompanyAttrs) AddReference(f Field, name string) {
	switch f {
	case FieldDirectors:
		a.Directors = appendUnique(a.Directors, name)
	case FieldShareholders:
		a.Shareholders = appendUnique(a.Shareholders, name)
	}
}

func appendUnique(names []string, name string) []string {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}

// DocumentIDs returns the distinct documents that contributed to any field.
func (r *EntityRecord) DocumentIDs() map[domain.DocumentID]struct{} {
	docs := make(map[domain.DocumentID]struct{})
	for _, f := range FieldsForRole(r.Key.Role) {
		prov, ok := r.Provenance(f)
		if !ok {
			continue
		}
		for entry := range prov.Values() {
			docs[entry.Source.DocumentID] = struct{}{}
		}
	}
	return docs
}

// Clone returns an independent deep copy. The merge engine clones before
// mutating so a failed merge leaves the caller's record untouched.
func (r *EntityRecord) Clone() *EntityRecord {
	out := *r
	if r.Individual != nil {
		attrs := IndividualAttrs{
			FullName:         r.Individual.FullName.Clone(),
			AlternativeNames: r.Individual.AlternativeNames.Clone(),
			IDNumbers:        r.Individual.IDNumbers.Clone(),
			IDTypes:          r.Individual.IDTypes.Clone(),
			Nationalities:    r.Individual.Nationalities.Clone(),
			Addresses:        r.Individual.Addresses.Clone(),
			Emails:           r.Individual.Emails.Clone(),
			Phones:           r.Individual.Phones.Clone(),
			Roles:            r.Individual.Roles.Clone(),
			SharesOwned:      r.Individual.SharesOwned.Clone(),
			PricePerShare:    r.Individual.PricePerShare.Clone(),
		}
		out.Individual = &attrs
	}
	if r.Company != nil {
		attrs := CompanyAttrs{
			CompanyName:        r.Company.CompanyName.Clone(),
			RegistrationNumber: r.Company.RegistrationNumber.Clone(),
			Jurisdiction:       r.Company.Jurisdiction.Clone(),
			Address:            r.Company.Address.Clone(),
			CompanyActivities:  r.Company.CompanyActivities.Clone(),
			SharesIssued:       r.Company.SharesIssued.Clone(),
			PricePerShare:      r.Company.PricePerShare.Clone(),
			Directors:          append([]string(nil), r.Company.Directors...),
			Shareholders:       append([]string(nil), r.Company.Shareholders...),
		}
		out.Company = &attrs
	}
	out.Discrepancies = make([]Discrepancy, len(r.Discrepancies))
	copy(out.Discrepancies, r.Discrepancies)
	return &out
}
