package models

import (
	"time"

	"attest/pkg/domain"
)

// ScalarField is one single-valued officer attribute plus the description of
// the document it was last taken from.
type ScalarField struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// IsEmpty reports whether the field was never observed.
func (f ScalarField) IsEmpty() bool {
	return f.Value == ""
}

// Officer is the scalar record shape for directors and shareholders. It is
// attached to exactly one company through its key's
// (client_id, company_name, person_name) scope.
//
// Unlike the multi-source EntityRecord, each field holds one chosen value and
// one provenance description; a later document overwrites an earlier one
// unless the record is locked.
type Officer struct {
	Key           domain.EntityKey
	IDNumber      ScalarField
	IDType        ScalarField
	Nationality   ScalarField
	Address       ScalarField
	Phone         ScalarField
	Email         ScalarField
	SharesOwned   ScalarField // shareholders only
	PricePerShare ScalarField // shareholders only
	Status        VerificationStatus
	KYCStatus     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// NewOfficer creates an empty pending officer row for a first-seen
// director or shareholder.
func NewOfficer(key domain.EntityKey, now time.Time) *Officer {
	return &Officer{
		Key:       key,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Field returns the scalar field for f, or false when f does not belong to
// this officer's role.
func (o *Officer) Field(f Field) (*ScalarField, bool) {
	if !f.AllowedFor(o.Key.Role) {
		return nil, false
	}
	switch f {
	case FieldIDNumber:
		return &o.IDNumber, true
	case FieldIDType:
		return &o.IDType, true
	case FieldNationality:
		return &o.Nationality, true
	case FieldAddress:
		return &o.Address, true
	case FieldPhone:
		return &o.Phone, true
	case FieldEmail:
		return &o.Email, true
	case FieldSharesOwned:
		return &o.SharesOwned, true
	case FieldPricePerShare:
		return &o.PricePerShare, true
	}
	return nil, false
}

// Clone returns an independent copy.
func (o *Officer) Clone() *Officer {
	out := *o
	return &out
}
