package models

import "attest/pkg/domain"

// Field names a logical attribute of an entity. Which fields are valid
// depends on the entity's role; a guess naming a field outside its role is a
// role mismatch, not a new attribute.
type Field string

// Multi-source fields on individuals.
const (
	FieldFullName         Field = "full_name"
	FieldAlternativeNames Field = "alternative_names"
	FieldIDNumbers        Field = "id_numbers"
	FieldIDTypes          Field = "id_types"
	FieldNationalities    Field = "nationalities"
	FieldAddresses        Field = "addresses"
	FieldEmails           Field = "emails"
	FieldPhones           Field = "phones"
	FieldRoles            Field = "roles"
)

// Multi-source fields on companies.
const (
	FieldCompanyName        Field = "company_name"
	FieldRegistrationNumber Field = "registration_number"
	FieldJurisdiction       Field = "jurisdiction"
	FieldAddress            Field = "address"
	FieldCompanyActivities  Field = "company_activities"
	FieldSharesIssued       Field = "shares_issued"
)

// Name-reference sets on companies. Guesses on these add weak references to
// director/shareholder entities rather than provenance entries.
const (
	FieldDirectors    Field = "directors"
	FieldShareholders Field = "shareholders"
)

// Scalar fields on directors and shareholders.
const (
	FieldIDNumber    Field = "id_number"
	FieldIDType      Field = "id_type"
	FieldNationality Field = "nationality"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
)

// Shared between individuals and shareholders.
const (
	FieldSharesOwned   Field = "shares_owned"
	FieldPricePerShare Field = "price_per_share"
)

func (f Field) String() string { return string(f) }

var individualFields = []Field{
	FieldFullName, FieldAlternativeNames, FieldIDNumbers, FieldIDTypes,
	FieldNationalities, FieldAddresses, FieldEmails, FieldPhones, FieldRoles,
	FieldSharesOwned, FieldPricePerShare,
}

var companyFields = []Field{
	FieldCompanyName, FieldRegistrationNumber, FieldJurisdiction, FieldAddress,
	FieldCompanyActivities, FieldSharesIssued, FieldPricePerShare,
	FieldDirectors, FieldShareholders,
}

var directorFields = []Field{
	FieldIDNumber, FieldIDType, FieldNationality, FieldAddress, FieldPhone, FieldEmail,
}

var shareholderFields = []Field{
	FieldIDNumber, FieldIDType, FieldNationality, FieldAddress, FieldPhone, FieldEmail,
	FieldSharesOwned, FieldPricePerShare,
}

var fieldsByRole = map[domain.Role][]Field{
	domain.RoleIndividual:  individualFields,
	domain.RoleCompany:     companyFields,
	domain.RoleDirector:    directorFields,
	domain.RoleShareholder: shareholderFields,
}

// FieldsForRole returns the fields valid for a role, in canonical order.
// The returned slice must not be mutated.
func FieldsForRole(role domain.Role) []Field {
	return fieldsByRole[role]
}

// AllowedFor reports whether the field belongs to the given role.
func (f Field) AllowedFor(role domain.Role) bool {
	for _, candidate := range fieldsByRole[role] {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsReference reports whether the field is a company name-reference set
// rather than a provenance map.
func (f Field) IsReference() bool {
	return f == FieldDirectors || f == FieldShareholders
}

var numericFields = map[Field]bool{
	FieldSharesOwned:   true,
	FieldSharesIssued:  true,
	FieldPricePerShare: true,
}

// IsNumeric reports whether values of this field are compared numerically
// (thousands separators stripped, decimal points unified) by the discrepancy
// detector.
func (f Field) IsNumeric() bool {
	return numericFields[f]
}
