package domain

import dErrors "attest/pkg/domain-errors"

// Role distinguishes the four entity shapes tracked by the engine.
// Individuals and companies carry multi-source provenance maps; directors and
// shareholders are scalar rows attached to one owning company.
type Role string

const (
	RoleIndividual  Role = "individual"
	RoleCompany     Role = "company"
	RoleDirector    Role = "director"
	RoleShareholder Role = "shareholder"
)

var validRoles = map[Role]bool{
	RoleIndividual:  true,
	RoleCompany:     true,
	RoleDirector:    true,
	RoleShareholder: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported role %q", s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsOfficer reports whether the role is the scalar director/shareholder shape
// scoped by an owning company.
func (r Role) IsOfficer() bool {
	return r == RoleDirector || r == RoleShareholder
}

func (r Role) String() string {
	return string(r)
}
