package domain

import (
	"fmt"
	"strings"

	dErrors "attest/pkg/domain-errors"
)

// EntityKey identifies one tracked entity: (client, role, name), with the
// owning company name as an extra scope for director/shareholder rows.
//
// Two extraction results refer to the same entity iff their keys are equal
// after normalization. The default normalization is whitespace trimming only;
// exact name matching is the deliberate, conservative identity policy
// (case variants create distinct entities). Fuzzier matching belongs in a
// custom Normalizer injected into the merge engine, not here.
type EntityKey struct {
	ClientID    ClientID
	Role        Role
	Name        string
	CompanyName string // set only for director/shareholder roles
}

// NewEntityKey validates and normalizes an entity key.
//
// Errors: CodeInvalidInput on nil client, invalid role, empty name, or a
// missing company name for officer roles.
func NewEntityKey(clientID ClientID, role Role, name, companyName string) (EntityKey, error) {
	if clientID.IsNil() {
		return EntityKey{}, dErrors.New(dErrors.CodeInvalidInput, "entity key requires a client id")
	}
	if !role.IsValid() {
		return EntityKey{}, dErrors.Newf(dErrors.CodeInvalidInput, "unsupported role %q", role)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return EntityKey{}, dErrors.New(dErrors.CodeInvalidInput, "entity name cannot be empty")
	}
	companyName = strings.TrimSpace(companyName)
	if role.IsOfficer() && companyName == "" {
		return EntityKey{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s key requires an owning company name", role)
	}
	if !role.IsOfficer() {
		companyName = ""
	}
	return EntityKey{ClientID: clientID, Role: role, Name: name, CompanyName: companyName}, nil
}

// Canonical returns a stable string form usable as a map key or lock key.
func (k EntityKey) Canonical() string {
	if k.Role.IsOfficer() {
		return fmt.Sprintf("%s/%s/%s/%s", k.ClientID, k.Role, k.CompanyName, k.Name)
	}
	return fmt.Sprintf("%s/%s/%s", k.ClientID, k.Role, k.Name)
}

func (k EntityKey) String() string {
	return k.Canonical()
}

// IsZero reports whether the key is uninitialized.
func (k EntityKey) IsZero() bool {
	return k == EntityKey{}
}
