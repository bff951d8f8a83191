package models

import (
	"attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// VerificationStatus is the human review state of an entity record.
//
// Transitions are caused only by explicit status-update requests, never by
// the merge engine. Any status may be set at any time: a reviewer can always
// correct a prior decision, including re-opening not_verified back to
// pending. What not_verified does gate is automated merging of scalar
// fields, via LockPolicy.
type VerificationStatus string

const (
	StatusPending             VerificationStatus = "pending"
	StatusVerified            VerificationStatus = "verified"
	StatusNotVerified         VerificationStatus = "not_verified"
	StatusOwnershipIncomplete VerificationStatus = "beneficial_ownership_incomplete"
)

var validStatuses = map[VerificationStatus]bool{
	StatusPending:             true,
	StatusVerified:            true,
	StatusNotVerified:         true,
	StatusOwnershipIncomplete: true,
}

// ParseVerificationStatus constructs a VerificationStatus from external input.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "verification status cannot be empty")
	}
	v := VerificationStatus(s)
	if !v.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported verification status %q", s)
	}
	return v, nil
}

func (s VerificationStatus) IsValid() bool {
	return validStatuses[s]
}

func (s VerificationStatus) String() string {
	return string(s)
}

// Locks reports whether this status forbids automated scalar-field merges.
func (s VerificationStatus) Locks() bool {
	return s == StatusNotVerified
}

// LockPolicy decides, per role, whether a not_verified record rejects merges.
//
// The observed production behavior is asymmetric: director/shareholder rows
// honor the lock while individual/company provenance maps always accept new
// sources. The policy is explicit and configurable rather than silently
// uniform so a deployment can close that gap deliberately.
type LockPolicy map[domain.Role]bool

// DefaultLockPolicy mirrors the observed behavior: only the scalar
// director/shareholder shapes are lockable.
func DefaultLockPolicy() LockPolicy {
	return LockPolicy{
		domain.RoleIndividual:  false,
		domain.RoleCompany:     false,
		domain.RoleDirector:    true,
		domain.RoleShareholder: true,
	}
}

// Lockable reports whether records of the given role honor the
// not_verified lock.
func (p LockPolicy) Lockable(role domain.Role) bool {
	return p[role]
}
