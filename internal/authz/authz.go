package authz

import (
	"context"
	"fmt"
)

// Role is the caller's role as carried in a verified identity token.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleStaff, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the verified caller of a request. It is produced at the HTTP
// edge from an already-verified bearer token and is trusted as-is here.
type Identity struct {
	ID   int64
	Role Role
}

// Resource describes the target of an access decision. A patient-scoped
// resource covers a patient's whole record collection; a record-scoped one
// additionally carries the authoring doctor of a specific record.
type Resource struct {
	PatientID int64
	DoctorID  int64

	recordScoped bool
}

// PatientResource describes a patient's record collection.
func PatientResource(patientID int64) Resource {
	return Resource{PatientID: patientID}
}

// RecordResource describes one record via its owner and author.
func RecordResource(patientID, doctorID int64) Resource {
	return Resource{PatientID: patientID, DoctorID: doctorID, recordScoped: true}
}

// Reason is a machine-readable explanation for a Decision.
type Reason string

const (
	ReasonAdminOverride    Reason = "ADMIN_OVERRIDE"
	ReasonPatientSelf      Reason = "PATIENT_SELF"
	ReasonAuthoringDoctor  Reason = "AUTHORING_DOCTOR"
	ReasonAssignedProvider Reason = "ASSIGNED_PROVIDER"
	ReasonNotAuthorized    Reason = "NOT_AUTHORIZED"
)

// Decision is the transient outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// AssignmentChecker answers whether a provider (doctor or staff) is
// assigned to a patient. The real check lives in the patient service; see
// PermitAllAssignments for the stand-in used until that service exists.
type AssignmentChecker interface {
	IsAssigned(ctx context.Context, providerID, patientID int64) (bool, error)
}

// PermitAllAssignments treats every provider as assigned to every patient.
//
// This is a deliberate, known-permissive placeholder: any doctor or staff
// member can reach any patient's records through it. It must be replaced
// with a patient-service backed checker before that is acceptable policy.
// Keeping it as an injected collaborator (rather than a shortcut inside
// Authorize) makes the swap a one-line change in main.
type PermitAllAssignments struct{}

func (PermitAllAssignments) IsAssigned(ctx context.Context, providerID, patientID int64) (bool, error) {
	return true, nil
}

// Engine decides whether an identity may act on a resource.
type Engine struct {
	assignments AssignmentChecker
}

// NewEngine constructs an Engine with the given assignment collaborator.
func NewEngine(assignments AssignmentChecker) *Engine {
	return &Engine{assignments: assignments}
}

// Authorize evaluates the access rules in precedence order; the first
// matching rule wins:
//
//  1. admin: always allowed
//  2. patient acting on their own records
//  3. the authoring doctor of the specific record (record-scoped only)
//  4. any doctor or staff member assigned to the patient
//  5. otherwise denied
//
// The function performs no I/O of its own; ctx is passed only to the
// assignment collaborator, which may.
func (e *Engine) Authorize(ctx context.Context, caller Identity, res Resource) (Decision, error) {
	if caller.Role == RoleAdmin {
		return Decision{Allowed: true, Reason: ReasonAdminOverride}, nil
	}

	if caller.Role == RolePatient {
		if caller.ID == res.PatientID {
			return Decision{Allowed: true, Reason: ReasonPatientSelf}, nil
		}
		return Decision{Reason: ReasonNotAuthorized}, nil
	}

	if res.recordScoped && caller.Role == RoleDoctor && caller.ID == res.DoctorID {
		return Decision{Allowed: true, Reason: ReasonAuthoringDoctor}, nil
	}

	if caller.Role == RoleDoctor || caller.Role == RoleStaff {
		assigned, err := e.assignments.IsAssigned(ctx, caller.ID, res.PatientID)
		if err != nil {
			return Decision{}, fmt.Errorf("assignment check: %w", err)
		}
		if assigned {
			return Decision{Allowed: true, Reason: ReasonAssignedProvider}, nil
		}
		return Decision{Reason: ReasonNotAuthorized}, nil
	}

	return Decision{Reason: ReasonNotAuthorized}, nil
}

// RequireProviderRole reports whether the caller may create or update
// records. This is a plain capability allow-list, independent of which
// patient the record belongs to.
func RequireProviderRole(caller Identity) bool {
	switch caller.Role {
	case RoleDoctor, RoleStaff, RoleAdmin:
		return true
	}
	return false
}
