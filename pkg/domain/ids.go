// Package domain defines the typed identifiers shared across the module.
//
// Each entity gets its own UUID-backed type so the compiler rejects
// cross-entity mixups (passing a UnitID where a PractitionerID is expected).
// Parse helpers enforce the boundary invariant: IDs must be valid, non-nil
// UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "cpdtrack/pkg/domain-errors"
)

type (
	// PractitionerID identifies a licensed practitioner.
	PractitionerID uuid.UUID
	// UnitID identifies the organizational unit that owns a practitioner.
	UnitID uuid.UUID
	// CatalogID identifies an activity catalog entry.
	CatalogID uuid.UUID
	// SubmissionID identifies a credit submission record.
	SubmissionID uuid.UUID
	// RuleID identifies a credit rule.
	RuleID uuid.UUID
	// UserID identifies an acting user (submitter, approver, administrator).
	UserID uuid.UUID
)

func (id PractitionerID) String() string { return uuid.UUID(id).String() }
func (id UnitID) String() string         { return uuid.UUID(id).String() }
func (id CatalogID) String() string      { return uuid.UUID(id).String() }
func (id SubmissionID) String() string   { return uuid.UUID(id).String() }
func (id RuleID) String() string         { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }

func (id PractitionerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UnitID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CatalogID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

// NewPractitionerID returns a fresh random PractitionerID.
func NewPractitionerID() PractitionerID { return PractitionerID(uuid.New()) }

// NewUnitID returns a fresh random UnitID.
func NewUnitID() UnitID { return UnitID(uuid.New()) }

// NewCatalogID returns a fresh random CatalogID.
func NewCatalogID() CatalogID { return CatalogID(uuid.New()) }

// NewSubmissionID returns a fresh random SubmissionID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// NewRuleID returns a fresh random RuleID.
func NewRuleID() RuleID { return RuleID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParsePractitionerID parses and validates a practitioner id from its string form.
func ParsePractitionerID(raw string) (PractitionerID, error) {
	u, err := parseUUID(raw)
	return PractitionerID(u), err
}

// ParseUnitID parses and validates a unit id from its string form.
func ParseUnitID(raw string) (UnitID, error) {
	u, err := parseUUID(raw)
	return UnitID(u), err
}

// ParseCatalogID parses and validates a catalog id from its string form.
func ParseCatalogID(raw string) (CatalogID, error) {
	u, err := parseUUID(raw)
	return CatalogID(u), err
}

// ParseSubmissionID parses and validates a submission id from its string form.
func ParseSubmissionID(raw string) (SubmissionID, error) {
	u, err := parseUUID(raw)
	return SubmissionID(u), err
}

// ParseUserID parses and validates a user id from its string form.
func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw)
	return UserID(u), err
}
