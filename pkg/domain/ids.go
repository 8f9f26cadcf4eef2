package domain

import (
	"github.com/google/uuid"

	dErrors "idproof/pkg/domain-errors"
)

// Typed UUIDs keep user, profile, and async-result identifiers from being
// swapped at call sites. Conversions are explicit by design.
type (
	// UserID identifies the account being proofed.
	UserID uuid.UUID

	// ProfileID identifies one proofed identity attached to a user.
	ProfileID uuid.UUID

	// ResultID correlates an async proofing submission with its stored result.
	ResultID uuid.UUID
)

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id ProfileID) String() string { return uuid.UUID(id).String() }
func (id ResultID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ResultID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// NewResultID mints a fresh correlation id for an async submission.
func NewResultID() ResultID { return ResultID(uuid.New()) }

// Text round-tripping keeps typed IDs encoding as canonical UUID strings in
// JSON and other text formats.
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ProfileID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ResultID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = UserID(parsed)
	return nil
}

func (id *ProfileID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = ProfileID(parsed)
	return nil
}

func (id *ResultID) UnmarshalText(data []byte) error {
	parsed, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = ResultID(parsed)
	return nil
}

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

// ParseUserID validates and parses a user id at a trust boundary.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID(uuid.Nil), err
	}
	return UserID(parsed), nil
}

// ParseProfileID validates and parses a profile id at a trust boundary.
func ParseProfileID(raw string) (ProfileID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ProfileID(uuid.Nil), err
	}
	return ProfileID(parsed), nil
}

// ParseResultID validates and parses an async result id at a trust boundary.
func ParseResultID(raw string) (ResultID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ResultID(uuid.Nil), err
	}
	return ResultID(parsed), nil
}
