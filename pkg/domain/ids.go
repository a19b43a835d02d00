// Package domain holds typed identifiers shared across the portal.
package domain

import (
	"github.com/google/uuid"

	dErrors "clubportal/pkg/domain-errors"
)

// PrincipalID identifies an authenticated member as issued by the auth backend.
type PrincipalID uuid.UUID

// MessageID identifies a dashboard message.
type MessageID uuid.UUID

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id PrincipalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id MessageID) String() string { return uuid.UUID(id).String() }
func (id MessageID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id PrincipalID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id MessageID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *PrincipalID) UnmarshalText(b []byte) error {
	parsed, err := ParsePrincipalID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *MessageID) UnmarshalText(b []byte) error {
	parsed, err := ParseMessageID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewMessageID returns a random message ID.
func NewMessageID() MessageID { return MessageID(uuid.New()) }

// ParsePrincipalID parses and validates a principal ID. Empty, malformed and nil UUIDs
// are rejected with CodeInvalidInput.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parseUUID(s, "principal id")
	return PrincipalID(u), err
}

// ParseMessageID parses and validates a message ID.
func ParseMessageID(s string) (MessageID, error) {
	u, err := parseUUID(s, "message id")
	return MessageID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return u, nil
}
