// Package domain hosts small domain primitives shared across modules.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// RequestID identifies a stored validation request record.
// Distinct from the caller-supplied correlation id, which is an opaque
// string used only for idempotent deduplication.
type RequestID uuid.UUID

// NewRequestID returns a fresh random RequestID.
func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

// ParseRequestID validates and returns a RequestID from its string form.
func ParseRequestID(s string) (RequestID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RequestID{}, fmt.Errorf("parse request id: %w", err)
	}
	return RequestID(u), nil
}

func (id RequestID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id is the zero value.
func (id RequestID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// ActorSystem tags action-log entries written by the automatic pipeline
// rather than a human reviewer.
const ActorSystem = "SYSTEM"
