// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

// RequestID identifies a single completion request in logs and in the
// streamed response.
type RequestID string

func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}
