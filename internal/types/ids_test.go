// internal/types/ids_test.go
package types

import (
	"testing"
)

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	if id == "" {
		t.Error("expected non-empty RequestID")
	}
	if len(string(id)) != 36 {
		t.Errorf("expected UUID format, got %s", id)
	}
	if NewRequestID() == id {
		t.Error("expected distinct request ids")
	}
}
