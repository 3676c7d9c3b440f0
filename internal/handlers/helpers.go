package handlers

import (
	"strings"

	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// parseOptionalParent turns the wire representation of a parent id (absent or
// empty meaning root) into a nullable uuid.
func parseOptionalParent(raw *string) (*uuid.UUID, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	parsed, err := parseUUID(*raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
