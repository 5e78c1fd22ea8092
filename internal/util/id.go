package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random 32-character hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewPrefixedID returns "<prefix>-<hex id>", or a bare id when prefix is empty.
func NewPrefixedID(prefix string) string {
	if prefix == "" {
		return NewID()
	}
	return prefix + "-" + NewID()
}
