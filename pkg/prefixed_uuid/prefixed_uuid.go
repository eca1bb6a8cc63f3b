// Package prefixed_uuid provides UUID generation with customisable prefixes,
// used for human-scannable identifiers in logs.
package prefixed_uuid //nolint:revive // var-naming: using underscores for domain clarity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PrefixedUUID represents a UUID with a prefix string.
type PrefixedUUID struct {
	Prefix string
	UUID   uuid.UUID
}

// New creates a new PrefixedUUID with the given prefix and a generated UUID.
func New(prefix string) PrefixedUUID {
	return PrefixedUUID{
		Prefix: prefix,
		UUID:   uuid.New(),
	}
}

// FromString parses a prefixed UUID string in the format "prefix-uuid".
func FromString(s string) (PrefixedUUID, error) {
	idx := strings.Index(s, "-")
	if idx == -1 {
		return PrefixedUUID{}, fmt.Errorf("invalid prefixed UUID format: %s", s)
	}

	parsedUUID, err := uuid.Parse(s[idx+1:])
	if err != nil {
		return PrefixedUUID{}, fmt.Errorf("invalid UUID: %w", err)
	}

	return PrefixedUUID{
		Prefix: s[:idx],
		UUID:   parsedUUID,
	}, nil
}

// String implements the fmt.Stringer interface.
// It returns the prefixed UUID in the format "prefix-uuid".
func (p PrefixedUUID) String() string {
	return fmt.Sprintf("%s-%s", p.Prefix, p.UUID.String())
}

// IsZero returns true if the PrefixedUUID is uninitialized (zero value).
func (p PrefixedUUID) IsZero() bool {
	return p.Prefix == "" && p.UUID == uuid.Nil
}
