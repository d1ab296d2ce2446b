// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// PrincipalID identifies an account on the messaging transport in
// fully-qualified Matrix form: "@localpart:server". A principal may
// act as a client placing orders, as an artist taking them, or both;
// the two roles share this single identity space.
//
// The zero value is invalid and reports IsZero() == true. Construct
// values with ParsePrincipalID so that every non-zero PrincipalID in
// the program is structurally valid.
type PrincipalID struct {
	id string
}

// ParsePrincipalID validates a raw user ID string and returns the
// typed identifier. The format is "@localpart:server" with a non-empty
// localpart and server name.
func ParsePrincipalID(raw string) (PrincipalID, error) {
	if !strings.HasPrefix(raw, "@") {
		return PrincipalID{}, fmt.Errorf("principal ID %q must start with '@'", raw)
	}
	rest := raw[1:]
	localpart, server, found := strings.Cut(rest, ":")
	if !found {
		return PrincipalID{}, fmt.Errorf("principal ID %q missing ':server' part", raw)
	}
	if localpart == "" {
		return PrincipalID{}, fmt.Errorf("principal ID %q has an empty localpart", raw)
	}
	if server == "" {
		return PrincipalID{}, fmt.Errorf("principal ID %q has an empty server name", raw)
	}
	if strings.ContainsAny(localpart, " \t\n") {
		return PrincipalID{}, fmt.Errorf("principal ID %q contains whitespace", raw)
	}
	return PrincipalID{id: raw}, nil
}

// String returns the fully-qualified user ID string.
func (p PrincipalID) String() string {
	return p.id
}

// IsZero reports whether the identifier is the invalid zero value.
func (p PrincipalID) IsZero() bool {
	return p.id == ""
}

// Localpart returns the part between '@' and the first ':'.
func (p PrincipalID) Localpart() string {
	localpart, _, _ := strings.Cut(strings.TrimPrefix(p.id, "@"), ":")
	return localpart
}

// MarshalText implements encoding.TextMarshaler.
func (p PrincipalID) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return nil, fmt.Errorf("cannot marshal zero PrincipalID")
	}
	return []byte(p.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PrincipalID) UnmarshalText(data []byte) error {
	parsed, err := ParsePrincipalID(string(data))
	if err != nil {
		return fmt.Errorf("unmarshal PrincipalID: %w", err)
	}
	*p = parsed
	return nil
}
