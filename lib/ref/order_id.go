// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
)

// OrderID identifies an order. IDs are time-derived (seconds since the
// Unix epoch at creation) and strictly increasing: the assignment
// subsystem bumps past the highest existing ID when the clock collides
// with or lags behind an earlier order, so an ID is never reused even
// across process restarts.
//
// The zero value means "no order".
type OrderID int64

// ParseOrderID parses the decimal string form of an order ID.
func ParseOrderID(raw string) (OrderID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("order ID %q is not a decimal integer", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("order ID must be positive, got %d", n)
	}
	return OrderID(n), nil
}

// String returns the decimal form of the ID.
func (o OrderID) String() string {
	return strconv.FormatInt(int64(o), 10)
}

// IsZero reports whether the ID is unset.
func (o OrderID) IsZero() bool {
	return o == 0
}

// MarshalText implements encoding.TextMarshaler.
func (o OrderID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OrderID) UnmarshalText(data []byte) error {
	parsed, err := ParseOrderID(string(data))
	if err != nil {
		return fmt.Errorf("unmarshal OrderID: %w", err)
	}
	*o = parsed
	return nil
}
