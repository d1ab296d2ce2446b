// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import "fmt"

// Fields holds the raw CBOR values of map keys that a typed record did
// not claim. A nil Fields means the record carried no unclaimed keys.
type Fields map[string]RawMessage

// UnmarshalRecord decodes a CBOR map into v and returns the fields of
// the map that v's type does not produce when marshaled. The returned
// Fields round-trip through MarshalRecord, so a record written by a
// newer schema survives a read-modify-write cycle under an older one.
//
// v's type must not use omitempty on its CBOR tags: a key the type
// claims but omits on encode would otherwise be misread as unclaimed.
func UnmarshalRecord(data []byte, v any) (Fields, error) {
	if err := Unmarshal(data, v); err != nil {
		return nil, err
	}

	var stored map[string]RawMessage
	if err := Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("record is not a CBOR map: %w", err)
	}

	claimed, err := Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encoding record for key comparison: %w", err)
	}
	var claimedKeys map[string]RawMessage
	if err := Unmarshal(claimed, &claimedKeys); err != nil {
		return nil, fmt.Errorf("record type does not encode as a CBOR map: %w", err)
	}

	var extra Fields
	for key, raw := range stored {
		if _, ok := claimedKeys[key]; ok {
			continue
		}
		if extra == nil {
			extra = make(Fields)
		}
		extra[key] = raw
	}
	return extra, nil
}

// MarshalRecord encodes v as a CBOR map with the unclaimed fields
// merged back in. Keys produced by v win over same-named extras.
func MarshalRecord(v any, extra Fields) ([]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}

	var merged map[string]RawMessage
	if err := Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("record type does not encode as a CBOR map: %w", err)
	}
	for key, raw := range extra {
		if _, ok := merged[key]; !ok {
			merged[key] = raw
		}
	}
	return Marshal(merged)
}
