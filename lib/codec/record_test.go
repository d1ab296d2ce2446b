// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type testRecord struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name"`
}

func TestMarshalDeterministic(t *testing.T) {
	record := testRecord{ID: "a", Name: "b"}
	first, err := Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical values produced different encodings")
	}
}

func TestUnmarshalRecordCapturesUnclaimedFields(t *testing.T) {
	// Simulate a record written by a newer schema with a "color" field
	// this version of testRecord does not know about.
	stored, err := Marshal(map[string]any{
		"id":    "a1",
		"name":  "ink",
		"color": "vermilion",
	})
	if err != nil {
		t.Fatal(err)
	}

	var decoded testRecord
	extra, err := UnmarshalRecord(stored, &decoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ID != "a1" || decoded.Name != "ink" {
		t.Fatalf("decoded = %+v", decoded)
	}
	if len(extra) != 1 {
		t.Fatalf("extra = %v, want exactly the color field", extra)
	}
	if _, ok := extra["color"]; !ok {
		t.Fatalf("extra = %v, missing color", extra)
	}
}

func TestUnmarshalRecordNoExtrasReturnsNil(t *testing.T) {
	stored, err := Marshal(testRecord{ID: "a1", Name: "ink"})
	if err != nil {
		t.Fatal(err)
	}
	var decoded testRecord
	extra, err := UnmarshalRecord(stored, &decoded)
	if err != nil {
		t.Fatal(err)
	}
	if extra != nil {
		t.Fatalf("extra = %v, want nil", extra)
	}
}

func TestMarshalRecordRoundTripPreservesUnclaimedFields(t *testing.T) {
	stored, err := Marshal(map[string]any{
		"id":    "a1",
		"name":  "ink",
		"color": "vermilion",
	})
	if err != nil {
		t.Fatal(err)
	}

	var decoded testRecord
	extra, err := UnmarshalRecord(stored, &decoded)
	if err != nil {
		t.Fatal(err)
	}

	// Modify a claimed field and re-encode.
	decoded.Name = "wash"
	rewritten, err := MarshalRecord(decoded, extra)
	if err != nil {
		t.Fatal(err)
	}

	var check map[string]any
	if err := Unmarshal(rewritten, &check); err != nil {
		t.Fatal(err)
	}
	if check["name"] != "wash" {
		t.Errorf("name = %v, want wash", check["name"])
	}
	if check["color"] != "vermilion" {
		t.Errorf("color = %v, want vermilion (unclaimed field lost)", check["color"])
	}
}

func TestMarshalRecordClaimedKeyWins(t *testing.T) {
	record := testRecord{ID: "a1", Name: "ink"}
	rewritten, err := MarshalRecord(record, Fields{
		"name": mustMarshal(t, "stale"),
	})
	if err != nil {
		t.Fatal(err)
	}
	var check map[string]any
	if err := Unmarshal(rewritten, &check); err != nil {
		t.Fatal(err)
	}
	if check["name"] != "ink" {
		t.Errorf("name = %v, want the claimed value to win", check["name"])
	}
}

func TestUnmarshalRecordRejectsNonMap(t *testing.T) {
	stored, err := Marshal([]string{"not", "a", "map"})
	if err != nil {
		t.Fatal(err)
	}
	var decoded testRecord
	if _, err := UnmarshalRecord(stored, &decoded); err == nil {
		t.Fatal("UnmarshalRecord on a CBOR array succeeded, want error")
	}
}

func mustMarshal(t *testing.T, v any) RawMessage {
	t.Helper()
	data, err := Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
