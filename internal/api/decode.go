package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnwrapSingle returns the only element of a one-element JSON list and
// returns anything else unchanged, including empty lists.
func UnwrapSingle(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return raw
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return raw
	}
	if len(items) == 1 {
		return items[0]
	}
	return raw
}

// DecodeRows decodes a row listing into out, which must point to a slice.
// A single object is treated as a one-row listing and null as no rows.
func DecodeRows(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if isEmpty(raw) {
		return nil
	}
	if raw[0] == '{' {
		raw = append(append([]byte{'['}, raw...), ']')
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode rows: %w", err)
	}
	return nil
}

// DecodeOne decodes a single row into out. A list yields its first element;
// null or an empty list reports found=false.
func DecodeOne(raw json.RawMessage, out any) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if isEmpty(raw) {
		return false, nil
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return false, fmt.Errorf("failed to decode row: %w", err)
		}
		if len(items) == 0 || isEmpty(items[0]) {
			return false, nil
		}
		raw = items[0]
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode row: %w", err)
	}
	return true, nil
}

func pageRows(res json.RawMessage) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if err := DecodeRows(UnwrapSingle(res), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
