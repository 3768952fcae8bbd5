package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode unmarshals a backend payload into out. The backend answers either
// {"data": T} or a bare T; both are accepted.
func Decode(raw []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if data, ok := unwrapData(raw); ok {
		raw = data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// DecodeList extracts a list that may be wrapped in an envelope and then in a
// named field, e.g. {"data":{"appointments":[...]}} or {"appointments":[...]} or [...].
func DecodeList(raw []byte, out interface{}, keys ...string) error {
	raw = bytes.TrimSpace(raw)
	if data, ok := unwrapData(raw); ok {
		raw = data
	}
	if len(raw) > 0 && raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		found := false
		for _, key := range keys {
			if v, ok := obj[key]; ok {
				raw = v
				found = true
				break
			}
		}
		if !found {
			raw = []byte("[]")
		}
	}
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("[]")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func unwrapData(raw []byte) (json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, false
	}
	return env.Data, true
}

// errorMessage pulls {"message": "..."} (or {"error": "..."}) out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
