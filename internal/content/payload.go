package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ParseRecords unmarshals the records of a content API response. Accepted
// shapes are {"data": [...]}, {"data": {...}}, {"data": null} and a bare array.
func ParseRecords(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, errors.New("empty content payload")
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal content payload: %w", err)
	}
	data := bytes.TrimSpace(envelope.Data)
	switch {
	case len(data) == 0:
		return nil, errors.New("content payload has no data field")
	case bytes.Equal(data, []byte("null")):
		return nil, nil
	case data[0] == '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("unmarshal content records: %w", err)
		}
		return records, nil
	case data[0] == '{':
		return []json.RawMessage{data}, nil
	default:
		return nil, fmt.Errorf("content payload data is neither a list nor an object: %.40s", data)
	}
}

// decodeRecords decodes each record into T. Raw catalog records never fail to
// decode, so every input record yields one output value.
func decodeRecords[T any](records []json.RawMessage) []T {
	out := make([]T, len(records))
	for i, raw := range records {
		_ = json.Unmarshal(raw, &out[i])
	}
	return out
}
