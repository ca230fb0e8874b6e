package idempotency

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotSerializable = errors.New("idempotency: entry not serializable")

// Entry is the durable record of a completed request, stored as JSON in the
// shared cache and replayed verbatim on retries.
type Entry struct {
	StatusCode int               `json:"statusCode"`
	Body       json.RawMessage   `json:"body"`
	Headers    map[string]string `json:"headers"`
	Timestamp  int64             `json:"timestamp"` // epoch milliseconds
}

func NewEntry(statusCode int, body []byte, headers map[string]string) (*Entry, error) {
	const op = "idempotency.NewEntry"

	if len(body) > 0 && !json.Valid(body) {
		return nil, fmt.Errorf("%s: %w: response body is not valid JSON", op, ErrNotSerializable)
	}

	return &Entry{
		StatusCode: statusCode,
		Body:       json.RawMessage(body),
		Headers:    headers,
		Timestamp:  time.Now().UnixMilli(),
	}, nil
}

func (e *Entry) Encode() (string, error) {
	const op = "idempotency.Entry.Encode"

	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrNotSerializable, err)
	}

	return string(data), nil
}

func DecodeEntry(data string) (*Entry, error) {
	const op = "idempotency.DecodeEntry"

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrNotSerializable, err)
	}

	// a manually inserted or truncated value can parse as JSON without being
	// a usable entry; replaying it would call WriteHeader with a bogus code
	if entry.StatusCode < 100 || entry.StatusCode > 599 {
		return nil, fmt.Errorf("%s: %w: status code %d out of range", op, ErrNotSerializable, entry.StatusCode)
	}

	return &entry, nil
}
