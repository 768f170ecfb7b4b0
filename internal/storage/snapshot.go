package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is written into every snapshot envelope. Payloads without an
// envelope are treated as version 0 and decoded as-is.
const SchemaVersion = 1

var (
	ErrUnsupportedSchema = errors.New("unsupported snapshot schema version")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

type envelope struct {
	SchemaVersion *int            `json:"schema_version"`
	SavedAt       time.Time       `json:"saved_at"`
	Data          json.RawMessage `json:"data"`
}

func EncodeSnapshot(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	version := SchemaVersion

	return json.Marshal(envelope{
		SchemaVersion: &version,
		SavedAt:       time.Now().UTC(),
		Data:          data,
	})
}

// DecodeSnapshot unmarshals a stored payload into v and reports the schema
// version it was written with.
func DecodeSnapshot(payload []byte, v any) (int, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("%w: empty payload", ErrMalformedSnapshot)
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
		}

		if env.SchemaVersion != nil {
			version := *env.SchemaVersion
			if version < 1 || version > SchemaVersion {
				return version, fmt.Errorf("%w: %d", ErrUnsupportedSchema, version)
			}

			if len(env.Data) == 0 {
				return version, fmt.Errorf("%w: missing data", ErrMalformedSnapshot)
			}

			if err := json.Unmarshal(env.Data, v); err != nil {
				return version, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
			}

			return version, nil
		}
	}

	if err := json.Unmarshal(trimmed, v); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	return 0, nil
}

// LoadSnapshot reads and decodes a slot. found is false for a missing slot.
func LoadSnapshot(ctx context.Context, store Store, key string, v any) (bool, error) {
	payload, found, err := store.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}

	if _, err := DecodeSnapshot(payload, v); err != nil {
		return false, fmt.Errorf("slot %s: %w", key, err)
	}

	return true, nil
}

func SaveSnapshot(ctx context.Context, store Store, key string, v any) error {
	payload, err := EncodeSnapshot(v)
	if err != nil {
		return fmt.Errorf("slot %s: %w", key, err)
	}

	return store.Set(ctx, key, payload)
}
