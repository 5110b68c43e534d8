package registry

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CodecVersion is written into every stored value.
const CodecVersion = 1

// Value kinds stored in Redis.
const (
	KindClient = "client"
	KindEvent  = "event"
	KindGoal   = "goal"
)

var (
	// ErrUnsupportedVersion is returned for values written by an incompatible codec.
	ErrUnsupportedVersion = errors.New("unsupported codec version")
	// ErrKindMismatch is returned when a value decodes to a different kind than expected.
	ErrKindMismatch = errors.New("codec kind mismatch")
)

type envelope struct {
	V    int             `json:"v"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Encode wraps payload in a versioned, kind-tagged JSON envelope. Output is
// deterministic for a given payload, so encoded values can be set members.
func Encode(kind string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", kind, err)
	}
	out, err := json.Marshal(envelope{V: CodecVersion, Kind: kind, Data: data})
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", kind, err)
	}
	return string(out), nil
}

// Decode unwraps a value produced by Encode into out.
func Decode(raw, kind string, out any) error {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return fmt.Errorf("decoding %s: %w", kind, err)
	}
	if env.V != CodecVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.V)
	}
	if env.Kind != kind {
		return fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, kind, env.Kind)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", kind, err)
	}
	return nil
}
