package weather

import (
	"encoding/json"
	"errors"
	"time"
)

var errNotObject = errors.New("payload is not a JSON object")

// Required top-level keys of every payload served to clients.
const (
	KeyCurrent   = "current"
	KeyForecasts = "forecasts"
)

// Payload is the weather document produced by a Fetcher.
// Only the presence of the required keys is interpreted; everything else
// is passed through to callers unchanged.
type Payload map[string]any

// ParsePayload decodes raw JSON into a Payload.
// A document that is not a JSON object is rejected.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p == nil {
		// "null" decodes without error into a nil map.
		return nil, errNotObject
	}
	return p, nil
}

// Validate checks that the payload carries both required keys.
func (p Payload) Validate() error {
	if _, ok := p[KeyCurrent]; !ok {
		return &ValidationError{Missing: KeyCurrent}
	}
	if _, ok := p[KeyForecasts]; !ok {
		return &ValidationError{Missing: KeyForecasts}
	}
	return nil
}

// Snapshot pairs a payload with the time it was stored.
type Snapshot struct {
	Payload  Payload
	StoredAt time.Time
}

// Age returns how long ago the snapshot was stored, relative to now.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.StoredAt)
}
