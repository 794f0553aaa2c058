package weather

import (
	"context"
	"time"
)

// Fetcher abstracts the source of weather payloads (a local file or an external process).
type Fetcher interface {
	Fetch(ctx context.Context) (Payload, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (Payload, error)

func (f FetcherFunc) Fetch(ctx context.Context) (Payload, error) {
	return f(ctx)
}

// Store is the contract the single-slot cache must satisfy.
type Store interface {
	Save(payload Payload, storedAt time.Time)
	Load() (Snapshot, bool)
}
