package source

import (
	"context"
	"os"

	"github.com/i474232898/weather-web/internal/weather"
)

// FileSource reads the payload from a JSON file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource reading path on every fetch.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file being read.
func (f *FileSource) Path() string {
	return f.path
}

func (f *FileSource) Fetch(ctx context.Context) (weather.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, weather.NewFetchError(weather.KindIO, "read "+f.path, err)
	}

	payload, err := weather.ParsePayload(raw)
	if err != nil {
		return nil, weather.NewFetchError(weather.KindParse, "decode "+f.path, err)
	}
	return payload, nil
}
