package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/i474232898/weather-web/internal/weather"
)

// Default limits for the spawned fetcher.
const (
	DefaultSpawnTimeout = 90 * time.Second

	// waitDelay bounds how long we wait for stdout/stderr to drain after the
	// child is killed, for descendants that left its process group.
	waitDelay = 2 * time.Second
)

const genericProcessFailure = "weather fetcher failed"

// CommandRunner executes an external command and returns its stdout, stderr, and error.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// execRunner is the default CommandRunner backed by exec.CommandContext.
// When ctx is done the child's process group is killed; the child is always
// reaped before Run returns.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// SpawnOptions configures a SpawnSource.
type SpawnOptions struct {
	Binary     string        // Executable printing the payload as JSON on stdout.
	ConfigPath string        // Passed to the executable as --config.
	Timeout    time.Duration // Hard limit per invocation (default: 90s).
	Runner     CommandRunner // Defaults to running the real process.
}

// SpawnSource produces the payload by running an external executable.
type SpawnSource struct {
	binary     string
	configPath string
	timeout    time.Duration
	runner     CommandRunner
}

// NewSpawnSource creates a SpawnSource from opts.
func NewSpawnSource(opts SpawnOptions) *SpawnSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSpawnTimeout
	}
	runner := opts.Runner
	if runner == nil {
		runner = execRunner{}
	}
	return &SpawnSource{
		binary:     opts.Binary,
		configPath: opts.ConfigPath,
		timeout:    timeout,
		runner:     runner,
	}
}

// Args returns the argument list passed to the executable.
func (s *SpawnSource) Args() []string {
	return []string{"--config", s.configPath}
}

func (s *SpawnSource) Fetch(ctx context.Context) (weather.Payload, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stdout, stderr, err := s.runner.Run(runCtx, s.binary, s.Args()...)
	if err != nil {
		// The caller giving up is not a fetcher failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, weather.NewFetchError(weather.KindTimeout,
				"weather fetcher timed out after "+s.timeout.String(), nil)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(string(stderr))
			if detail == "" {
				detail = genericProcessFailure
			}
			return nil, weather.NewFetchError(weather.KindProcessFailed, detail, nil)
		}
		return nil, weather.NewFetchError(weather.KindIO, "start "+s.binary, err)
	}

	payload, err := weather.ParsePayload(stdout)
	if err != nil {
		return nil, weather.NewFetchError(weather.KindParse, "decode weather fetcher output", err)
	}
	return payload, nil
}
