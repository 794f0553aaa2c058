//go:build unix

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-web/internal/weather"
)

// processGone reports whether pid no longer runs. A zombie waiting for its
// new parent to reap it counts as gone.
func processGone(pid int) bool {
	if err := syscall.Kill(pid, 0); err != nil {
		return true
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	// Format: pid (comm) state ...
	fields := strings.Fields(string(stat[strings.LastIndexByte(string(stat), ')')+1:]))
	return len(fields) > 0 && fields[0] == "Z"
}

func TestSpawnSourceTimeoutWithoutExec(t *testing.T) {
	bin := writeScript(t, "sleep 7\necho '{}'")
	src := NewSpawnSource(SpawnOptions{Binary: bin, ConfigPath: "cfg.yaml", Timeout: 200 * time.Millisecond})

	start := time.Now()
	_, err := src.Fetch(context.Background())
	requireKind(t, err, weather.KindTimeout)
	assert.Less(t, time.Since(start), 1500*time.Millisecond, "must not wait for the pipe drain delay")
}

func TestSpawnSourceTimeoutKillsDescendants(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "sleep.pid")
	bin := writeScript(t, fmt.Sprintf("sleep 7 &\necho $! > %s\nwait\necho '{}'", pidFile))
	src := NewSpawnSource(SpawnOptions{Binary: bin, ConfigPath: "cfg.yaml", Timeout: 300 * time.Millisecond})

	start := time.Now()
	_, err := src.Fetch(context.Background())
	requireKind(t, err, weather.KindTimeout)
	assert.Less(t, time.Since(start), 1500*time.Millisecond)

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return processGone(pid) }, 2*time.Second, 20*time.Millisecond,
		"background sleep %d still running after timeout", pid)
}
