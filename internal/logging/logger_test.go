package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledModeIsNoop(t *testing.T) {
	t.Cleanup(CloseAll)
	require.NoError(t, Initialize("", Config{DebugMode: false}))
	assert.False(t, IsDebugMode())

	// No directory, no files, no panic.
	Orchestrator("phase %s succeeded", "login")
	Browser("clicked %s", "publish_button")
	assert.False(t, IsCategoryEnabled(CategoryBrowser))
}

func TestDebugModeWritesCategoryFiles(t *testing.T) {
	t.Cleanup(CloseAll)
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "debug"}))

	Orchestrator("task %s started", "abc")
	OrchestratorDebug("retry %d", 2)
	CloseAll()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var found string
	for _, e := range entries {
		if strings.Contains(e.Name(), string(CategoryOrchestrator)) {
			found = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, found, "orchestrator log file exists")

	data, err := os.ReadFile(found)
	require.NoError(t, err)
	assert.Contains(t, string(data), "task abc started")
	assert.Contains(t, string(data), "retry 2")
}

func TestLevelFiltering(t *testing.T) {
	t.Cleanup(CloseAll)
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "warn"}))

	Browser("info is filtered")
	BrowserWarn("warn passes")
	CloseAll()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var content string
	for _, e := range entries {
		if strings.Contains(e.Name(), string(CategoryBrowser)) {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			content = string(data)
		}
	}
	assert.NotContains(t, content, "info is filtered")
	assert.Contains(t, content, "warn passes")
}

func TestCategoryToggle(t *testing.T) {
	t.Cleanup(CloseAll)
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{
		DebugMode:  true,
		Categories: map[string]bool{"vision": false},
	}))

	assert.False(t, IsCategoryEnabled(CategoryVision))
	assert.True(t, IsCategoryEnabled(CategoryBrowser))
}

func TestDebugModeRequiresDirectory(t *testing.T) {
	t.Cleanup(CloseAll)
	require.Error(t, Initialize("", Config{DebugMode: true}))
}

func TestConcurrentInitializeAndEmit(t *testing.T) {
	// Reconfiguration while other goroutines log; the race detector flags
	// any unguarded read of the shared config.
	t.Cleanup(CloseAll)
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "debug"}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Orchestrator("message %d", j)
				BrowserDebug("detail %d", j)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			_ = Initialize(dir, Config{DebugMode: true, Level: "warn", JSONFormat: j%2 == 0})
		}
	}()
	wg.Wait()
}

func TestTimer(t *testing.T) {
	t.Cleanup(CloseAll)
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "debug"}))

	timer := StartTimer(CategoryVision, "plan")
	time.Sleep(5 * time.Millisecond)
	elapsed := timer.Stop()
	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
}
