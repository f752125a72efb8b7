package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects logger output to a buffer for one test.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose_Toggles(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLogging_Formats(t *testing.T) {
	buf := capture(t, true)

	Debug("retrieved %d documents", 3)
	Info("indexed %s", "note.md")
	Warn("embedding failed")
	Section("Retrieval")

	assert.Equal(t,
		"[DEBUG] retrieved 3 documents\n"+
			"[INFO] indexed note.md\n"+
			"[WARN] embedding failed\n"+
			"\n=== Retrieval ===\n",
		buf.String())
}

func TestLogging_SilentWhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	assert.Zero(t, buf.Len())
}

func TestLogging_ConcurrentUse(t *testing.T) {
	capture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debug("worker %d", n)
			IsVerbose()
			SetVerbose(true)
		}(i)
	}
	wg.Wait()
}
