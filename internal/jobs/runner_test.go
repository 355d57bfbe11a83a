package jobs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyricforge/lyricforge-api/internal/synth"
)

type fakeLedger struct {
	mu      sync.Mutex
	balance int
	debits  int
	refunds int
}

func (f *fakeLedger) TryDebit(_ uint, amount int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balance < amount {
		return false, nil
	}
	f.balance -= amount
	f.debits++
	return true, nil
}

func (f *fakeLedger) Refund(_ uint, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance += amount
	f.refunds++
	return nil
}

// writeScript installs a fake worker executable for the runner to spawn.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const validResultDoc = `{"success":true,"sample_rate":22050,"duration":20,` +
	`"audio_path":"$SYNTHWORKER_OUT","preview":[0,0.1],` +
	`"metadata":{"lyrics":"x","genre":"pop","tempo":120,"key":"C major",` +
	`"melody_notes":["C"],"structure":["Intro","Verse","Chorus","Verse","Chorus","Bridge","Chorus","Outro"]}}`

func newTestRunner(t *testing.T, ledger CreditLedger, script string) *Runner {
	t.Helper()
	return NewRunner(ledger, Options{
		WorkerPath:     script,
		ScratchDir:     t.TempDir(),
		ComposeTimeout: 2 * time.Second,
	})
}

func composeRequest() synth.Request {
	return synth.Request{Lyrics: "I love you more each day", Genre: "pop", Tempo: 120, Key: "C major"}
}

func TestComposeCompleted(t *testing.T) {
	script := writeScript(t, `printf 'RIFFfakewav' > "$SYNTHWORKER_OUT"
echo '`+validResultDoc+`'
`)
	ledger := &fakeLedger{balance: 10}
	runner := newTestRunner(t, ledger, script)

	outcome, err := runner.Compose(context.Background(), 1, composeRequest())
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, outcome.Kind)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, 22050, outcome.Result.SampleRate)
	assert.Equal(t, []byte("RIFFfakewav"), outcome.Audio)
	assert.False(t, outcome.Refunded)

	// Debit stands on success.
	assert.Equal(t, 9, ledger.balance)
	assert.Equal(t, 0, ledger.refunds)
}

func TestComposeScratchRemovedOnSuccess(t *testing.T) {
	script := writeScript(t, `printf 'RIFFfakewav' > "$SYNTHWORKER_OUT"
echo '`+validResultDoc+`'
`)
	scratchDir := t.TempDir()
	runner := NewRunner(&fakeLedger{balance: 10}, Options{
		WorkerPath: script,
		ScratchDir: scratchDir,
	})

	_, err := runner.Compose(context.Background(), 1, composeRequest())
	require.NoError(t, err)

	entries, err := os.ReadDir(scratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch WAV should be removed after its bytes are captured")
}

func TestComposeTimeout(t *testing.T) {
	script := writeScript(t, `sleep 5`)
	ledger := &fakeLedger{balance: 10}
	runner := NewRunner(ledger, Options{
		WorkerPath:     script,
		ScratchDir:     t.TempDir(),
		ComposeTimeout: 100 * time.Millisecond,
	})

	start := time.Now()
	outcome, err := runner.Compose(context.Background(), 1, composeRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimedOut, outcome.Kind)
	assert.True(t, outcome.Refunded)
	// Compose returns only after the worker process has been killed and
	// reaped; it must not wait out the full sleep.
	assert.Less(t, time.Since(start), 3*time.Second, "worker was not terminated at the ceiling")

	// Refund restores the original debit.
	assert.Equal(t, 10, ledger.balance)
	assert.Equal(t, 1, ledger.refunds)
}

func TestComposeCrashed(t *testing.T) {
	script := writeScript(t, `echo 'oscillator bank exploded' >&2
exit 3`)
	ledger := &fakeLedger{balance: 10}
	runner := newTestRunner(t, ledger, script)

	outcome, err := runner.Compose(context.Background(), 1, composeRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCrashed, outcome.Kind)
	assert.Equal(t, 3, outcome.ExitCode)
	assert.Contains(t, outcome.Diagnostic, "oscillator bank exploded")
	assert.True(t, outcome.Refunded)
	assert.Equal(t, 10, ledger.balance)
}

func TestComposeMalformedOutput(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "not json", script: `echo 'this is not a result document'`},
		{name: "two documents", script: `echo '{"success":true}'
echo '{"success":true}'`},
		{name: "success false with zero exit", script: `echo '{"success":false}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{balance: 10}
			runner := newTestRunner(t, ledger, writeScript(t, tt.script))

			outcome, err := runner.Compose(context.Background(), 1, composeRequest())
			require.NoError(t, err)

			assert.Equal(t, OutcomeMalformed, outcome.Kind)
			assert.NotEmpty(t, outcome.RawOutput)
			assert.True(t, outcome.Refunded)
			assert.Equal(t, 10, ledger.balance)
		})
	}
}

func TestComposeMissingArtifact(t *testing.T) {
	// Worker claims success but never writes the WAV.
	script := writeScript(t, `echo '`+validResultDoc+`'`)
	ledger := &fakeLedger{balance: 10}
	runner := newTestRunner(t, ledger, script)

	outcome, err := runner.Compose(context.Background(), 1, composeRequest())
	require.NoError(t, err)

	assert.Equal(t, OutcomeMalformed, outcome.Kind)
	assert.Contains(t, outcome.Diagnostic, "artifact")
	assert.True(t, outcome.Refunded)
}

func TestComposeEmptyLyricsRejectedBeforeDebit(t *testing.T) {
	ledger := &fakeLedger{balance: 10}
	runner := newTestRunner(t, ledger, "/nonexistent/worker")

	for _, lyrics := range []string{"", "   ", "\t\n"} {
		_, err := runner.Compose(context.Background(), 1, synth.Request{Lyrics: lyrics, Genre: "pop", Tempo: 120, Key: "C major"})
		assert.ErrorIs(t, err, synth.ErrEmptyLyrics)
	}
	assert.Equal(t, 0, ledger.debits, "no debit may occur for invalid input")
	assert.Equal(t, 10, ledger.balance)
}

func TestComposeInsufficientCredits(t *testing.T) {
	ledger := &fakeLedger{balance: 0}
	runner := newTestRunner(t, ledger, "/nonexistent/worker")

	_, err := runner.Compose(context.Background(), 1, composeRequest())
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Equal(t, 0, ledger.refunds)
}

func TestCleanupAppliesExactlyOnce(t *testing.T) {
	ledger := &fakeLedger{balance: 10}
	j := &job{
		userID:  1,
		cost:    1,
		scratch: filepath.Join(t.TempDir(), "scratch.wav"),
		ledger:  ledger,
	}
	require.NoError(t, os.WriteFile(j.scratch, []byte("x"), 0o600))

	// Simulate racing failure signals invoking cleanup twice.
	j.cleanupFailure()
	j.cleanupFailure()

	assert.Equal(t, 1, ledger.refunds, "refund must apply exactly once")
	assert.Equal(t, 11, ledger.balance)
	_, statErr := os.Stat(j.scratch)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConcurrentComposes(t *testing.T) {
	script := writeScript(t, `printf 'RIFFfakewav' > "$SYNTHWORKER_OUT"
echo '`+validResultDoc+`'
`)
	ledger := &fakeLedger{balance: 100}
	runner := newTestRunner(t, ledger, script)

	var wg sync.WaitGroup
	const n = 8
	outcomes := make([]*Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := runner.Compose(context.Background(), uint(i+1), composeRequest())
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	for i, outcome := range outcomes {
		if assert.NotNilf(t, outcome, "job %d", i) {
			assert.Equalf(t, OutcomeCompleted, outcome.Kind, "job %d", i)
		}
	}
	assert.Equal(t, 100-n, ledger.balance)
}
