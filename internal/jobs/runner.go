// Package jobs runs the synthesis engine as a bounded external job: one
// worker subprocess per request, a hard wall-clock ceiling, structured
// capture of the result, and guaranteed cleanup (scratch artifact removal
// and credit refund) on every failure path.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lyricforge/lyricforge-api/internal/logger"
	"github.com/lyricforge/lyricforge-api/internal/synth"
)

const (
	// DefaultComposeTimeout is the ceiling for a full composition job.
	DefaultComposeTimeout = 120 * time.Second
	// DefaultSingleFileTimeout is the ceiling for simpler single-file
	// operations (e.g. analysis of an uploaded track).
	DefaultSingleFileTimeout = 60 * time.Second

	// DefaultCreditCost is the flat per-composition debit.
	DefaultCreditCost = 1
)

// ErrInsufficientCredits is returned when the ledger declines the debit.
// No worker is spawned in that case.
var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditLedger is the runner's view of the billing system. TryDebit must be
// atomic; Refund must tolerate being retried by the caller but the runner
// itself guarantees it is invoked at most once per job.
type CreditLedger interface {
	TryDebit(userID uint, amount int) (bool, error)
	Refund(userID uint, amount int) error
}

// Options configures a Runner. Zero values fall back to defaults.
type Options struct {
	WorkerPath     string        // path to the synthworker binary
	ScratchDir     string        // directory for scratch WAV files
	ComposeTimeout time.Duration // wall-clock ceiling per composition
	CreditCost     int           // credits debited per composition
}

func (o Options) withDefaults() Options {
	if o.ScratchDir == "" {
		o.ScratchDir = os.TempDir()
	}
	if o.ComposeTimeout <= 0 {
		o.ComposeTimeout = DefaultComposeTimeout
	}
	if o.CreditCost <= 0 {
		o.CreditCost = DefaultCreditCost
	}
	return o
}

// Runner launches and supervises worker subprocesses. It is safe for
// concurrent use: each job owns its own scratch path and state.
type Runner struct {
	opts   Options
	ledger CreditLedger
}

func NewRunner(ledger CreditLedger, opts Options) *Runner {
	return &Runner{opts: opts.withDefaults(), ledger: ledger}
}

// job is the per-invocation state machine. cleanup and refund are guarded
// so that racing failure signals (a timeout and a late crash, say) apply
// them exactly once.
type job struct {
	userID  uint
	cost    int
	scratch string
	state   State

	ledger     CreditLedger
	refundOnce sync.Once
	removeOnce sync.Once
	refunded   bool
}

func (j *job) transition(s State) { j.state = s }

// cleanupFailure removes the scratch artifact and refunds the debit. Safe
// to call more than once; both effects apply exactly once.
func (j *job) cleanupFailure() {
	j.removeScratch()
	j.refundOnce.Do(func() {
		if err := j.ledger.Refund(j.userID, j.cost); err != nil {
			logger.Error("credit refund failed", err, logger.Fields{
				"user_id": j.userID,
				"credits": j.cost,
			})
			return
		}
		j.refunded = true
	})
}

func (j *job) removeScratch() {
	j.removeOnce.Do(func() {
		if err := os.Remove(j.scratch); err != nil && !os.IsNotExist(err) {
			logger.Warn("scratch artifact removal failed", logger.Fields{
				"path":  j.scratch,
				"error": err.Error(),
			})
		}
	})
}

// Compose runs one composition request as a bounded worker job.
//
// It returns an error only for conditions that precede the worker: empty
// lyrics and a declined debit. Everything after the spawn (success,
// timeout, crash, protocol violation) is reported as an Outcome, with the
// debit refunded on every non-completed kind.
func (r *Runner) Compose(ctx context.Context, userID uint, req synth.Request) (*Outcome, error) {
	lyrics := strings.TrimSpace(req.Lyrics)
	if lyrics == "" {
		return nil, synth.ErrEmptyLyrics
	}

	ok, err := r.ledger.TryDebit(userID, r.opts.CreditCost)
	if err != nil {
		return nil, fmt.Errorf("debiting credits: %w", err)
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	j := &job{
		userID:  userID,
		cost:    r.opts.CreditCost,
		scratch: filepath.Join(r.opts.ScratchDir, fmt.Sprintf("song-%s.wav", uuid.New().String())),
		state:   StateIdle,
		ledger:  r.ledger,
	}

	outcome := r.runWorker(ctx, j, lyrics, req)
	outcome.Refunded = j.refunded
	return outcome, nil
}

func (r *Runner) runWorker(ctx context.Context, j *job, lyrics string, req synth.Request) *Outcome {
	workerCtx, cancel := context.WithTimeout(ctx, r.opts.ComposeTimeout)
	defer cancel()

	cmd := exec.CommandContext(workerCtx, r.opts.WorkerPath,
		"generate", lyrics, req.Genre, strconv.Itoa(req.Tempo), req.Key)
	cmd.Env = append(os.Environ(), "SYNTHWORKER_OUT="+j.scratch)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	j.transition(StateRunning)
	runErr := cmd.Run()

	// The timeout wins over whatever exit state the kill produced.
	if errors.Is(workerCtx.Err(), context.DeadlineExceeded) {
		j.transition(StateTimedOut)
		j.cleanupFailure()
		logger.Warn("synthesis worker timed out", logger.Fields{
			"user_id": j.userID,
			"ceiling": r.opts.ComposeTimeout.String(),
		})
		return &Outcome{Kind: OutcomeTimedOut, Diagnostic: stderr.String()}
	}

	if runErr != nil {
		j.transition(StateCrashed)
		j.cleanupFailure()
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		logger.Error("synthesis worker crashed", runErr, logger.Fields{
			"user_id":   j.userID,
			"exit_code": exitCode,
		})
		return &Outcome{Kind: OutcomeCrashed, ExitCode: exitCode, Diagnostic: stderr.String()}
	}

	result, parseErr := parseWorkerOutput(stdout.Bytes())
	if parseErr != nil {
		j.transition(StateCrashed)
		j.cleanupFailure()
		logger.Error("synthesis worker produced malformed output", parseErr, logger.Fields{
			"user_id": j.userID,
		})
		return &Outcome{Kind: OutcomeMalformed, Diagnostic: stderr.String(), RawOutput: stdout.String()}
	}

	audio, readErr := os.ReadFile(j.scratch)
	if readErr != nil {
		// Zero exit, well-formed document, missing artifact: the worker
		// broke its contract.
		j.transition(StateCrashed)
		j.cleanupFailure()
		return &Outcome{
			Kind:       OutcomeMalformed,
			Diagnostic: fmt.Sprintf("worker reported success but artifact is unreadable: %v", readErr),
			RawOutput:  stdout.String(),
		}
	}

	// Ownership of the audio transfers to the caller; the scratch file is
	// always removed.
	j.removeScratch()
	j.transition(StateCompleted)
	return &Outcome{Kind: OutcomeCompleted, Result: result, Audio: audio}
}

// parseWorkerOutput enforces the narrow protocol: stdout must hold exactly
// one JSON result document reporting success, and nothing else.
func parseWorkerOutput(out []byte) (*WorkerResult, error) {
	dec := json.NewDecoder(bytes.NewReader(out))
	var result WorkerResult
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding worker output: %w", err)
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err == nil {
		return nil, errors.New("worker emitted more than one document")
	}
	if !result.Success {
		return nil, errors.New("worker exited zero but reported failure")
	}
	return &result, nil
}
