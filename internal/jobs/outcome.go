package jobs

// State tracks a job through its lifecycle. A job is created Idle, moves to
// Running when the worker is spawned, and ends in exactly one terminal state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateTimedOut  State = "timed_out"
	StateCrashed   State = "crashed"
)

// OutcomeKind tags the terminal result of a worker invocation.
type OutcomeKind string

const (
	// OutcomeCompleted: worker exited zero with one well-formed result.
	OutcomeCompleted OutcomeKind = "completed"
	// OutcomeTimedOut: the wall-clock ceiling elapsed and the worker was
	// killed. Retryable by the caller; never retried automatically.
	OutcomeTimedOut OutcomeKind = "timed_out"
	// OutcomeCrashed: worker exited non-zero.
	OutcomeCrashed OutcomeKind = "crashed"
	// OutcomeMalformed: worker exited zero but its stdout was not one
	// well-formed result document. Distinct from a crash: it indicates a
	// protocol bug rather than a runtime fault.
	OutcomeMalformed OutcomeKind = "malformed_output"
)

// WorkerResult mirrors the JSON document the synthworker prints on stdout.
type WorkerResult struct {
	Success    bool           `json:"success"`
	SampleRate int            `json:"sample_rate"`
	Duration   float64        `json:"duration"`
	AudioPath  string         `json:"audio_path"`
	Preview    []float64      `json:"preview"`
	Metadata   WorkerMetadata `json:"metadata"`
}

type WorkerMetadata struct {
	Lyrics      string   `json:"lyrics"`
	Genre       string   `json:"genre"`
	Tempo       int      `json:"tempo"`
	Key         string   `json:"key"`
	MelodyNotes []string `json:"melody_notes"`
	Structure   []string `json:"structure"`
}

// Outcome is the terminal, caller-visible artifact of one job. Exactly one
// of the variants applies; Result and Audio are set only for
// OutcomeCompleted.
type Outcome struct {
	Kind   OutcomeKind
	Result *WorkerResult
	Audio  []byte

	// Failure context.
	ExitCode   int
	Diagnostic string // captured stderr
	RawOutput  string // unparsable stdout, for OutcomeMalformed

	// Refunded reports whether the credit debit was returned. True for
	// every non-completed outcome.
	Refunded bool
}
