// Package run drives a single archive run through its stages.
package run

import (
	"fmt"
	"time"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// State is a stage of an archive run.
type State string

// Run states in the order a successful run visits them. Failed is reachable
// from every non-terminal state.
const (
	StateIdle       State = "Idle"
	StateValidating State = "Validating"
	StateMatching   State = "Matching"
	StateFetching   State = "Fetching"
	StateArchiving  State = "Archiving"
	StatePersisting State = "Persisting"
	StateCommitting State = "Committing"
	StateDone       State = "Done"
	StateFailed     State = "Failed"
)

// Terminal reports whether no further transitions leave s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// StageError records the stage a run failed in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result summarizes a finished run.
type Result struct {
	RunID       string
	URL         string
	State       State
	FailedStage State
	Kind        archive.Kind
	Decision    archive.Decision
	FinalURL    string
	StatusCode  int
	ChangeSet   archive.ChangeSet
	Message     string
	Started     time.Time
	Finished    time.Time
}

// Succeeded reports whether the run reached Done.
func (r Result) Succeeded() bool {
	return r.State == StateDone
}

// CommitMessage is the summary handed to the committer.
func CommitMessage(rawURL string, at time.Time) string {
	return fmt.Sprintf("archive %s at %s", rawURL, at.UTC().Format(time.RFC3339))
}
