package types

import "fmt"

// OutcomeKind tags the result of processing one item.
type OutcomeKind int

const (
	// OutcomeSkip leaves the cursor alone; the item is retried next cycle.
	OutcomeSkip OutcomeKind = iota
	// OutcomeDefer is used for upcoming lives; nothing was acquired.
	OutcomeDefer
	// OutcomeSuccess carries an Artifact ready to publish.
	OutcomeSuccess
	// OutcomeFailure carries the error that stopped processing.
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkip:
		return "skip"
	case OutcomeDefer:
		return "defer"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is what the item processor hands back to the poll loop.
type Outcome struct {
	Kind     OutcomeKind
	Artifact Artifact
	Reason   string
	Err      error
}

func Skip(reason string) Outcome  { return Outcome{Kind: OutcomeSkip, Reason: reason} }
func Defer(reason string) Outcome { return Outcome{Kind: OutcomeDefer, Reason: reason} }
func Success(a Artifact) Outcome  { return Outcome{Kind: OutcomeSuccess, Artifact: a} }

func Failure(err error) Outcome {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return Outcome{Kind: OutcomeFailure, Err: err, Reason: reason}
}
