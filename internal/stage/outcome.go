package stage

import (
	"github.com/sells-group/domain-resolver/internal/model"
)

// ErrorKind classifies why a stage produced nothing.
type ErrorKind string

const (
	// KindUnavailable means the collaborator failed: network or API error,
	// timeout, open breaker or a recovered panic.
	KindUnavailable ErrorKind = "unavailable"
	// KindNoCandidate means the collaborator answered but nothing usable
	// survived filtering and scoring.
	KindNoCandidate ErrorKind = "no_candidate"
)

// Outcome is the result of running one stage. Exactly one of Candidates
// (non-empty) or Kind is set. Both failure kinds mean "no candidate" to the
// controller; they differ only for diagnostics.
type Outcome struct {
	Stage      model.Stage
	Candidates []model.Candidate
	Kind       ErrorKind
	Err        error
	Detail     string
}

// Best returns the highest-confidence candidate, or nil.
func (o Outcome) Best() *model.Candidate {
	var best *model.Candidate
	for i := range o.Candidates {
		best = model.Best(best, &o.Candidates[i])
	}
	return best
}

// Failed reports whether the collaborator was unavailable.
func (o Outcome) Failed() bool { return o.Kind == KindUnavailable }

// Empty reports whether the stage ran but found nothing.
func (o Outcome) Empty() bool { return o.Kind == KindNoCandidate }

// StageError converts a failed or empty outcome into its result diagnostic.
// Returns nil when the stage produced candidates.
func (o Outcome) StageError() *model.StageError {
	if o.Kind == "" {
		return nil
	}
	msg := o.Detail
	if o.Err != nil {
		msg = o.Err.Error()
	}
	return &model.StageError{Stage: o.Stage, Kind: string(o.Kind), Message: msg}
}

func found(stage model.Stage, cands ...model.Candidate) Outcome {
	if len(cands) == 0 {
		return nothing(stage, "no candidate")
	}
	return Outcome{Stage: stage, Candidates: cands}
}

func nothing(stage model.Stage, detail string) Outcome {
	return Outcome{Stage: stage, Kind: KindNoCandidate, Detail: detail}
}

func unavailable(stage model.Stage, err error) Outcome {
	return Outcome{Stage: stage, Kind: KindUnavailable, Err: err}
}
