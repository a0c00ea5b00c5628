package resolver

import (
	"fmt"
	"time"
)

// Result is the terminal outcome of one package. Step names the failing
// step and is empty unless Err is set.
type Result struct {
	Name     string
	Version  string
	State    State
	Step     Step
	Err      error
	Duration time.Duration
}

// OK reports whether the package ended installed or already up to date.
func (r Result) OK() bool {
	return r.State == StateDone || r.State == StateSkipped
}

// Report collects the results of one ResolveAll call in input order.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []Result
	// Aborted is set when the context was cancelled before every
	// descriptor was processed.
	Aborted bool
}

func (r *Report) Counts() (done, skipped, failed int) {
	for _, res := range r.Results {
		switch res.State {
		case StateDone:
			done++
		case StateSkipped:
			skipped++
		default:
			failed++
		}
	}
	return done, skipped, failed
}

// Failed returns the results that did not end in done or skipped.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Summary() string {
	done, skipped, failed := r.Counts()
	s := fmt.Sprintf("%d built, %d skipped, %d failed", done, skipped, failed)
	if r.Aborted {
		s += " (aborted)"
	}
	return s
}
