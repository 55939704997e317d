// Package installer holds the contract between the install orchestrator
// and the code that actually lays out a modlist, plus a reference
// implementation of that contract.
package installer

import "context"

// Job is one installation. Begin runs it to completion and returns its
// result; it must stop early with ctx.Err() when ctx is cancelled.
type Job interface {
	Begin(ctx context.Context) error
}

// Progress is a snapshot of a running installation.
type Progress struct {
	Step         string
	StepsDone    int
	StepsTotal   int
	BytesWritten int64
	BytesTotal   int64
	Skipped      int
}

// Fraction is the share of steps completed, in [0,1].
func (p Progress) Fraction() float64 {
	if p.StepsTotal <= 0 {
		return 0
	}
	f := float64(p.StepsDone) / float64(p.StepsTotal)
	if f > 1 {
		f = 1
	}
	return f
}

// Reporter is implemented by jobs that can report progress while running.
type Reporter interface {
	Progress() Progress
}

// Describer is implemented by jobs that can name what they install.
type Describer interface {
	Describe() string
}
