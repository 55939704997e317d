package errors

import (
	"errors"
	"fmt"
)

// Phase identifies where an installation failed.
type Phase int

const (
	// PhaseConstruction covers building the job from its target: bad
	// archive, malformed modlist, unusable paths.
	PhaseConstruction Phase = iota
	// PhaseExecution covers failures while the job runs.
	PhaseExecution
)

func (p Phase) String() string {
	if p == PhaseConstruction {
		return "construction"
	}
	return "execution"
}

// InstallError wraps a failure with the phase it happened in.
type InstallError struct {
	Phase Phase
	Err   error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s failed: %v", e.Phase, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Construction wraps err as a construction failure. nil stays nil.
func Construction(err error) error {
	if err == nil {
		return nil
	}
	return &InstallError{Phase: PhaseConstruction, Err: err}
}

// Execution wraps err as an execution failure. nil stays nil.
func Execution(err error) error {
	if err == nil {
		return nil
	}
	return &InstallError{Phase: PhaseExecution, Err: err}
}

// PhaseOf reports the phase recorded in err's chain.
func PhaseOf(err error) (Phase, bool) {
	var ie *InstallError
	if errors.As(err, &ie) {
		return ie.Phase, true
	}
	return 0, false
}

// Chain returns err followed by every error it wraps, outermost first.
// Joined errors are followed through their first member.
func Chain(err error) []error {
	var out []error
	for err != nil {
		out = append(out, err)
		err = unwrapOnce(err)
	}
	return out
}

// RootCause returns the innermost error in err's chain.
func RootCause(err error) error {
	chain := Chain(err)
	if len(chain) == 0 {
		return nil
	}
	return chain[len(chain)-1]
}

func unwrapOnce(err error) error {
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return u.Unwrap()
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if e != nil {
				return e
			}
		}
	}
	return nil
}
