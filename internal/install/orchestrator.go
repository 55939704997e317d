// Package install runs modlist installations for one installer screen:
// it decides when an install may begin, runs at most one job in the
// background, reports failures without taking the process down, and keeps
// per-modlist install settings in step with the screen.
package install

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	errs "github.com/jxwalker/modinstall/internal/errors"
	"github.com/jxwalker/modinstall/internal/installer"
	"github.com/jxwalker/modinstall/internal/logging"
	"github.com/jxwalker/modinstall/internal/modlist"
	"github.com/jxwalker/modinstall/internal/reactive"
	"github.com/jxwalker/modinstall/internal/state"
)

var (
	// ErrBlocked is returned by Start while the gate is closed. It is not
	// logged: the inputs simply are not valid yet.
	ErrBlocked = errors.New("install inputs are not valid")
	// ErrBusy is returned by Start while another job is constructing or
	// running.
	ErrBusy = errors.New("an installation is already running")
)

// Target parametrises one job. It is built fresh for every start attempt.
type Target struct {
	ArchivePath  string
	ModList      *modlist.ModList
	OutputPath   string
	DownloadPath string
}

// Factory builds the job for a target. Errors are construction failures.
type Factory func(Target) (installer.Job, error)

// NewInstaller is the Factory for the reference installer.
func NewInstaller(t Target) (installer.Job, error) {
	in, err := installer.New(t.ArchivePath, t.ModList, t.OutputPath, t.DownloadPath)
	if err != nil {
		return nil, err
	}
	return in, nil
}

type State int

const (
	Idle State = iota
	Constructing
	Running
)

func (s State) String() string {
	switch s {
	case Constructing:
		return "constructing"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// Metrics receives install counters. *metrics.Manager satisfies it.
type Metrics interface {
	IncStarted()
	IncSucceeded()
	IncFailed()
	IncCancelled()
	ObserveInstallSeconds(float64)
}

type noopMetrics struct{}

func (noopMetrics) IncStarted()                   {}
func (noopMetrics) IncSucceeded()                 {}
func (noopMetrics) IncFailed()                    {}
func (noopMetrics) IncCancelled()                 {}
func (noopMetrics) ObserveInstallSeconds(float64) {}

// History records runs that reach the running state. *state.DB satisfies it.
type History interface {
	InsertRun(state.RunRow) error
	FinishRun(id, status, lastError string) error
}

// Tracker is called once a job is running; the returned func is called
// when it stops, whatever the outcome.
type Tracker func(job installer.Job) (release func())

type Option func(*Orchestrator)

func WithLogger(l *logging.Logger) Option { return func(o *Orchestrator) { o.log = l } }
func WithMetrics(m Metrics) Option        { return func(o *Orchestrator) { o.metrics = m } }
func WithHistory(h History) Option        { return func(o *Orchestrator) { o.history = h } }
func WithTracker(t Tracker) Option        { return func(o *Orchestrator) { o.track = t } }

// Orchestrator owns the lifecycle of at most one active job.
type Orchestrator struct {
	gate    *Gate
	newJob  Factory
	log     *logging.Logger
	metrics Metrics
	history History
	track   Tracker

	active *reactive.Value[installer.Job]

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewOrchestrator returns an idle orchestrator. gate may be nil for callers
// that validate inputs themselves.
func NewOrchestrator(gate *Gate, newJob Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gate:    gate,
		newJob:  newJob,
		log:     logging.Discard(),
		metrics: noopMetrics{},
		active:  reactive.NewValue[installer.Job](nil),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	return o
}

// Active is the running job, or nil. It is set before the job begins and
// cleared after it ends, on every exit path.
func (o *Orchestrator) Active() *reactive.Value[installer.Job] { return o.active }

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start builds a job for t and runs it in the background. Construction
// failures are logged and leave the orchestrator idle; they are not
// returned. Only ErrBlocked and ErrBusy are.
func (o *Orchestrator) Start(ctx context.Context, t Target) error {
	o.mu.Lock()
	if o.gate != nil && !o.gate.CanStart() {
		o.mu.Unlock()
		return ErrBlocked
	}
	if o.state != Idle {
		o.mu.Unlock()
		return ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.state = Constructing
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	job, err := o.construct(t)
	if err != nil {
		ReportFailure(o.log, errs.Construction(err))
		o.metrics.IncFailed()
		o.mu.Lock()
		o.state = Idle
		o.cancel = nil
		o.mu.Unlock()
		cancel()
		close(done)
		return nil
	}

	o.setState(Running)
	o.active.Set(job)
	id := uuid.NewString()
	o.recordStart(id, t)
	o.metrics.IncStarted()
	release := func() {}
	if o.track != nil {
		release = o.track(job)
	}
	o.log.Infof("installation started: %s", describe(job, t))

	go o.run(runCtx, cancel, done, id, job, release)
	return nil
}

// Cancel asks the running job to stop. It is a no-op when idle.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed when the most recent Start has settled: its job finished
// or its construction failed. It is closed already if Start never ran.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return o.done
}

// Wait blocks until the most recent job has finished.
func (o *Orchestrator) Wait() { <-o.Done() }

// Close cancels the running job, if any, and waits for it.
func (o *Orchestrator) Close() {
	o.Cancel()
	o.Wait()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) construct(t Target) (job installer.Job, err error) {
	defer func() {
		if r := recover(); r != nil {
			job, err = nil, newPanicError(r)
		}
	}()
	if o.newJob == nil {
		return nil, errors.New("no installer configured")
	}
	job, err = o.newJob(t)
	if err == nil && job == nil {
		err = errors.New("installer returned no job")
	}
	return job, err
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, id string, job installer.Job, release func()) {
	started := time.Now()
	defer func() {
		cancel()
		release()
		o.active.Set(nil)
		o.mu.Lock()
		o.state = Idle
		o.cancel = nil
		o.mu.Unlock()
		close(done)
	}()

	err := begin(ctx, job)
	o.metrics.ObserveInstallSeconds(time.Since(started).Seconds())
	switch {
	case err == nil:
		o.log.Infof("installation finished in %s", time.Since(started).Round(time.Millisecond))
		o.metrics.IncSucceeded()
		o.recordFinish(id, state.RunComplete, nil)
	case errors.Is(err, context.Canceled):
		o.log.Warnf("installation cancelled: %v", errs.RootCause(err))
		o.metrics.IncCancelled()
		o.recordFinish(id, state.RunCancelled, err)
	default:
		ReportFailure(o.log, errs.Execution(err))
		o.metrics.IncFailed()
		o.recordFinish(id, state.RunFailed, err)
	}
}

func begin(ctx context.Context, job installer.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return job.Begin(ctx)
}

func (o *Orchestrator) recordStart(id string, t Target) {
	if o.history == nil {
		return
	}
	row := state.RunRow{ID: id, ModlistPath: t.ArchivePath, OutputPath: t.OutputPath, DownloadPath: t.DownloadPath, Status: state.RunRunning}
	if err := o.history.InsertRun(row); err != nil {
		o.log.Warnf("record install run: %v", err)
	}
}

func (o *Orchestrator) recordFinish(id, status string, err error) {
	if o.history == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = errs.RootCause(err).Error()
	}
	if ferr := o.history.FinishRun(id, status, msg); ferr != nil {
		o.log.Warnf("record install result: %v", ferr)
	}
}

func describe(job installer.Job, t Target) string {
	if d, ok := job.(installer.Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%s → %s", logging.SanitizeSource(t.ArchivePath), t.OutputPath)
}

// PanicError is what a recovered panic in a job or factory becomes.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError { return &PanicError{Value: v, Stack: debug.Stack()} }

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }
