package install

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jxwalker/modinstall/internal/installer"
	"github.com/jxwalker/modinstall/internal/reactive"
	"github.com/jxwalker/modinstall/internal/state"
)

func factoryFor(job installer.Job, calls *int) Factory {
	return func(Target) (installer.Job, error) {
		*calls++
		return job, nil
	}
}

func TestStartBlockedByGate(t *testing.T) {
	log, buf := testLogger()
	calls := 0
	gate := NewGate(reactive.NewValue(true), reactive.NewValue(false), reactive.NewValue(false))
	o := NewOrchestrator(gate, factoryFor(newFakeJob(), &calls), WithLogger(log))
	rec := recordActive(o.Active())

	if err := o.Start(context.Background(), Target{}); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("factory called %d times while blocked", calls)
	}
	if got := rec.get(); !reflect.DeepEqual(got, []bool{false}) {
		t.Fatalf("active handle changed: %v", got)
	}
	if len(buf.Lines()) != 0 {
		t.Fatalf("blocked start should not log: %q", buf.Lines())
	}
}

func TestSuccessfulRunPublishesThenClearsHandle(t *testing.T) {
	job := newFakeJob()
	calls := 0
	hist := &fakeHistory{}
	o := NewOrchestrator(openGate(), factoryFor(job, &calls), WithHistory(hist))
	rec := recordActive(o.Active())

	if err := o.Start(context.Background(), Target{ArchivePath: "/lists/a"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if o.Active().Get() != installer.Job(job) {
		t.Fatalf("handle should be published when Start returns")
	}
	waitStarted(t, job)
	if o.State() != Running {
		t.Fatalf("state = %v, want running", o.State())
	}
	job.finish(nil)
	o.Wait()

	if o.Active().Get() != nil || o.State() != Idle {
		t.Fatalf("expected idle with no handle, got %v / %v", o.Active().Get(), o.State())
	}
	if got := rec.get(); !reflect.DeepEqual(got, []bool{false, true, false}) {
		t.Fatalf("handle transitions = %v", got)
	}
	if len(hist.inserted) != 1 || hist.finished[hist.inserted[0].ID] != state.RunComplete {
		t.Fatalf("unexpected history: %+v %v", hist.inserted, hist.finished)
	}
}

func TestConstructionFailureLogsRootCause(t *testing.T) {
	log, buf := testLogger()
	root := errors.New("zip: not a valid zip file")
	o := NewOrchestrator(openGate(), func(Target) (installer.Job, error) {
		return nil, fmt.Errorf("open modlist archive: %w", root)
	}, WithLogger(log))
	rec := recordActive(o.Active())

	if err := o.Start(context.Background(), Target{}); err != nil {
		t.Fatalf("construction failures are not returned, got %v", err)
	}
	o.Wait()
	if got := rec.get(); !reflect.DeepEqual(got, []bool{false}) {
		t.Fatalf("handle should never be set: %v", got)
	}
	if o.State() != Idle {
		t.Fatalf("state = %v", o.State())
	}
	terminal := linesContaining(buf.Lines(), "cannot continue")
	if len(terminal) != 1 {
		t.Fatalf("want exactly one terminal line, got %q", buf.Lines())
	}
	if !strings.Contains(terminal[0], root.Error()) || strings.Contains(terminal[0], "open modlist archive") {
		t.Fatalf("terminal line should name the root cause only: %q", terminal[0])
	}

	// the gate stays usable
	job := newFakeJob()
	calls := 0
	o.newJob = factoryFor(job, &calls)
	if err := o.Start(context.Background(), Target{}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	job.finish(nil)
	o.Wait()
	if calls != 1 {
		t.Fatalf("retry did not construct a job")
	}
}

func TestExecutionFailureLogsRootCause(t *testing.T) {
	log, buf := testLogger()
	job := newFakeJob()
	calls := 0
	hist := &fakeHistory{}
	o := NewOrchestrator(openGate(), factoryFor(job, &calls), WithLogger(log), WithHistory(hist))
	rec := recordActive(o.Active())

	if err := o.Start(context.Background(), Target{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitStarted(t, job)
	job.finish(fmt.Errorf("extract mods/core.esp: %w", errors.New("no space left on device")))
	o.Wait()

	if got := rec.get(); !reflect.DeepEqual(got, []bool{false, true, false}) {
		t.Fatalf("handle transitions = %v", got)
	}
	terminal := linesContaining(buf.Lines(), "cannot continue")
	if len(terminal) != 1 || !strings.HasSuffix(terminal[0], "no space left on device - cannot continue") {
		t.Fatalf("unexpected terminal lines: %q", terminal)
	}
	if ctx := linesContaining(buf.Lines(), "failure context"); len(ctx) != 1 || !strings.Contains(ctx[0], "execution") {
		t.Fatalf("missing failure context: %q", buf.Lines())
	}
	if hist.finished[hist.inserted[0].ID] != state.RunFailed {
		t.Fatalf("run not recorded as failed: %v", hist.finished)
	}
}

func TestStartWhileRunningIsBusy(t *testing.T) {
	job := newFakeJob()
	calls := 0
	o := NewOrchestrator(openGate(), factoryFor(job, &calls))
	if err := o.Start(context.Background(), Target{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.Start(context.Background(), Target{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("factory called %d times", calls)
	}
	job.finish(nil)
	o.Wait()
}

func TestCancelIsLoggedDistinctly(t *testing.T) {
	log, buf := testLogger()
	job := newFakeJob()
	calls := 0
	hist := &fakeHistory{}
	released := 0
	o := NewOrchestrator(openGate(), factoryFor(job, &calls), WithLogger(log), WithHistory(hist),
		WithTracker(func(installer.Job) func() { return func() { released++ } }))

	if err := o.Start(context.Background(), Target{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitStarted(t, job)
	o.Close()

	if o.Active().Get() != nil || o.State() != Idle {
		t.Fatalf("cancelled job should leave the orchestrator idle")
	}
	if len(linesContaining(buf.Lines(), "cannot continue")) != 0 {
		t.Fatalf("cancellation should not be reported as a failure: %q", buf.Lines())
	}
	if len(linesContaining(buf.Lines(), "installation cancelled")) != 1 {
		t.Fatalf("missing cancellation line: %q", buf.Lines())
	}
	if hist.finished[hist.inserted[0].ID] != state.RunCancelled {
		t.Fatalf("run not recorded as cancelled: %v", hist.finished)
	}
	if released != 1 {
		t.Fatalf("tracker released %d times", released)
	}
}

func TestPanickingJobIsRecovered(t *testing.T) {
	log, buf := testLogger()
	job := newFakeJob()
	job.panicV = "index out of range"
	calls := 0
	o := NewOrchestrator(openGate(), factoryFor(job, &calls), WithLogger(log))
	if err := o.Start(context.Background(), Target{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	o.Wait()
	if o.Active().Get() != nil {
		t.Fatalf("handle not cleared after panic")
	}
	terminal := linesContaining(buf.Lines(), "cannot continue")
	if len(terminal) != 1 || !strings.Contains(terminal[0], "panic: index out of range") {
		t.Fatalf("unexpected terminal lines: %q", buf.Lines())
	}
}

func TestFactoryReturningNothingIsAConstructionError(t *testing.T) {
	log, buf := testLogger()
	o := NewOrchestrator(nil, func(Target) (installer.Job, error) { return nil, nil }, WithLogger(log))
	if err := o.Start(context.Background(), Target{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if o.Active().Get() != nil {
		t.Fatalf("no job should be active")
	}
	if len(linesContaining(buf.Lines(), "installer returned no job - cannot continue")) != 1 {
		t.Fatalf("unexpected log: %q", buf.Lines())
	}
}

func TestNewInstallerDoesNotReturnTypedNil(t *testing.T) {
	job, err := NewInstaller(Target{})
	if err == nil {
		t.Fatalf("expected error for empty target")
	}
	if job != nil {
		t.Fatalf("job must be a nil interface on error")
	}
}

func TestCloseDuringConstructionWaitsForJob(t *testing.T) {
	log, buf := testLogger()
	entered := make(chan struct{})
	proceed := make(chan struct{})
	job := newFakeJob()
	o := NewOrchestrator(openGate(), func(Target) (installer.Job, error) {
		close(entered)
		<-proceed
		return job, nil
	}, WithLogger(log))

	started := make(chan error, 1)
	go func() { started <- o.Start(context.Background(), Target{}) }()
	<-entered
	if o.State() != Constructing {
		t.Fatalf("state = %v, want constructing", o.State())
	}

	closed := make(chan struct{})
	go func() {
		o.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatalf("Close returned while a job was still being constructed")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	if err := <-started; err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatalf("Close never returned")
	}
	if o.State() != Idle || o.Active().Get() != nil {
		t.Fatalf("orchestrator not idle after Close: %v", o.State())
	}
	if len(linesContaining(buf.Lines(), "installation cancelled")) != 1 {
		t.Fatalf("job should have been cancelled: %q", buf.Lines())
	}
}
