package install

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jxwalker/modinstall/internal/installer"
	"github.com/jxwalker/modinstall/internal/logging"
	"github.com/jxwalker/modinstall/internal/reactive"
	"github.com/jxwalker/modinstall/internal/state"
)

// fakeJob blocks in Begin until finish is called or ctx is cancelled.
type fakeJob struct {
	started chan struct{}
	result  chan error
	panicV  any
}

func newFakeJob() *fakeJob {
	return &fakeJob{started: make(chan struct{}), result: make(chan error, 1)}
}

func (j *fakeJob) Begin(ctx context.Context) error {
	close(j.started)
	if j.panicV != nil {
		panic(j.panicV)
	}
	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *fakeJob) finish(err error) { j.result <- err }

func waitStarted(t *testing.T, j *fakeJob) {
	t.Helper()
	select {
	case <-j.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("job never started")
	}
}

// recordActive collects whether a job was active at each emission.
type activeRecorder struct {
	mu   sync.Mutex
	seen []bool
}

func recordActive(v *reactive.Value[installer.Job]) *activeRecorder {
	r := &activeRecorder{}
	v.Subscribe(func(j installer.Job) {
		r.mu.Lock()
		r.seen = append(r.seen, j != nil)
		r.mu.Unlock()
	})
	return r
}

func (r *activeRecorder) get() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.seen...)
}

func openGate() *Gate {
	return NewGate(reactive.NewValue(false), reactive.NewValue(false), reactive.NewValue(false))
}

func testLogger() (*logging.Logger, *logging.Buffer) {
	buf := logging.NewBuffer(0)
	return logging.NewWithWriter("debug", false, buf), buf
}

func linesContaining(lines []string, sub string) []string {
	var out []string
	for _, l := range lines {
		if strings.Contains(l, sub) {
			out = append(out, l)
		}
	}
	return out
}

type fakeHistory struct {
	mu       sync.Mutex
	inserted []state.RunRow
	finished map[string]string
}

func (h *fakeHistory) InsertRun(r state.RunRow) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inserted = append(h.inserted, r)
	return nil
}

func (h *fakeHistory) FinishRun(id, status, lastError string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished == nil {
		h.finished = map[string]string{}
	}
	h.finished[id] = status
	return nil
}
