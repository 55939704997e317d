package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jxwalker/modinstall/internal/config"
)

// Manager keeps install counters and writes them in the Prometheus
// textfile format. A nil *Manager is a valid no-op.
type Manager struct {
	path string
	mu   sync.Mutex
	// counters
	started        int64
	succeeded      int64
	failed         int64
	cancelled      int64
	active         int64
	lastInstallSec float64
	bytesWritten   int64
}

func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	return &Manager{path: p}
}

func (m *Manager) IncStarted() {
	if m == nil { return }
	m.mu.Lock(); m.started++; m.mu.Unlock()
}

func (m *Manager) IncSucceeded() {
	if m == nil { return }
	m.mu.Lock(); m.succeeded++; m.mu.Unlock()
}

// IncFailed counts a failure and rewrites the textfile. A job that fails
// to construct never reaches Track, so nothing else would write it.
func (m *Manager) IncFailed() {
	if m == nil { return }
	m.mu.Lock(); m.failed++; m.mu.Unlock()
	_ = m.Write()
}

func (m *Manager) IncCancelled() {
	if m == nil { return }
	m.mu.Lock(); m.cancelled++; m.mu.Unlock()
}

func (m *Manager) ObserveInstallSeconds(sec float64) {
	if m == nil { return }
	m.mu.Lock(); m.lastInstallSec = sec; m.mu.Unlock()
}

func (m *Manager) AddBytes(n int64) {
	if m == nil { return }
	m.mu.Lock(); m.bytesWritten += n; m.mu.Unlock()
}

// Track marks an installation as active until the returned func is called,
// rewriting the textfile on both edges.
func (m *Manager) Track() (release func()) {
	if m == nil { return func() {} }
	m.mu.Lock(); m.active++; m.mu.Unlock()
	_ = m.Write()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock(); m.active--; m.mu.Unlock()
			_ = m.Write()
		})
	}
}

func (m *Manager) Write() error {
	if m == nil { return nil }
	m.mu.Lock(); defer m.mu.Unlock()
	f, err := os.CreateTemp(filepath.Dir(m.path), ".metrics.tmp.*")
	if err != nil { return err }
	defer os.Remove(f.Name())
	// Prometheus textfile format
	// Use modinstall_ prefix
	counter := func(name, help string, v int64) {
		fmt.Fprintf(f, "# HELP %s %s\n", name, help)
		fmt.Fprintf(f, "# TYPE %s counter\n", name)
		fmt.Fprintf(f, "%s %d\n", name, v)
	}
	counter("modinstall_installs_started_total", "Installations that reached the running state.", m.started)
	counter("modinstall_installs_succeeded_total", "Installations that completed.", m.succeeded)
	counter("modinstall_installs_failed_total", "Installations that failed during construction or execution.", m.failed)
	counter("modinstall_installs_cancelled_total", "Installations cancelled while running.", m.cancelled)
	counter("modinstall_bytes_written_total", "Bytes written into install folders.", m.bytesWritten)

	fmt.Fprintf(f, "# HELP modinstall_installs_active Installations currently running.\n")
	fmt.Fprintf(f, "# TYPE modinstall_installs_active gauge\n")
	fmt.Fprintf(f, "modinstall_installs_active %d\n", m.active)

	fmt.Fprintf(f, "# HELP modinstall_last_install_seconds Duration of the last finished installation in seconds.\n")
	fmt.Fprintf(f, "# TYPE modinstall_last_install_seconds gauge\n")
	fmt.Fprintf(f, "modinstall_last_install_seconds %.6f\n", m.lastInstallSec)

	fmt.Fprintf(f, "# HELP modinstall_metrics_timestamp_seconds UNIX timestamp when this file was written.\n")
	fmt.Fprintf(f, "# TYPE modinstall_metrics_timestamp_seconds gauge\n")
	fmt.Fprintf(f, "modinstall_metrics_timestamp_seconds %d\n", time.Now().Unix())

	if err := f.Close(); err != nil { return err }
	return os.Rename(f.Name(), m.path)
}
