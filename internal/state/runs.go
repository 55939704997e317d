package state

import (
	"errors"
	"time"
)

// Run statuses recorded in install_runs.
const (
	RunRunning   = "running"
	RunComplete  = "complete"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

type RunRow struct {
	ID           string
	ModlistPath  string
	OutputPath   string
	DownloadPath string
	Status       string
	LastError    string
	StartedAt    int64
	FinishedAt   int64
}

// Duration is zero while the run is still going.
func (r RunRow) Duration() time.Duration {
	if r.FinishedAt == 0 || r.FinishedAt < r.StartedAt {
		return 0
	}
	return time.Duration(r.FinishedAt-r.StartedAt) * time.Second
}

func (db *DB) InsertRun(row RunRow) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	if row.StartedAt == 0 {
		row.StartedAt = time.Now().Unix()
	}
	if row.Status == "" {
		row.Status = RunRunning
	}
	_, err := db.SQL.Exec(`INSERT INTO install_runs(id, modlist_path, output_path, download_path, status, started_at) VALUES(?,?,?,?,?,?)`,
		row.ID, row.ModlistPath, row.OutputPath, row.DownloadPath, row.Status, row.StartedAt)
	return err
}

// FinishRun records the terminal status of a run.
func (db *DB) FinishRun(id, status, lastError string) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	_, err := db.SQL.Exec(`UPDATE install_runs SET status=?, last_error=?, finished_at=? WHERE id=?`,
		status, lastError, time.Now().Unix(), id)
	return err
}

// ListRuns returns the newest runs first. limit <= 0 returns all of them.
func (db *DB) ListRuns(limit int) ([]RunRow, error) {
	if db == nil || db.SQL == nil {
		return nil, errors.New("nil db")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.SQL.Query(`SELECT id, modlist_path, output_path, download_path, status,
		COALESCE(last_error, ''), started_at, COALESCE(finished_at, 0)
		FROM install_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.ModlistPath, &r.OutputPath, &r.DownloadPath, &r.Status, &r.LastError, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkInterruptedRuns turns runs left in "running" by a crashed process into
// failures. It returns how many rows changed.
func (db *DB) MarkInterruptedRuns() (int64, error) {
	if db == nil || db.SQL == nil {
		return 0, errors.New("nil db")
	}
	res, err := db.SQL.Exec(`UPDATE install_runs SET status=?, last_error=?, finished_at=? WHERE status=?`,
		RunFailed, "interrupted", time.Now().Unix(), RunRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
