package state

import (
	"database/sql"
	"errors"
)

// InstallSettingsRow is the persisted form of one modlist's install and
// download folders.
type InstallSettingsRow struct {
	ModlistPath          string
	InstallationLocation string
	DownloadLocation     string
	UpdatedAt            int64
}

const keyLastInstalledList = "last_installed_list_location"

func (db *DB) UpsertInstallSettings(row InstallSettingsRow) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	if row.ModlistPath == "" {
		return errors.New("modlist path required")
	}
	_, err := db.SQL.Exec(`INSERT INTO install_settings(modlist_path, installation_location, download_location, updated_at)
		VALUES(?,?,?,strftime('%s','now'))
		ON CONFLICT(modlist_path) DO UPDATE SET installation_location=excluded.installation_location, download_location=excluded.download_location, updated_at=excluded.updated_at`,
		row.ModlistPath, row.InstallationLocation, row.DownloadLocation)
	return err
}

func (db *DB) GetInstallSettings(modlistPath string) (InstallSettingsRow, bool, error) {
	if db == nil || db.SQL == nil {
		return InstallSettingsRow{}, false, errors.New("nil db")
	}
	r := InstallSettingsRow{ModlistPath: modlistPath}
	row := db.SQL.QueryRow(`SELECT installation_location, download_location, updated_at FROM install_settings WHERE modlist_path=?`, modlistPath)
	switch err := row.Scan(&r.InstallationLocation, &r.DownloadLocation, &r.UpdatedAt); err {
	case sql.ErrNoRows:
		return InstallSettingsRow{}, false, nil
	case nil:
		return r, true, nil
	default:
		return InstallSettingsRow{}, false, err
	}
}

// ListInstallSettings returns every stored record ordered by modlist path.
func (db *DB) ListInstallSettings() ([]InstallSettingsRow, error) {
	if db == nil || db.SQL == nil {
		return nil, errors.New("nil db")
	}
	rows, err := db.SQL.Query(`SELECT modlist_path, installation_location, download_location, updated_at FROM install_settings ORDER BY modlist_path`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []InstallSettingsRow
	for rows.Next() {
		var r InstallSettingsRow
		if err := rows.Scan(&r.ModlistPath, &r.InstallationLocation, &r.DownloadLocation, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) DeleteInstallSettings(modlistPath string) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	_, err := db.SQL.Exec(`DELETE FROM install_settings WHERE modlist_path=?`, modlistPath)
	return err
}

// LastInstalledListLocation returns the modlist path used most recently, or "".
func (db *DB) LastInstalledListLocation() (string, error) {
	return db.getAppState(keyLastInstalledList)
}

func (db *DB) SetLastInstalledListLocation(p string) error {
	return db.setAppState(keyLastInstalledList, p)
}

func (db *DB) getAppState(key string) (string, error) {
	if db == nil || db.SQL == nil {
		return "", errors.New("nil db")
	}
	var v string
	switch err := db.SQL.QueryRow(`SELECT value FROM app_state WHERE key=?`, key).Scan(&v); err {
	case sql.ErrNoRows:
		return "", nil
	case nil:
		return v, nil
	default:
		return "", err
	}
}

func (db *DB) setAppState(key, value string) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	_, err := db.SQL.Exec(`INSERT INTO app_state(key, value, updated_at) VALUES(?,?,strftime('%s','now'))
	ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value)
	return err
}
