package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/snip-links/snip/internal/utils"
)

var (
	ErrNotFound  = errors.New("redirect not found")
	ErrKeyExists = errors.New("redirect key already exists")
)

// Redirect maps a short key to its destination URL.
type Redirect struct {
	ID           int64     `json:"id" yaml:"-"`
	Key          string    `json:"key" yaml:"key"`
	URL          string    `json:"url" yaml:"url"`
	RedirectHost string    `json:"redirect_host,omitempty" yaml:"redirect_host,omitempty"`
	Visits       int64     `json:"visits" yaml:"visits"`
	CreatedBy    string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedUTC   time.Time `json:"created_utc" yaml:"created_utc"`
	UpdatedUTC   time.Time `json:"updated_utc" yaml:"updated_utc"`
}

const selectRedirect = `SELECT id, key, url, redirect_host, visits, created_by, created_utc, updated_utc FROM redirects`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRedirect(row rowScanner) (*Redirect, error) {
	var r Redirect
	var created, updated int64
	if err := row.Scan(&r.ID, &r.Key, &r.URL, &r.RedirectHost, &r.Visits, &r.CreatedBy, &created, &updated); err != nil {
		return nil, err
	}
	r.CreatedUTC = time.Unix(created, 0).UTC()
	r.UpdatedUTC = time.Unix(updated, 0).UTC()
	return &r, nil
}

// SaveRedirect inserts a new redirect. It returns ErrKeyExists when key is taken.
func SaveRedirect(key, url, host, createdBy string) (*Redirect, error) {
	now := time.Now().UTC().Truncate(time.Second)
	r := &Redirect{
		Key:          key,
		URL:          url,
		RedirectHost: host,
		CreatedBy:    createdBy,
		CreatedUTC:   now,
		UpdatedUTC:   now,
	}

	err := withTx(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow("SELECT 1 FROM redirects WHERE key = ?", key).Scan(&exists)
		if err == nil {
			return ErrKeyExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check key: %w", err)
		}

		res, err := tx.Exec(`
			INSERT INTO redirects (key, url, redirect_host, visits, created_by, created_utc, updated_utc)
			VALUES (?, ?, ?, 0, ?, ?, ?)
		`, key, url, host, createdBy, now.Unix(), now.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert redirect: %w", err)
		}
		r.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRedirect points an existing key at a new URL.
func UpdateRedirect(key, url string) (*Redirect, error) {
	d, err := getDBHelper()
	if err != nil {
		return nil, err
	}

	res, err := d.Exec("UPDATE redirects SET url = ?, updated_utc = ? WHERE key = ?", url, time.Now().UTC().Unix(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to update redirect: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetRedirect(key)
}

// DeleteRedirect removes the redirect stored under key.
func DeleteRedirect(key string) error {
	d, err := getDBHelper()
	if err != nil {
		return err
	}

	res, err := d.Exec("DELETE FROM redirects WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete redirect: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRedirect looks up a single redirect by key.
func GetRedirect(key string) (*Redirect, error) {
	d, err := getDBHelper()
	if err != nil {
		return nil, err
	}

	r, err := scanRedirect(d.QueryRow(selectRedirect+" WHERE key = ?", key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query redirect: %w", err)
	}
	return r, nil
}

// ListRedirects returns every redirect, newest first.
func ListRedirects() ([]Redirect, error) {
	d, err := getDBHelper()
	if err != nil {
		return nil, err
	}

	rows, err := d.Query(selectRedirect + " ORDER BY created_utc DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query redirects: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			utils.Debug("Error closing rows: %v", err)
		}
	}()

	list := []Redirect{}
	for rows.Next() {
		r, err := scanRedirect(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}

// IncVisits bumps the visit counter of key.
func IncVisits(key string) error {
	d, err := getDBHelper()
	if err != nil {
		return err
	}

	res, err := d.Exec("UPDATE redirects SET visits = visits + 1 WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to count visit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ImportRedirects inserts redirects in one transaction, skipping keys that
// already exist. It returns the number of rows inserted.
func ImportRedirects(list []Redirect) (int, error) {
	imported := 0
	err := withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO redirects (key, url, redirect_host, visits, created_by, created_utc, updated_utc)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare import: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now().UTC()
		for _, r := range list {
			created, updated := r.CreatedUTC, r.UpdatedUTC
			if created.IsZero() {
				created = now
			}
			if updated.IsZero() {
				updated = created
			}
			res, err := stmt.Exec(r.Key, r.URL, r.RedirectHost, r.Visits, r.CreatedBy, created.Unix(), updated.Unix())
			if err != nil {
				return fmt.Errorf("failed to import %q: %w", r.Key, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				imported++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}
