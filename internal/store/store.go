// Package store is the SQLite snapshot store for users, samples and
// reminders. It is the read surface the aggregator queries on every tick and
// the write surface behind the CLI and gateway record paths.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUserNotFound is returned by lookups for an unknown handle.
var ErrUserNotFound = errors.New("store: user not found")

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// UpsertUser creates the user or refreshes its username.
func (s *Store) UpsertUser(ctx context.Context, handle, username string) error {
	if handle == "" {
		return fmt.Errorf("store: handle is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (handle, username, created_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(handle) DO UPDATE SET username = excluded.username
	`, handle, username)
	return err
}

func (s *Store) GetUser(ctx context.Context, handle string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT handle, username, created_at FROM users WHERE handle = ?`, handle).
		Scan(&u.Handle, &u.Username, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, username, created_at FROM users ORDER BY handle ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Handle, &u.Username, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ---------------------------------------------------------------------------
// Samples
// ---------------------------------------------------------------------------

// AddSample inserts a sample and returns it with its assigned ID.
func (s *Store) AddSample(ctx context.Context, smp *Sample) (*Sample, error) {
	if smp.OwnerID == "" || smp.Category == "" {
		return nil, fmt.Errorf("store: owner_id and category are required")
	}
	if smp.RecordedAt.IsZero() {
		smp.RecordedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (owner_id, category, value, notes, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, smp.OwnerID, smp.Category, smp.Value, smp.Notes, smp.RecordedAt)
	if err != nil {
		return nil, err
	}
	smp.ID, _ = res.LastInsertId()
	return smp, nil
}

// SamplesSince returns samples recorded after since, oldest first. An empty
// owner selects across all users (global scope).
func (s *Store) SamplesSince(ctx context.Context, owner string, since time.Time) ([]Sample, error) {
	query := `SELECT id, owner_id, category, value, notes, recorded_at FROM samples WHERE recorded_at > ?`
	args := []interface{}{since}
	if owner != "" {
		query += " AND owner_id = ?"
		args = append(args, owner)
	}
	query += " ORDER BY recorded_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.ID, &smp.OwnerID, &smp.Category, &smp.Value, &smp.Notes, &smp.RecordedAt); err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// ListSamples returns the newest samples for one user, most recent first.
func (s *Store) ListSamples(ctx context.Context, owner string, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, category, value, notes, recorded_at FROM samples
		WHERE owner_id = ? ORDER BY recorded_at DESC LIMIT ?
	`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.ID, &smp.OwnerID, &smp.Category, &smp.Value, &smp.Notes, &smp.RecordedAt); err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// ActiveUsersSince counts distinct users with at least one sample after since.
func (s *Store) ActiveUsersSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT owner_id) FROM samples WHERE recorded_at > ?`, since).Scan(&n)
	return n, err
}

// TodaySampleCount counts samples recorded on the current calendar day (UTC).
func (s *Store) TodaySampleCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM samples WHERE date(recorded_at) = date('now')`).Scan(&n)
	return n, err
}

// ---------------------------------------------------------------------------
// Reminders
// ---------------------------------------------------------------------------

// AddReminder inserts an active reminder and returns it with its ID.
func (s *Store) AddReminder(ctx context.Context, r *Reminder) (*Reminder, error) {
	if r.OwnerID == "" || r.Title == "" || r.TimeOfDay == "" {
		return nil, fmt.Errorf("store: owner_id, title and time_of_day are required")
	}
	if r.Frequency == "" {
		r.Frequency = FrequencyDaily
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (owner_id, title, description, time_of_day, frequency, active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, datetime('now'))
	`, r.OwnerID, r.Title, r.Description, r.TimeOfDay, r.Frequency)
	if err != nil {
		return nil, err
	}
	r.ID, _ = res.LastInsertId()
	r.Active = true
	return r, nil
}

// DueReminders returns active reminders whose time_of_day equals the given
// wall-clock minute ("HH:MM"), ordered by time_of_day ascending. An empty
// owner selects across all users.
func (s *Store) DueReminders(ctx context.Context, owner, nowMinute string) ([]Reminder, error) {
	query := `SELECT id, owner_id, title, description, time_of_day, frequency, active, created_at
		FROM reminders WHERE active = 1 AND time_of_day = ?`
	args := []interface{}{nowMinute}
	if owner != "" {
		query += " AND owner_id = ?"
		args = append(args, owner)
	}
	query += " ORDER BY time_of_day ASC, id ASC"
	return s.queryReminders(ctx, query, args...)
}

// ListReminders returns a user's reminders, optionally active ones only.
func (s *Store) ListReminders(ctx context.Context, owner string, activeOnly bool) ([]Reminder, error) {
	query := `SELECT id, owner_id, title, description, time_of_day, frequency, active, created_at
		FROM reminders WHERE owner_id = ?`
	args := []interface{}{owner}
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY time_of_day ASC"
	return s.queryReminders(ctx, query, args...)
}

// DeactivateReminder marks a reminder inactive. Unknown IDs are a no-op.
func (s *Store) DeactivateReminder(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE reminders SET active = 0 WHERE id = ?`, id)
	return err
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...interface{}) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.TimeOfDay, &r.Frequency, &r.Active, &r.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// ---------------------------------------------------------------------------
// Emergency contacts
// ---------------------------------------------------------------------------

func (s *Store) AddContact(ctx context.Context, c *Contact) (*Contact, error) {
	if c.OwnerID == "" || c.Name == "" || c.Phone == "" {
		return nil, fmt.Errorf("store: owner_id, name and phone are required")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO emergency_contacts (owner_id, name, phone, relationship)
		VALUES (?, ?, ?, ?)
	`, c.OwnerID, c.Name, c.Phone, c.Relationship)
	if err != nil {
		return nil, err
	}
	c.ID, _ = res.LastInsertId()
	return c, nil
}

func (s *Store) ListContacts(ctx context.Context, owner string) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, phone, relationship FROM emergency_contacts
		WHERE owner_id = ? ORDER BY name ASC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Phone, &c.Relationship); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (s *Store) DeleteContact(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE id = ?`, id)
	return err
}

// ---------------------------------------------------------------------------
// Totals
// ---------------------------------------------------------------------------

// Counts returns the system-wide totals used by the status surface.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&c.Users); err != nil {
		return c, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&c.Samples); err != nil {
		return c, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reminders WHERE active = 1`).Scan(&c.ActiveReminders); err != nil {
		return c, err
	}
	return c, nil
}
