package store

import (
	"time"
)

// Sample is one user-submitted health data point. Values are opaque strings;
// numeric analyses parse them best-effort ("72.5", "120/80", "good").
type Sample struct {
	ID         int64     `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Category   string    `json:"category"`
	Value      string    `json:"value"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Reminder is a scheduled time-of-day nudge for one user.
type Reminder struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TimeOfDay   string    `json:"time_of_day"` // "HH:MM", 24h wall clock
	Frequency   string    `json:"frequency"`   // once, daily, weekly
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reminder frequencies.
const (
	FrequencyOnce   = "once"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// User is a tracked account. Handle is the external identity (chat user id).
type User struct {
	Handle    string    `json:"handle"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact is an emergency contact attached to a user.
type Contact struct {
	ID           int64  `json:"id"`
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship,omitempty"`
}

// Counts is the system-wide totals snapshot.
type Counts struct {
	Users           int `json:"users"`
	Samples         int `json:"samples"`
	ActiveReminders int `json:"active_reminders"`
}

// Schema is applied on every open; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	handle TEXT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id TEXT NOT NULL,
	category TEXT NOT NULL,
	value TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_samples_owner ON samples(owner_id);
CREATE INDEX IF NOT EXISTS idx_samples_recorded ON samples(recorded_at);

CREATE TABLE IF NOT EXISTS reminders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	time_of_day TEXT NOT NULL,
	frequency TEXT NOT NULL DEFAULT 'daily',
	active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reminders_owner ON reminders(owner_id);
CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(active, time_of_day);

CREATE TABLE IF NOT EXISTS emergency_contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	phone TEXT NOT NULL,
	relationship TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_contacts_owner ON emergency_contacts(owner_id);
`
