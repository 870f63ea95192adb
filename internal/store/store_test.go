package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUpsertUser(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.UpsertUser(ctx, "u1", "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Second upsert refreshes the username, no duplicate row.
	if err := st.UpsertUser(ctx, "u1", "alice2"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	u, err := st.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Username != "alice2" {
		t.Errorf("username = %q, want alice2", u.Username)
	}

	users, err := st.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("users = %d, want 1", len(users))
	}
}

func TestGetUserNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetUser(context.Background(), "nope"); err != ErrUserNotFound {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUpsertUserRequiresHandle(t *testing.T) {
	st := openTestStore(t)
	if err := st.UpsertUser(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error for empty handle")
	}
}

func TestSamplesSinceScoping(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	add := func(owner, category, value string, at time.Time) {
		t.Helper()
		if _, err := st.AddSample(ctx, &Sample{OwnerID: owner, Category: category, Value: value, RecordedAt: at}); err != nil {
			t.Fatalf("add sample: %v", err)
		}
	}
	add("u1", "weight", "80", now.Add(-30*time.Minute))
	add("u1", "weight", "81", now.Add(-10*time.Minute))
	add("u2", "steps", "4000", now.Add(-20*time.Minute))
	add("u1", "weight", "79", now.Add(-2*time.Hour)) // outside window

	global, err := st.SamplesSince(ctx, "", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("global query: %v", err)
	}
	if len(global) != 3 {
		t.Errorf("global samples = %d, want 3", len(global))
	}
	for i := 1; i < len(global); i++ {
		if global[i].RecordedAt.Before(global[i-1].RecordedAt) {
			t.Errorf("samples not in ascending order at %d", i)
		}
	}

	scoped, err := st.SamplesSince(ctx, "u1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("scoped query: %v", err)
	}
	if len(scoped) != 2 {
		t.Errorf("u1 samples = %d, want 2", len(scoped))
	}
	for _, s := range scoped {
		if s.OwnerID != "u1" {
			t.Errorf("leaked sample from %s", s.OwnerID)
		}
	}
}

func TestListSamplesNewestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := st.AddSample(ctx, &Sample{
			OwnerID: "u1", Category: "weight", Value: "80",
			RecordedAt: now.Add(time.Duration(-i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	samples, err := st.ListSamples(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(samples))
	}
	if samples[0].RecordedAt.Before(samples[1].RecordedAt) {
		t.Error("expected newest first")
	}
}

func TestAddSampleValidation(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.AddSample(context.Background(), &Sample{OwnerID: "u1"}); err == nil {
		t.Fatal("expected error for missing category")
	}
	if _, err := st.AddSample(context.Background(), &Sample{Category: "weight"}); err == nil {
		t.Fatal("expected error for missing owner")
	}
}

func TestDueReminders(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	add := func(owner, title, tod string) *Reminder {
		t.Helper()
		r, err := st.AddReminder(ctx, &Reminder{OwnerID: owner, Title: title, TimeOfDay: tod})
		if err != nil {
			t.Fatalf("add reminder: %v", err)
		}
		return r
	}
	r1 := add("u1", "meds", "09:00")
	add("u2", "walk", "09:00")
	add("u1", "water", "15:30")

	due, err := st.DueReminders(ctx, "", "09:00")
	if err != nil {
		t.Fatalf("due query: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2", len(due))
	}

	scoped, err := st.DueReminders(ctx, "u1", "09:00")
	if err != nil {
		t.Fatalf("scoped due query: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Title != "meds" {
		t.Fatalf("scoped due = %+v, want just meds", scoped)
	}

	// Deactivated reminders drop out of the sweep.
	if err := st.DeactivateReminder(ctx, r1.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	due, err = st.DueReminders(ctx, "", "09:00")
	if err != nil {
		t.Fatalf("due after deactivate: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %d, want 1", len(due))
	}
}

func TestDeactivateUnknownReminderIsNoop(t *testing.T) {
	st := openTestStore(t)
	if err := st.DeactivateReminder(context.Background(), 9999); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestReminderDefaultsToDaily(t *testing.T) {
	st := openTestStore(t)
	r, err := st.AddReminder(context.Background(), &Reminder{OwnerID: "u1", Title: "meds", TimeOfDay: "09:00"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if r.Frequency != FrequencyDaily {
		t.Errorf("frequency = %q, want daily", r.Frequency)
	}
	if !r.Active {
		t.Error("new reminder should be active")
	}
}

func TestContacts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	c, err := st.AddContact(ctx, &Contact{OwnerID: "u1", Name: "Bob", Phone: "555-1234", Relationship: "brother"})
	if err != nil {
		t.Fatalf("add contact: %v", err)
	}
	contacts, err := st.ListContacts(ctx, "u1")
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Name != "Bob" {
		t.Fatalf("contacts = %+v", contacts)
	}
	if err := st.DeleteContact(ctx, c.ID); err != nil {
		t.Fatalf("delete contact: %v", err)
	}
	contacts, _ = st.ListContacts(ctx, "u1")
	if len(contacts) != 0 {
		t.Fatalf("contacts after delete = %d, want 0", len(contacts))
	}
}

func TestCountsAndActiveUsers(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	st.UpsertUser(ctx, "u1", "alice")
	st.UpsertUser(ctx, "u2", "bob")
	st.AddSample(ctx, &Sample{OwnerID: "u1", Category: "weight", Value: "80", RecordedAt: now.Add(-time.Hour)})
	st.AddSample(ctx, &Sample{OwnerID: "u2", Category: "weight", Value: "85", RecordedAt: now.Add(-10*24*time.Hour)})
	st.AddReminder(ctx, &Reminder{OwnerID: "u1", Title: "meds", TimeOfDay: "09:00"})

	counts, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Users != 2 || counts.Samples != 2 || counts.ActiveReminders != 1 {
		t.Fatalf("counts = %+v", counts)
	}

	active, err := st.ActiveUsersSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("active users: %v", err)
	}
	if active != 1 {
		t.Fatalf("active users = %d, want 1", active)
	}
}
