package history

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/hobbybridge/internal/device"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", 1000)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEntry(uuid string) Entry {
	return Entry{
		DeviceUUID: uuid,
		Model:      "dimmer",
		Properties: device.Properties{
			{Name: "Status", Value: "On"},
			{Name: "Brightness", Value: "80"},
		},
		Touched: []string{"Brightness"},
	}
}

func TestStore_AppendAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, sampleEntry("u1")); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := store.Append(ctx, sampleEntry("u2")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := store.List(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}

	entry := entries[0]
	if entry.DeviceUUID != "u1" || entry.Model != "dimmer" {
		t.Errorf("entry = %+v", entry)
	}
	if v, _ := entry.Properties.Get("Brightness"); v != "80" {
		t.Errorf("Brightness = %q, want 80", v)
	}
	if len(entry.Touched) != 1 || entry.Touched[0] != "Brightness" {
		t.Errorf("Touched = %v, want [Brightness]", entry.Touched)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	// Newest first.
	if entries[0].ID < entries[2].ID {
		t.Error("entries not ordered newest first")
	}
}

func TestStore_ListLimitClamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		if err := store.Append(ctx, sampleEntry("u1")); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	// Zero limit uses the default.
	entries, err := store.List(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != defaultListLimit {
		t.Errorf("default limit returned %d entries, want %d", len(entries), defaultListLimit)
	}

	// Oversized limit is capped.
	entries, err = store.List(ctx, "u1", 100000)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 60 {
		t.Errorf("capped limit returned %d entries, want 60", len(entries))
	}
}

func TestStore_Validation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, Entry{}); err == nil {
		t.Error("Append() without uuid should fail")
	}
	if _, err := store.List(ctx, "", 10); err == nil {
		t.Error("List() without uuid should fail")
	}
	if _, err := store.Prune(ctx, 0); err == nil {
		t.Error("Prune() with zero duration should fail")
	}
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, sampleEntry("u1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Nothing is old enough to prune.
	removed, err := store.Prune(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Prune() removed %d rows, want 0", removed)
	}
}

func TestRecorder(t *testing.T) {
	store := openTestStore(t)

	recorder := NewRecorder(store, nil)

	dev := device.Device{
		UUID:  "u1",
		Model: "socket",
		Properties: device.Properties{
			{Name: "Status", Value: "Off"},
		},
	}
	recorder.RecordStatus(dev, device.Properties{{Name: "Status", Value: "Off"}})
	recorder.Close()

	entries, err := store.List(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("recorder wrote %d entries, want 1", len(entries))
	}
	if entries[0].Model != "socket" {
		t.Errorf("Model = %q, want socket", entries[0].Model)
	}
}
