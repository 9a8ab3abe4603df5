package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEventLogRecordAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog: %v", err)
	}
	defer func() { _ = log.Close() }()

	log.Record(EventTaskCreated, "created TASK-1", map[string]any{"id": "TASK-1"})
	log.Record(EventTaskUpdated, "updated TASK-1", map[string]any{"id": "TASK-1"})
	log.Record(EventTaskArchived, "archived TASK-1", nil)

	all, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Type != EventTaskCreated || all[2].Type != EventTaskArchived {
		t.Errorf("events out of order: %q ... %q", all[0].Type, all[2].Type)
	}
	if got := all[0].Data["id"]; got != "TASK-1" {
		t.Errorf("event data id = %v, want TASK-1", got)
	}
}

func TestEventLogFilterByType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog: %v", err)
	}
	defer func() { _ = log.Close() }()

	log.Record(EventTaskCreated, "a", nil)
	log.Record(EventTaskDeleted, "b", nil)
	log.Record(EventTaskCreated, "c", nil)

	got, err := log.Read(EventFilter{Type: EventTaskCreated})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 filtered events, got %d", len(got))
	}
}

func TestEventLogFilterByTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	raw, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog: %v", err)
	}
	defer func() { _ = raw.Close() }()

	log := raw.(*jsonlEventLog)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	log.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	log.Record(EventTaskCreated, "early", nil)
	log.Record(EventTaskUpdated, "late", nil)

	since := base.Add(90 * time.Second)
	got, err := log.Read(EventFilter{Since: &since})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 || got[0].Message != "late" {
		t.Fatalf("time filter returned %+v", got)
	}
}

func TestEventLogSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog: %v", err)
	}
	log.Record(EventTaskCreated, "ok", nil)
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	corrupted := string(content) + "{not json\n"
	if err := os.WriteFile(path, []byte(corrupted), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reopened, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 || !strings.Contains(got[0].Message, "ok") {
		t.Fatalf("expected the single valid event, got %+v", got)
	}
}

func TestEventLogMissingFileReadsEmpty(t *testing.T) {
	log := &jsonlEventLog{path: filepath.Join(t.TempDir(), "absent.jsonl"), now: time.Now}
	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read on missing file: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil events, got %+v", got)
	}
}
