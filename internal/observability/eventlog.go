package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Mutation event types written by the store.
const (
	EventTaskCreated    = "task.created"
	EventTaskUpdated    = "task.updated"
	EventTaskArchived   = "task.archived"
	EventTaskRestored   = "task.restored"
	EventTaskDeleted    = "task.deleted"
	EventDraftPromoted  = "draft.promoted"
	EventWriteConflict  = "write.conflict"
	EventReconcileDone  = "reconcile.completed"
	EventDocCreated     = "document.created"
	EventDecisionSaved  = "decision.saved"
	EventConfigReloaded = "config.reloaded"
)

// Event is one entry in the mutation audit trail.
type Event struct {
	Time    time.Time      `json:"time"`
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter narrows audit trail reads.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
}

// EventLog records and replays mutation events.
type EventLog interface {
	Record(eventType, message string, data map[string]any)
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog appends events to a JSONL file, one JSON object per line.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
	now  func() time.Time
}

// NewJSONLEventLog opens (or creates) the audit trail at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f, now: time.Now}, nil
}

// Record appends one event. Audit writes are best-effort: a failed append
// never fails the mutation that produced it.
func (l *jsonlEventLog) Record(eventType, message string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := Event{
		Time:    l.now().UTC(),
		Type:    eventType,
		Message: message,
		Data:    data,
	}
	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	line = append(line, '\n')
	_, _ = l.file.Write(line)
}

// Read scans the trail and returns events matching the filter. Malformed
// lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if matchesFilter(event, filter) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func matchesFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Time.After(*filter.Until) {
		return false
	}
	if filter.Type != "" && event.Type != filter.Type {
		return false
	}
	return true
}

// NopEventLog discards everything. Used when audit logging is disabled.
type NopEventLog struct{}

func (NopEventLog) Record(string, string, map[string]any) {}
func (NopEventLog) Read(EventFilter) ([]Event, error)     { return nil, nil }
func (NopEventLog) Close() error                          { return nil }
