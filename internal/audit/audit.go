// Package audit appends structured events to per-stream JSONL files
// under .edison/_generated/audit/. Streams are append-only and never
// rewritten; readers tail them for history, never mutate them.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"time"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/paths"
	"github.com/edison-dev/edison/internal/storage"
)

// Event is the envelope every audit record shares; Data carries the
// event-specific payload (e.g. a task.TransitionEvent).
type Event struct {
	Stream    string    `json:"stream"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Sink appends events to the named stream under resolver's audit root.
type Sink struct {
	Resolver *paths.Resolver
}

func NewSink(resolver *paths.Resolver) *Sink { return &Sink{Resolver: resolver} }

// Append writes one event to stream, stamped with the current time.
func (s *Sink) Append(stream string, data any) error {
	return storage.AppendJSONL(s.Resolver.AuditStreamPath(stream), Event{
		Stream:    stream,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// AppendFunc binds Append to a fixed stream name (e.g. "tasks", "qa",
// "sessions") for call sites that only pass the event data. It is not
// an entity.AuditFunc, which takes an entity.TransitionEvent.
func (s *Sink) AppendFunc(stream string) func(data any) error {
	return func(data any) error { return s.Append(stream, data) }
}

// Tail reads every event from stream in append order. Streams are
// expected to be modest in size (one repo's lifetime of transitions);
// callers needing true streaming tails should read the file directly.
func (s *Sink) Tail(stream string) ([]Event, error) {
	raw, err := storage.ReadText(s.Resolver.AuditStreamPath(stream))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var events []Event
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, edisonerr.Wrap(edisonerr.KindIntegrityError, stream, "decoding audit record", err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, edisonerr.IOError(stream, err)
	}
	return events, nil
}

func isNotFound(err error) bool {
	e, ok := err.(*edisonerr.Error)
	return ok && e.Kind == edisonerr.KindNotFound
}
