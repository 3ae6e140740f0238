package eventlog

import (
	"bytes"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

// Logger accumulates Events for a single run and writes them, along with
// run metadata and the final execution-state tree, to a YAML file. A nil
// *Logger is valid and every method is a no-op on it, so callers can thread
// an optionally-configured logger through task/step evaluation without
// branching on whether logging was requested.
type Logger struct {
	mu       sync.Mutex
	path     string
	debug    bool
	metadata RunMetadata
	start    time.Time
	events   []*Event
}

// NewLogger creates a Logger that writes to path on Write, tagging the run
// with task/file metadata and the current module path and git info. An
// empty path means logging wasn't requested, so NewLogger returns nil.
func NewLogger(path, task, file string, debug bool) *Logger {
	if path == "" {
		return nil
	}
	return &Logger{
		path:  path,
		debug: debug,
		start: time.Now(),
		metadata: RunMetadata{
			RunID:      ulid.Make().String(),
			CreatedAt:  time.Now(),
			Task:       task,
			File:       file,
			ModulePath: CaptureModulePath(),
			Git:        CaptureGitInfo(),
		},
	}
}

// GetStartTime returns the run's start time, or the zero time on a nil
// logger.
func (l *Logger) GetStartTime() time.Time {
	if l == nil {
		return time.Time{}
	}
	return l.start
}

// GetElapsed returns seconds elapsed since the run started, or 0 on a nil
// logger.
func (l *Logger) GetElapsed() float64 {
	if l == nil {
		return 0
	}
	return time.Since(l.start).Seconds()
}

// GetEvents returns a snapshot of the events recorded so far.
func (l *Logger) GetEvents() []*Event {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	events := make([]*Event, len(l.events))
	copy(events, l.events)
	return events
}

// LogExec records a step's terminal result (pass/fail/skipped), per
// spec.md's step-evaluation outcome. durationMs is the step's wall-clock
// duration; err, if non-nil, becomes the event's Error message.
func (l *Logger) LogExec(result Result, id, run string, start float64, durationMs int64, err error) {
	if l == nil {
		return
	}

	event := &Event{
		ID:       id,
		Type:     EventTypeStep,
		Start:    start,
		Duration: float64(durationMs) / 1000,
		Run:      run,
		Result:   result,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if l.debug {
		event.GoroutineID = getGoroutineID()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

// LogCommand records a process execution event described by entry;
// entry.Type tells a step's own command apart from other event kinds.
func (l *Logger) LogCommand(entry LogEntry) {
	if l == nil {
		return
	}

	event := &Event{
		ID:       entry.ID,
		Type:     entry.Type,
		Start:    entry.Start,
		Duration: float64(entry.DurationMs) / 1000,
		Error:    entry.Error,
		Command:  entry.Command,
		Dir:      entry.Dir,
		Output:   entry.Output,
		ExitCode: entry.ExitCode,
		ParentID: entry.ParentID,
	}
	if l.debug && len(entry.Env) > 0 {
		event.Env = entry.Env
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

// Write serializes the accumulated log -- metadata, the execution-state
// tree, recorded events, and an optional summary -- to the logger's path
// as YAML.
func (l *Logger) Write(state *StateNode, summary *RunSummary) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	log := Log{
		Metadata: l.metadata,
		State:    state,
		Events:   append([]*Event(nil), l.events...),
		Summary:  summary,
	}
	l.mu.Unlock()

	data, err := yaml.Marshal(log)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}

// getGoroutineID extracts the calling goroutine's ID from its own stack
// trace header ("goroutine 123 [running]:"). There's no supported runtime
// API for this; it's only used to annotate debug-mode events, never for
// control flow.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.Fields(buf[:n])
	if len(field) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(field[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
