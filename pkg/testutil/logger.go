package testutil

import (
	"context"
	"sync"

	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
)

// MockLogger captures log entries for assertion in tests. It is safe for concurrent use.
type MockLogger struct {
	once   sync.Once
	state  *mockState
	fields []any
}

type mockState struct {
	mu   sync.Mutex
	logs []LogEntry
}

// LogEntry represents a single log entry captured by MockLogger.
type LogEntry struct {
	Level  string
	Msg    string
	Fields map[string]interface{}
}

func (m *MockLogger) Debug(msg string, args ...any) { m.record("debug", msg, args) }
func (m *MockLogger) Info(msg string, args ...any)  { m.record("info", msg, args) }
func (m *MockLogger) Warn(msg string, args ...any)  { m.record("warn", msg, args) }
func (m *MockLogger) Error(msg string, args ...any) { m.record("error", msg, args) }

// With returns a child that records into the same entry list.
func (m *MockLogger) With(args ...any) logger.Logger {
	return &MockLogger{
		state:  m.shared(),
		fields: append(append([]any{}, m.fields...), args...),
	}
}

// WithContext returns a child carrying the request ID from ctx, if any.
func (m *MockLogger) WithContext(ctx context.Context) logger.Logger {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return m.With("request_id", id)
	}
	return m.With()
}

// Logs returns a copy of the captured entries.
func (m *MockLogger) Logs() []LogEntry {
	st := m.shared()
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]LogEntry(nil), st.logs...)
}

// Find returns the first entry with msg.
func (m *MockLogger) Find(msg string) (LogEntry, bool) {
	for _, entry := range m.Logs() {
		if entry.Msg == msg {
			return entry, true
		}
	}
	return LogEntry{}, false
}

func (m *MockLogger) shared() *mockState {
	m.once.Do(func() {
		if m.state == nil {
			m.state = &mockState{}
		}
	})
	return m.state
}

func (m *MockLogger) record(level, msg string, args []any) {
	fields := argsToMap(append(append([]any{}, m.fields...), args...))
	st := m.shared()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.logs = append(st.logs, LogEntry{Level: level, Msg: msg, Fields: fields})
}

func argsToMap(args []any) map[string]interface{} {
	fields := make(map[string]interface{})
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	return fields
}
