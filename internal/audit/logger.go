// Package audit records who touched patient data and when: login
// attempts, record views and prontuário exports. Events are buffered on
// a channel and drained by a background goroutine so request handlers
// never block on the sink.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an access event.
type Kind string

const (
	KindLogin    Kind = "login"
	KindView     Kind = "record_view"
	KindExport   Kind = "prontuario_export"
	KindRegister Kind = "record_register"
	KindUpdate   Kind = "record_update"
	KindAppend   Kind = "procedure_append"
	KindDelete   Kind = "record_delete"
)

// Event is one recorded access.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Actor     string    `json:"actor,omitempty"` // masked CPF of the operator
	PatientID string    `json:"patient_id,omitempty"`
	RemoteIP  string    `json:"remote_ip,omitempty"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
	Recorded  time.Time `json:"recorded"`
}

// Config holds audit settings.
type Config struct {
	Enabled  bool
	FilePath string // optional JSONL sink
}

// Logger collects access events.
type Logger struct {
	config  Config
	mu      sync.RWMutex
	events  []Event
	running bool
	stopCh  chan struct{}
	eventCh chan Event
	file    *os.File
}

// NewLogger creates an audit logger.
func NewLogger(cfg Config) *Logger {
	return &Logger{
		config:  cfg,
		stopCh:  make(chan struct{}),
		eventCh: make(chan Event, 256),
	}
}

// Start begins draining events. Safe to call once per logger.
func (l *Logger) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	if l.config.FilePath != "" {
		f, err := os.OpenFile(l.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			l.running = false
			l.mu.Unlock()
			return err
		}
		l.file = f
	}
	l.mu.Unlock()

	go l.drain(ctx)
	return nil
}

// Stop halts the logger. Buffered events still on the channel are
// dropped; the sink file is closed.
func (l *Logger) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		close(l.stopCh)
		l.running = false
		if l.file != nil {
			l.file.Close()
			l.file = nil
		}
	}
}

func (l *Logger) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case ev := <-l.eventCh:
			l.mu.Lock()
			l.events = append(l.events, ev)
			if l.file != nil {
				if data, err := json.Marshal(ev); err == nil {
					l.file.Write(append(data, '\n'))
				}
			}
			l.mu.Unlock()
		}
	}
}

// Record queues an access event. A full buffer drops the event rather
// than stalling the request path.
func (l *Logger) Record(kind Kind, actor, patientID, remoteIP string, success bool, detail string) {
	if !l.config.Enabled {
		return
	}
	ev := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Actor:     actor,
		PatientID: patientID,
		RemoteIP:  remoteIP,
		Success:   success,
		Detail:    detail,
		Recorded:  time.Now(),
	}
	select {
	case l.eventCh <- ev:
	default:
	}
}

// Filter narrows Events results; zero values match everything.
type Filter struct {
	Kind      Kind
	PatientID string
}

// Events returns recorded events matching the filter, oldest first.
func (l *Logger) Events(f Filter) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, ev := range l.events {
		if f.Kind != "" && ev.Kind != f.Kind {
			continue
		}
		if f.PatientID != "" && ev.PatientID != f.PatientID {
			continue
		}
		out = append(out, ev)
	}
	return out
}
