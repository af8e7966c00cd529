// Package diagnostics delivers resolution diagnostics to the log and the
// persisted diagnostics log.
package diagnostics

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/rolltables/internal/platform/id"
	"github.com/louisbranch/rolltables/internal/platform/requestctx"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
)

// LogSink writes diagnostics to the standard logger.
type LogSink struct{}

// Report logs d, tagged with the request id when ctx carries one.
func (LogSink) Report(ctx context.Context, d engine.Diagnostic) {
	if requestID := requestctx.RequestIDFromContext(ctx); requestID != "" {
		log.Printf("%s %s table=%s depth=%d request=%s: %s", d.Severity, d.Condition, d.Table, d.Depth, requestID, d.Message)
		return
	}
	log.Printf("%s %s table=%s depth=%d: %s", d.Severity, d.Condition, d.Table, d.Depth, d.Message)
}

// Emitter persists diagnostics to a store.
type Emitter struct {
	store storage.DiagnosticStore
	clock func() time.Time
	newID func() (string, error)
}

// NewEmitter creates an emitter. A nil store makes it a no-op.
func NewEmitter(store storage.DiagnosticStore) *Emitter {
	return &Emitter{store: store, clock: time.Now, newID: id.NewID}
}

// Emit records one diagnostic.
func (e *Emitter) Emit(ctx context.Context, d engine.Diagnostic) error {
	if e == nil || e.store == nil {
		return nil
	}
	recordID, err := e.newID()
	if err != nil {
		return err
	}
	return e.store.AppendDiagnostic(ctx, storage.DiagnosticRecord{
		ID:         recordID,
		Diagnostic: d,
		CreatedAt:  e.clock().UTC(),
	})
}

// Report implements engine.Sink. Failures are logged, never returned to
// the resolution.
func (e *Emitter) Report(ctx context.Context, d engine.Diagnostic) {
	if err := e.Emit(ctx, d); err != nil {
		log.Printf("persist diagnostic %s for %s: %v", d.Condition, d.Table, err)
	}
}

type multi []engine.Sink

// Multi fans a diagnostic out to every non-nil sink in order.
func Multi(sinks ...engine.Sink) engine.Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Report(ctx context.Context, d engine.Diagnostic) {
	for _, s := range m {
		s.Report(ctx, d)
	}
}
