package recorder

import "context"

// NoopRecorder is used when no archive database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ context.Context, _ *Snapshot) error          { return nil }
func (n *NoopRecorder) RecordFailedFile(_ context.Context, _ *FailedFileEvent) error { return nil }
func (n *NoopRecorder) Close() error                                                 { return nil }
